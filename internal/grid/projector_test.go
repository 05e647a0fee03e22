package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainmaps/raincast/internal/dataset"
)

// Published corner coordinates of the product (geo_product_corners),
// lon/lat counter-clockwise from the upper left.
var corners = [4]struct {
	lon, lat float64
	x, y     int
}{
	{0.0, 49.362064361572266, 0, dataset.Height},              // UL
	{0.0, 55.973602294921875, 0, 0},                           // LL
	{10.856452941894531, 55.388973236083984, dataset.Width, 0}, // LR
	{9.009300231933594, 48.895301818847656, dataset.Width, dataset.Height}, // UR
}

func TestCornersMatch(t *testing.T) {
	proj := NewProjector()

	for idx, c := range corners {
		x, y := proj.cell(c.lat, c.lon)
		assert.Equal(t, c.x, x, "corner %d x", idx)
		assert.Equal(t, c.y, y, "corner %d y", idx)
	}
}

func TestToOffsetRejectsOutsideCoverage(t *testing.T) {
	proj := NewProjector()

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"west of box", 52.0, -1.0},
		{"east of box", 52.0, 11.0},
		{"north pole", 90.0, 4.0},
		{"south of box", 48.0, 4.0},
		{"lat max is exclusive", latMax, 4.0},
		{"lon max is exclusive", 52.0, lonMax},
		{"NaN lat", math.NaN(), 4.0},
		{"NaN lon", 52.0, math.NaN()},
		{"Inf lat", math.Inf(1), 4.0},
		{"negative Inf lon", 52.0, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := proj.ToOffset(tt.lat, tt.lon)
			assert.False(t, ok)
		})
	}
}

func TestToOffsetInvariants(t *testing.T) {
	proj := NewProjector()

	points := []struct {
		name     string
		lat, lon float64
	}{
		{"Amsterdam", 52.363137, 4.889856},
		{"Groningen", 53.219383, 6.566502},
		{"Maastricht", 50.851368, 5.690973},
		{"Utrecht", 52.090736, 5.121420},
	}

	for _, pt := range points {
		t.Run(pt.name, func(t *testing.T) {
			offset, ok := proj.ToOffset(pt.lat, pt.lon)
			require.True(t, ok)
			assert.Zero(t, offset%dataset.Steps, "offset must be a multiple of Steps")
			assert.LessOrEqual(t, offset, dataset.MaxOffset)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}

func TestToCellAgreesWithToOffset(t *testing.T) {
	proj := NewProjector()

	x, y, ok := proj.ToCell(52.363137, 4.889856)
	require.True(t, ok)

	offset, ok := proj.ToOffset(52.363137, 4.889856)
	require.True(t, ok)
	assert.Equal(t, (x*dataset.Width+y)*dataset.Steps, offset)
}
