// Package grid maps WGS-84 coordinates onto the dataset's 700x765 raster.
//
// The dataset grid is a north-polar stereographic projection (central
// meridian 0, true-scale latitude 60) in kilometer units, followed by a
// fixed affine pixel transform taken from the product's embedded
// geotransform metadata. The pixel constants are empirically fit to the
// dataset and must be preserved exactly; the four-corner conformance test
// is their only validation.
package grid

import (
	"math"

	"github.com/rainmaps/raincast/internal/dataset"
)

// Coverage box derived from the product's corner coordinates. The corner
// polygon is not a rectangle, so this is a cheap prefilter: points outside
// it can never land on the grid, points inside still go through the full
// projection and range check.
const (
	lonMin = 0.0
	lonMax = 10.856452941894531
	latMin = 48.895301818847656
	latMax = 55.973602294921875
)

// Projection parameters from the dataset metadata
// (stere, lat_0=90, lon_0=0, lat_ts=60, units=km).
const (
	semiMajorM   = 6378137.0
	semiMinorM   = 6356752.0
	trueScaleDeg = 60.0
	kmPerMeter   = 1.0 / 1000.0
)

// Pixel transform from the product's geographic metadata
// (geo_pixel_size_x, geo_pixel_size_y, geo_row_offset).
const (
	pixelSizeX = 1.000003457069397
	pixelSizeY = -1.000004768371582
	rowOffset  = 3649.98193359375
)

// Projector transforms WGS-84 coordinates to grid cells. Stateless after
// construction and safe for concurrent use.
type Projector struct {
	e    float64 // ellipsoid eccentricity
	akm1 float64 // polar stereographic scale term for the true-scale latitude
}

// NewProjector precomputes the ellipsoid terms of the forward projection.
func NewProjector() Projector {
	es := 1 - (semiMinorM/semiMajorM)*(semiMinorM/semiMajorM)
	e := math.Sqrt(es)

	ts := trueScaleDeg * math.Pi / 180
	sinTS := math.Sin(ts)
	akm1 := math.Cos(ts) / tsfn(ts, sinTS, e)
	t := sinTS * e
	akm1 /= math.Sqrt(1 - t*t)

	return Projector{e: e, akm1: akm1}
}

// tsfn is the conformal latitude function of the ellipsoidal polar
// stereographic forward projection.
func tsfn(phi, sinphi, e float64) float64 {
	sinphi *= e
	return math.Tan(0.5*(math.Pi/2-phi)) /
		math.Pow((1-sinphi)/(1+sinphi), 0.5*e)
}

// ToOffset maps a coordinate to the cell offset of the covering grid cell.
// Anything that fails to map — non-finite input, outside the coverage box,
// off the raster — is a coverage miss, never an error.
func (p Projector) ToOffset(lat, lon float64) (int, bool) {
	x, y, ok := p.ToCell(lat, lon)
	if !ok {
		return 0, false
	}
	return (x*dataset.Width + y) * dataset.Steps, true
}

// ToCell maps a coordinate to its grid cell, with x in [0,Width) and
// y in [0,Height).
func (p Projector) ToCell(lat, lon float64) (int, int, bool) {
	if !withinCoverage(lat, lon) {
		return 0, 0, false
	}
	x, y := p.cell(lat, lon)
	if x >= dataset.Width || y >= dataset.Height {
		return 0, 0, false
	}
	return x, y, true
}

// cell runs the projection and pixel transform without the coverage filter
// or range check; the corner conformance test drives it directly. The x
// pixel is truncated toward zero, the y pixel rounded to nearest; negative
// results saturate at zero, matching unsigned conversion semantics.
func (p Projector) cell(lat, lon float64) (int, int) {
	lam := lon * math.Pi / 180
	phi := lat * math.Pi / 180

	rho := p.akm1 * tsfn(phi, math.Sin(phi), p.e)
	projX := semiMajorM * rho * math.Sin(lam) * kmPerMeter
	projY := semiMajorM * -rho * math.Cos(lam) * kmPerMeter

	px := projX*pixelSizeX + pixelSizeX/2
	py := (rowOffset+projY)*pixelSizeY + pixelSizeY/2

	x := int(px)
	y := int(math.Round(py))
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

func withinCoverage(lat, lon float64) bool {
	return !math.IsNaN(lon) && !math.IsInf(lon, 0) &&
		lon >= lonMin && lon < lonMax &&
		!math.IsNaN(lat) && !math.IsInf(lat, 0) &&
		lat >= latMin && lat < latMax
}
