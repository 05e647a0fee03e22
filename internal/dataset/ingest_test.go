package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves canned grids and slabs; the real container adapters are
// exercised in internal/adapter/netcdf.
type fakeStore struct {
	grids  map[string][]uint16
	slabs  [][]uint16
	dims   []int
	err    error
	closed bool
}

func (f *fakeStore) GroupGrid(group, variable string) ([]uint16, error) {
	if f.err != nil {
		return nil, f.err
	}
	if variable != "image_data" {
		return nil, fmt.Errorf("unknown variable %q", variable)
	}
	grid, ok := f.grids[group]
	if !ok {
		return nil, fmt.Errorf("unknown group %q", group)
	}
	return grid, nil
}

func (f *fakeStore) SlabCount(string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.slabs), nil
}

func (f *fakeStore) Slab(_ string, i int) ([]uint16, []int, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.slabs[i], f.dims, nil
}

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

func openFake(st *fakeStore) Opener {
	return func(string) (Store, error) { return st, nil }
}

// simpleGrids shares one zero grid across all 25 image groups, then
// overrides individual groups.
func simpleGrids(overrides map[string][]uint16) map[string][]uint16 {
	zero := make([]uint16, Width*Height)
	grids := make(map[string][]uint16, Steps)
	for step := 1; step <= Steps; step++ {
		grids[fmt.Sprintf("image%d", step)] = zero
	}
	for group, grid := range overrides {
		grids[group] = grid
	}
	return grids
}

func TestLoadSimple(t *testing.T) {
	const idx = 3*Width + 42 // arbitrary interior cell

	wet := make([]uint16, Width*Height)
	wet[idx] = 50
	st := &fakeStore{grids: simpleGrids(map[string][]uint16{"image3": wet})}

	ds, err := Load("/data/RAD_NL25_RAC_FM_202403140905.h5", KindSimple, openFake(st))
	require.NoError(t, err)

	assert.Equal(t, KindSimple, ds.Kind)
	assert.Equal(t, "RAD_NL25_RAC_FM_202403140905.h5", ds.Filename)
	assert.Equal(t, time.Date(2024, 3, 14, 9, 5, 0, 0, time.UTC), ds.CreatedAt)
	assert.True(t, st.closed, "store is closed after ingestion")

	pred, ok := ds.At(idx * Steps)
	require.True(t, ok)
	assert.Zero(t, pred[0])
	// raw 50 * 0.01 calibration * 12 accumulation-to-rate
	assert.InDelta(t, 6.0, pred[2], 1e-6)
	assert.Zero(t, pred[3])
}

func TestLoadSimpleBadGrid(t *testing.T) {
	st := &fakeStore{grids: simpleGrids(map[string][]uint16{"image7": make([]uint16, 10)})}

	_, err := Load("/data/RAD_NL25_RAC_FM_202403140905.h5", KindSimple, openFake(st))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image7")
}

func TestLoadFileGuessesKind(t *testing.T) {
	st := &fakeStore{grids: simpleGrids(nil)}

	ds, err := LoadFile("/data/RAD_NL25_RAC_FM_202403140905.h5", openFake(st))
	require.NoError(t, err)
	assert.Equal(t, KindSimple, ds.Kind)

	_, err = LoadFile("/data/notes.txt", openFake(st))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "RAD_NL25_RAC_FM_202403140900.h5")
	touch(t, dir, "RAD_NL25_RAC_FM_202403141000.h5")

	st := &fakeStore{grids: simpleGrids(nil)}
	ds, err := LoadFromDir(dir, openFake(st))
	require.NoError(t, err)
	assert.Equal(t, "RAD_NL25_RAC_FM_202403141000.h5", ds.Filename)

	_, err = LoadFromDir(t.TempDir(), openFake(st))
	assert.ErrorIs(t, err, ErrNoFileFound)
}

// ensembleSlabs aliases a zero slab for the lower members and a uniformly
// wet slab for the top seven, so the 70th-percentile pick lands on the wet
// value everywhere without allocating 20 distinct member planes.
func ensembleSlabs(raw uint16) [][]uint16 {
	plane := Width * Height
	zero := make([]uint16, Steps*plane)
	wet := make([]uint16, Steps*plane)
	for i := range wet {
		wet[i] = raw
	}

	slabs := make([][]uint16, ensembleSize)
	for m := range slabs {
		if m < ensembleSize-7 {
			slabs[m] = zero
		} else {
			slabs[m] = wet
		}
	}
	return slabs
}

func TestLoadEnsemble(t *testing.T) {
	st := &fakeStore{
		slabs: ensembleSlabs(40),
		dims:  []int{Steps, Height, Width},
	}

	ds, err := Load("/data/KNMI_PYSTEPS_BLEND_ENS_202403140900.nc", KindEnsemble, openFake(st))
	require.NoError(t, err)
	assert.Equal(t, KindEnsemble, ds.Kind)

	// Thirteen dry members and seven at raw 40: the rank pick is 40, and
	// the ensemble scale has no accumulation-to-rate factor. The last
	// written cell is (Width-1)*Width+(Height-1); the cell-major layout
	// leaves the offsets above it zero.
	lastWritten := ((Width-1)*Width + (Height - 1)) * Steps
	for _, offset := range []int{0, 123 * Steps, lastWritten} {
		pred, ok := ds.At(offset)
		require.True(t, ok)
		for step := 0; step < Steps; step++ {
			assert.InDelta(t, 0.4, pred[step], 1e-6)
		}
	}

	// Cell indices above (Width-1)*Width+(Height-1) are addressable but
	// never written by the cell-major layout.
	pred, ok := ds.At(MaxOffset)
	require.True(t, ok)
	assert.Zero(t, pred[0])
}

func TestLoadEnsembleMinorityRainIsDropped(t *testing.T) {
	plane := Width * Height
	zero := make([]uint16, Steps*plane)
	wet := make([]uint16, Steps*plane)
	for i := range wet {
		wet[i] = 99
	}

	// Six wet members of twenty sit below the 70th percentile.
	slabs := make([][]uint16, ensembleSize)
	for m := range slabs {
		slabs[m] = zero
	}
	for m := 0; m < 6; m++ {
		slabs[m] = wet
	}

	st := &fakeStore{slabs: slabs, dims: []int{Steps, Height, Width}}
	ds, err := Load("/data/KNMI_PYSTEPS_BLEND_ENS_202403140900.nc", KindEnsemble, openFake(st))
	require.NoError(t, err)

	pred, ok := ds.At(0)
	require.True(t, ok)
	assert.Zero(t, pred[0])
}

func TestLoadEnsembleExtraTimeSlotsAreIgnored(t *testing.T) {
	plane := Width * Height
	extra := Steps + 3
	wet := make([]uint16, extra*plane)
	for i := range wet {
		wet[i] = 40
	}

	slabs := make([][]uint16, ensembleSize)
	for m := range slabs {
		slabs[m] = wet
	}

	st := &fakeStore{slabs: slabs, dims: []int{extra, Height, Width}}
	ds, err := Load("/data/KNMI_PYSTEPS_BLEND_ENS_202403140900.nc", KindEnsemble, openFake(st))
	require.NoError(t, err)

	pred, ok := ds.At(0)
	require.True(t, ok)
	assert.Len(t, []float32(pred), Steps)
	assert.InDelta(t, 0.4, pred[Steps-1], 1e-6)
}

func TestLoadEnsembleDimensionErrors(t *testing.T) {
	plane := Width * Height

	tests := []struct {
		name  string
		slabs [][]uint16
		dims  []int
	}{
		{"wrong member count", make([][]uint16, 19), []int{Steps, Height, Width}},
		{"too few time slots", ensembleSlabs(0), []int{Steps - 1, Height, Width}},
		{"transposed plane", ensembleSlabs(0), []int{Steps, Width, Height}},
		{"missing axis", ensembleSlabs(0), []int{Steps, plane}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{slabs: tt.slabs, dims: tt.dims}
			_, err := Load("/data/KNMI_PYSTEPS_BLEND_ENS_202403140900.nc", KindEnsemble, openFake(st))
			assert.Error(t, err)
		})
	}
}

func TestLoadOpenError(t *testing.T) {
	boom := errors.New("boom")
	open := func(string) (Store, error) { return nil, boom }

	_, err := Load("/data/RAD_NL25_RAC_FM_202403140905.h5", KindSimple, open)
	assert.ErrorIs(t, err, boom)
}

func TestReduceMembers(t *testing.T) {
	base := []uint16{0, 0, 0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377, 610, 987, 1597, 2584}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		values := make([]uint16, len(base))
		copy(values, base)
		rng.Shuffle(len(values), func(a, b int) { values[a], values[b] = values[b], values[a] })

		// sorted index 13 of base is 144
		assert.InDelta(t, 1.44, reduceMembers(values), 1e-6)
	}
}
