package dataset

import (
	"fmt"
	"path/filepath"
	"slices"
)

// Store is the opaque forecast container behind one source file: a named
// group/variable store. Implementations live outside this package (see
// internal/adapter/netcdf); tests substitute in-memory fakes.
type Store interface {
	// GroupGrid reads the 2D uint16 variable inside a named group,
	// flattened row-major.
	GroupGrid(group, variable string) ([]uint16, error)

	// SlabCount reports the length of the named variable's outermost axis.
	SlabCount(variable string) (int, error)

	// Slab reads one index of the named variable's outermost axis,
	// flattened row-major, along with the dimensions of the remaining axes.
	Slab(variable string, i int) ([]uint16, []int, error)

	Close() error
}

// Opener opens a source file as a Store.
type Opener func(path string) (Store, error)

const (
	// ensembleSize is the member count of the pysteps blended ensemble.
	ensembleSize = 20

	// ensembleRank picks the 70th percentile of the 20 sorted member
	// values (index 13 of 0..19). Deliberately rain-biased: over-predicting
	// rain is preferred over under-predicting it. Changing this constant
	// changes the product's calibration and needs domain-owner review.
	ensembleRank = 13
)

// Load ingests one source file of a known kind. All-or-nothing: any error
// leaves no partial dataset behind.
func Load(path string, kind ModelKind, open Opener) (*Dataset, error) {
	filename := filepath.Base(path)
	createdAt, err := ParseTimestamp(filename, kind)
	if err != nil {
		return nil, err
	}

	st, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer st.Close()

	var data []float32
	switch kind {
	case KindEnsemble:
		data, err = loadEnsemble(st)
	default:
		data, err = loadSimple(st)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}

	return New(kind, createdAt, filename, data)
}

// LoadFile ingests a source file, guessing its kind from the filename.
func LoadFile(path string, open Opener) (*Dataset, error) {
	kind, ok := GuessKind(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnknownKind)
	}
	return Load(path, kind, open)
}

// LoadFromDir ingests the most recent data file of any kind in dir.
func LoadFromDir(dir string, open Opener) (*Dataset, error) {
	path, err := MostRecentFile(dir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path, open)
}

// loadSimple reads the 25 per-step image groups of the radar nowcast.
func loadSimple(st Store) ([]float32, error) {
	data := make([]float32, Width*Height*Steps)

	for step := 0; step < Steps; step++ {
		group := fmt.Sprintf("image%d", step+1)
		grid, err := st.GroupGrid(group, "image_data")
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", group, err)
		}
		if len(grid) != Width*Height {
			return nil, fmt.Errorf("group %s: got %d cells, want %d", group, len(grid), Width*Height)
		}

		for idx, raw := range grid {
			// 0.01 is the calibration factor, 12 converts the 5-minute
			// accumulation to an hourly rate.
			data[idx*Steps+step] = float32(raw) * 0.01 * 12
		}
	}

	return data, nil
}

// loadEnsemble reads the 4D precip_intensity variable one member slab at a
// time, then reduces the members per cell and step by rank selection.
//
// The source provides more than Steps time slots (up to 6 hours ahead);
// only the first Steps are kept.
func loadEnsemble(st Store) ([]float32, error) {
	const variable = "precip_intensity"

	count, err := st.SlabCount(variable)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", variable, err)
	}
	if count != ensembleSize {
		return nil, fmt.Errorf("variable %s: got %d members, want %d", variable, count, ensembleSize)
	}

	plane := Width * Height
	members := make([][]uint16, ensembleSize)
	for m := range members {
		slab, dims, err := st.Slab(variable, m)
		if err != nil {
			return nil, fmt.Errorf("variable %s member %d: %w", variable, m, err)
		}
		if len(dims) != 3 || dims[0] < Steps || dims[1] != Height || dims[2] != Width {
			return nil, fmt.Errorf("variable %s member %d: unexpected dimensions %v", variable, m, dims)
		}
		members[m] = slab[:Steps*plane]
	}

	data := make([]float32, Width*Height*Steps)
	var scratch [ensembleSize]uint16
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			cell := y*Width + x
			for t := 0; t < Steps; t++ {
				at := t*plane + cell
				for m, member := range members {
					scratch[m] = member[at]
				}
				data[(x*Width+y)*Steps+t] = reduceMembers(scratch[:])
			}
		}
	}

	return data, nil
}

// reduceMembers sorts the member values in place and scales the rank pick
// to mm/hr.
func reduceMembers(values []uint16) float32 {
	slices.Sort(values)
	return float32(values[ensembleRank]) * 0.01
}
