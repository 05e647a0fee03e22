// Package netcdf adapts the on-disk forecast containers to the ingestion
// Store interface. Both source products are read through one pure-Go
// library: the ensemble files are NetCDF-4 and the radar nowcast files
// are plain HDF5, which shares the same container format.
package netcdf

import (
	"fmt"
	"reflect"

	gonetcdf "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/rainmaps/raincast/internal/dataset"
)

type store struct {
	g api.Group
}

// Open opens a forecast container. It satisfies dataset.Opener.
func Open(path string) (dataset.Store, error) {
	g, err := gonetcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	return &store{g: g}, nil
}

func (s *store) GroupGrid(group, variable string) ([]uint16, error) {
	sub, err := s.g.GetGroup(group)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", group, err)
	}
	defer sub.Close()

	v, err := sub.GetVariable(variable)
	if err != nil {
		return nil, fmt.Errorf("group %s variable %s: %w", group, variable, err)
	}

	flat, dims, err := flattenUint16(v.Values)
	if err != nil {
		return nil, fmt.Errorf("group %s variable %s: %w", group, variable, err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("group %s variable %s: want a 2D grid, got dimensions %v", group, variable, dims)
	}
	return flat, nil
}

func (s *store) SlabCount(variable string) (int, error) {
	vg, err := s.g.GetVarGetter(variable)
	if err != nil {
		return 0, fmt.Errorf("variable %s: %w", variable, err)
	}
	return int(vg.Len()), nil
}

func (s *store) Slab(variable string, i int) ([]uint16, []int, error) {
	vg, err := s.g.GetVarGetter(variable)
	if err != nil {
		return nil, nil, fmt.Errorf("variable %s: %w", variable, err)
	}

	// GetSlice slices the outermost axis only, so a one-element slice
	// yields this index's full slab with a leading dimension of 1.
	raw, err := vg.GetSlice(int64(i), int64(i+1))
	if err != nil {
		return nil, nil, fmt.Errorf("variable %s slab %d: %w", variable, i, err)
	}

	flat, dims, err := flattenUint16(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("variable %s slab %d: %w", variable, i, err)
	}
	if len(dims) < 1 || dims[0] != 1 {
		return nil, nil, fmt.Errorf("variable %s slab %d: unexpected dimensions %v", variable, i, dims)
	}
	return flat, dims[1:], nil
}

func (s *store) Close() error {
	s.g.Close()
	return nil
}

// flattenUint16 flattens the library's nested-slice representation into
// one row-major slice, returning the shape alongside.
func flattenUint16(v any) ([]uint16, []int, error) {
	dims := shape(v)
	if len(dims) == 0 {
		return nil, nil, fmt.Errorf("want slices of uint16, got %T", v)
	}

	total := 1
	for _, d := range dims {
		total *= d
	}

	flat, err := appendLeaves(reflect.ValueOf(v), make([]uint16, 0, total))
	if err != nil {
		return nil, nil, err
	}
	if len(flat) != total {
		return nil, nil, fmt.Errorf("ragged data: got %d values for shape %v", len(flat), dims)
	}
	return flat, dims, nil
}

// shape descends the first element of each nesting level.
func shape(v any) []int {
	var dims []int
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Slice {
		dims = append(dims, rv.Len())
		if rv.Len() == 0 || rv.Type().Elem().Kind() != reflect.Slice {
			break
		}
		rv = rv.Index(0)
	}
	return dims
}

func appendLeaves(rv reflect.Value, out []uint16) ([]uint16, error) {
	if leaf, ok := rv.Interface().([]uint16); ok {
		return append(out, leaf...), nil
	}
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("want slices of uint16, got %T", rv.Interface())
	}
	var err error
	for i := 0; i < rv.Len(); i++ {
		out, err = appendLeaves(rv.Index(i), out)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
