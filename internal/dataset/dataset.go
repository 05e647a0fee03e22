package dataset

import (
	"fmt"
	"time"
)

// Grid dimensions shared by both source products.
const (
	Width  = 700
	Height = 765

	// Steps is the number of 5-minute forecast slots, spanning 2 hours.
	Steps = 25

	// MaxOffset is the largest valid cell offset into the flat array.
	MaxOffset = Width*Height*Steps - Steps
)

// Prediction is a read-only view of the Steps consecutive values for one
// grid cell, in mm/hr, starting at the dataset's creation time.
type Prediction []float32

// Dataset is one fully loaded forecast: the flat cell-major array plus the
// provenance needed to interpret it. Immutable after construction.
type Dataset struct {
	Kind      ModelKind
	CreatedAt time.Time
	Filename  string

	data []float32
}

// New wraps a flat Width*Height*Steps array. The caller must not write to
// data afterwards.
func New(kind ModelKind, createdAt time.Time, filename string, data []float32) (*Dataset, error) {
	if len(data) != Width*Height*Steps {
		return nil, fmt.Errorf("dataset: got %d values, want %d", len(data), Width*Height*Steps)
	}
	return &Dataset{Kind: kind, CreatedAt: createdAt, Filename: filename, data: data}, nil
}

// At returns the prediction starting at the given cell offset, or false if
// the offset is not a valid multiple-of-Steps index into the array.
func (d *Dataset) At(offset int) (Prediction, bool) {
	if offset < 0 || offset > MaxOffset || offset%Steps != 0 {
		return nil, false
	}
	return Prediction(d.data[offset : offset+Steps : offset+Steps]), true
}
