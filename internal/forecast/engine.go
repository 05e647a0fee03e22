// Package forecast composes the loaded dataset, the grid projector, and
// the postcode index into the query engine used by the serving layer.
//
// Everything the engine owns is immutable after construction, so all
// lookups are pure, allocation-light, and safe under arbitrary
// concurrency without locks.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rainmaps/raincast/internal/dataset"
	"github.com/rainmaps/raincast/internal/grid"
	"github.com/rainmaps/raincast/internal/postcode"
)

// Engine answers point queries against one dataset. Replacing the dataset
// means constructing a new engine, never mutating this one.
type Engine struct {
	ds    *dataset.Dataset
	index *postcode.Index // nil when postcode lookups are disabled
	proj  grid.Projector
	clock clockwork.Clock
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock swaps the time source, for deterministic tests.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New builds an engine over a loaded dataset. index may be nil, in which
// case postcode lookups report coverage misses.
func New(ds *dataset.Dataset, index *postcode.Index, opts ...Option) *Engine {
	e := &Engine{
		ds:    ds,
		index: index,
		proj:  grid.NewProjector(),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ByCoordinates resolves a WGS-84 point to its cell's prediction.
func (e *Engine) ByCoordinates(lat, lon float64) (dataset.Prediction, bool) {
	offset, ok := e.proj.ToOffset(lat, lon)
	if !ok {
		return nil, false
	}
	return e.ds.At(offset)
}

// ByPostcode resolves a 6-character postcode, case-insensitively.
func (e *Engine) ByPostcode(code string) (dataset.Prediction, bool) {
	if e.index == nil || len(code) != postcode.KeyLen {
		return nil, false
	}
	_, offset, ok := e.index.Search(code)
	if !ok {
		return nil, false
	}
	return e.ds.At(int(offset))
}

// ByPostcode4 resolves a 4-digit area code to its representative cell.
func (e *Engine) ByPostcode4(code string) (dataset.Prediction, bool) {
	if e.index == nil {
		return nil, false
	}
	offset, ok := e.index.GetPrefix4(code)
	if !ok {
		return nil, false
	}
	return e.ds.At(int(offset))
}

// ByOffset resolves a raw cell offset.
func (e *Engine) ByOffset(offset int) (dataset.Prediction, bool) {
	return e.ds.At(offset)
}

// HasPostcodeIndex reports whether postcode lookups are available.
func (e *Engine) HasPostcodeIndex() bool { return e.index != nil }

// CreatedAt is the dataset's creation time.
func (e *Engine) CreatedAt() time.Time { return e.ds.CreatedAt }

// Filename is the dataset's source filename.
func (e *Engine) Filename() string { return e.ds.Filename }

// Kind is the dataset's source product.
func (e *Engine) Kind() dataset.ModelKind { return e.ds.Kind }

// CurrentSlot maps the current time to a forecast slot, or a
// StaleDatasetError when the dataset no longer covers now.
func (e *Engine) CurrentSlot() (int, error) {
	return SlotFor(e.ds.CreatedAt, e.clock.Now())
}

// CheckReadiness reports an error while the dataset is outside its
// validity window, so load balancers stop routing to a stale instance.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if _, err := e.CurrentSlot(); err != nil {
		return fmt.Errorf("dataset %s: %w", e.ds.Filename, err)
	}
	return nil
}
