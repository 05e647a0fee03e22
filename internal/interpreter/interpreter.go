// Package interpreter turns a raw per-cell forecast series into the
// rain/dry/shower intervals shown to users.
//
// Interpretation runs in two stages. A tokenizer groups consecutive slots
// into maximal runs of strictly-positive (rain) or zero (dry) values. A
// merge pass then folds short dry interruptions into the surrounding rain:
// without it a single shower fragments into a noisy alternation of
// one-slot rain and dry segments. Dry gaps of a single slot are absorbed
// into the interval and counted; longer dry spells end it.
package interpreter

import "fmt"

// Kind classifies an interval.
type Kind int

const (
	Rain Kind = iota
	Dry
	Showers
)

func (k Kind) String() string {
	switch k {
	case Rain:
		return "rain"
	case Dry:
		return "dry"
	case Showers:
		return "showers"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one user-facing interval over the half-open slot range
// [Start, End). Start and End index the full prediction series, not the
// slice the interpreter was started at, so callers can convert them to
// wall-clock times directly.
type Event struct {
	Kind  Kind
	Start int
	End   int

	// Gaps counts the single-slot dry interruptions absorbed into a
	// Showers interval. Zero for Rain and Dry.
	Gaps int
}

// token is one maximal same-class run produced by the tokenizer.
type token struct {
	start, end int
	dry        bool
}

func (t token) len() int { return t.end - t.start }

func (t token) event() Event {
	kind := Rain
	if t.dry {
		kind = Dry
	}
	return Event{Kind: kind, Start: t.start, End: t.end}
}

// tokenizer yields maximal rain/dry runs in a single forward pass.
// It starts at an offset into the series rather than at a subslice so the
// emitted ranges index the whole prediction.
type tokenizer struct {
	pos   int
	preds []float32
}

func (tz *tokenizer) next() (token, bool) {
	if tz.pos >= len(tz.preds) {
		return token{}, false
	}

	start := tz.pos
	wet := tz.preds[start] > 0
	end := start + 1
	for end < len(tz.preds) && (tz.preds[end] > 0) == wet {
		end++
	}
	tz.pos = end

	return token{start: start, end: end, dry: !wet}, true
}

// Interpreter merges the token stream into intervals. It is a finite,
// non-restartable sequence: call Next until it reports false.
type Interpreter struct {
	src tokenizer

	merge   mergeState
	merging bool

	// stash holds one token of lookahead, emitted verbatim on the next
	// call. Used for a leading dry run (which must not be folded into the
	// following rain) and for the token that terminated a merge.
	stash   token
	stashed bool
}

// New starts interpreting preds at the given slot index.
func New(slot int, preds []float32) *Interpreter {
	it := &Interpreter{src: tokenizer{pos: slot, preds: preds}}

	if tok, ok := it.src.next(); ok {
		if tok.dry {
			it.stash, it.stashed = tok, true
		} else {
			it.merge, it.merging = newMergeState(tok), true
		}
	}

	return it
}

// Next returns the next interval in order.
func (it *Interpreter) Next() (Event, bool) {
	if it.stashed {
		it.stashed = false
		return it.stash.event(), true
	}

	for {
		tok, ok := it.src.next()
		if !ok {
			break
		}

		// A dry run longer than one slot always terminates merging.
		if tok.dry && tok.len() > 1 {
			if it.merging {
				it.merging = false
				it.stash, it.stashed = tok, true
				return it.merge.event(), true
			}
			return tok.event(), true
		}

		if it.merging {
			it.merge.fold(tok)
		} else {
			it.merge, it.merging = newMergeState(tok), true
		}
	}

	if !it.merging {
		return Event{}, false
	}
	it.merging = false

	// A trailing single-slot dry blip must not stay merged: separate it
	// and emit it after the shortened interval.
	if dry, ok := it.merge.undoTrailingDry(); ok {
		it.stash, it.stashed = dry, true
	}
	return it.merge.event(), true
}

// Events runs an interpreter to completion and collects the intervals.
func Events(slot int, preds []float32) []Event {
	var out []Event
	it := New(slot, preds)
	for {
		ev, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, ev)
	}
}

// mergeState accumulates the in-progress interval.
type mergeState struct {
	start, end int
	gaps       int
	lastWasDry bool
}

func newMergeState(tok token) mergeState {
	gaps := 0
	if tok.dry {
		gaps = 1
	}
	return mergeState{start: tok.start, end: tok.end, gaps: gaps}
}

func (m *mergeState) fold(tok token) {
	m.lastWasDry = false
	if tok.dry {
		m.gaps++
		m.lastWasDry = true
	}
	m.end = tok.end
}

// undoTrailingDry un-merges the last folded token if it was a single-slot
// dry blip, returning the separated dry token.
func (m *mergeState) undoTrailingDry() (token, bool) {
	if !m.lastWasDry {
		return token{}, false
	}
	m.gaps--
	m.lastWasDry = false
	m.end--
	return token{start: m.end, end: m.end + 1, dry: true}, true
}

func (m mergeState) event() Event {
	length := m.end - m.start
	switch {
	case length == 1 && m.gaps == 1:
		return Event{Kind: Dry, Start: m.start, End: m.end}
	case m.gaps == 0 || length == 1:
		return Event{Kind: Rain, Start: m.start, End: m.end}
	default:
		return Event{Kind: Showers, Start: m.start, End: m.end, Gaps: m.gaps}
	}
}
