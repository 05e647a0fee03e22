// Package postcode resolves Dutch postal codes to dataset cell offsets.
//
// The index is a minimal ordered transducer (FST) built offline by
// cmd/postcode-index from municipal PC6 geometry. Keys are 6-character
// uppercase codes ("1017CE"), values are u64 cell offsets into the
// forecast dataset. Keys are unique and lexicographically sorted, which
// both the transducer and the prefix-4 range trick rely on.
package postcode

import (
	"fmt"

	"github.com/blevesearch/vellum"
)

// KeyLen is the length of every stored key: 4 digits + 2 letters.
const KeyLen = 6

// Index is an immutable postcode-to-offset map. Safe for concurrent use.
type Index struct {
	fst *vellum.FST
}

// Open memory-maps an index blob from disk.
func Open(path string) (*Index, error) {
	fst, err := vellum.Open(path)
	if err != nil {
		return nil, fmt.Errorf("postcode index %s: %w", path, err)
	}
	return &Index{fst: fst}, nil
}

// Load reads an index blob from memory, mainly for tests.
func Load(data []byte) (*Index, error) {
	fst, err := vellum.Load(data)
	if err != nil {
		return nil, fmt.Errorf("postcode index: %w", err)
	}
	return &Index{fst: fst}, nil
}

// Close releases the underlying mapping.
func (ix *Index) Close() error {
	return ix.fst.Close()
}

// GetExact looks up a 6-character uppercase code. An unknown code is a
// coverage miss, not an error.
func (ix *Index) GetExact(code string) (uint64, bool) {
	v, ok, err := ix.fst.Get([]byte(code))
	if err != nil || !ok {
		return 0, false
	}
	return v, true
}

// GetPrefix4 resolves a 4-digit area code to one representative cell: the
// offset of the lexicographically smallest stored key strictly greater
// than the query. Every stored key is 6 characters, so any key in the area
// sorts directly after the 4-character query; if the first such key does
// not start with the query, the area has no entries.
func (ix *Index) GetPrefix4(code string) (uint64, bool) {
	if len(code) != KeyLen-2 {
		return 0, false
	}
	itr, err := ix.fst.Iterator([]byte(code), nil)
	if err != nil {
		return 0, false
	}
	key, v := itr.Current()
	if len(key) != KeyLen || string(key[:len(code)]) != code {
		return 0, false
	}
	return v, true
}

// Search matches a code case-insensitively against the uppercase keys,
// returning the matched key and its offset. A query shorter than KeyLen
// matches the first key it is a prefix of.
func (ix *Index) Search(code string) (string, uint64, bool) {
	itr, err := ix.fst.Search(upperMatcher(code), nil, nil)
	if err != nil {
		return "", 0, false
	}
	key, v := itr.Current()
	return string(key), v, true
}

// upperMatcher is a byte automaton walking the query against stored keys,
// upper-casing each query byte before comparing. The state is the number
// of query bytes consumed; -1 is the dead state. Once the whole query has
// been consumed every continuation matches (prefix closure).
type upperMatcher string

func (m upperMatcher) Start() int { return 0 }

func (m upperMatcher) IsMatch(s int) bool { return s == len(m) }

func (m upperMatcher) CanMatch(s int) bool { return s >= 0 }

func (m upperMatcher) WillAlwaysMatch(s int) bool { return s == len(m) }

func (m upperMatcher) Accept(s int, b byte) int {
	if s < 0 {
		return -1
	}
	if s >= len(m) {
		return s
	}
	c := m[s]
	if 'a' <= c && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c != b {
		return -1
	}
	return s + 1
}
