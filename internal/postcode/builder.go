package postcode

import (
	"fmt"
	"io"
	"sort"

	"github.com/blevesearch/vellum"
)

// Entry is one postcode with the cell offset of its representative point.
type Entry struct {
	Code   string
	Offset uint64
}

// Build writes an index blob for the given entries. Entries are sorted by
// code before insertion; duplicate or malformed codes are rejected.
func Build(w io.Writer, entries []Entry) error {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })

	b, err := vellum.New(w, nil)
	if err != nil {
		return fmt.Errorf("postcode index builder: %w", err)
	}

	prev := ""
	for _, e := range entries {
		if err := validateCode(e.Code); err != nil {
			return err
		}
		if e.Code == prev {
			return fmt.Errorf("duplicate postcode %q", e.Code)
		}
		if err := b.Insert([]byte(e.Code), e.Offset); err != nil {
			return fmt.Errorf("insert %q: %w", e.Code, err)
		}
		prev = e.Code
	}

	return b.Close()
}

func validateCode(code string) error {
	if len(code) != KeyLen {
		return fmt.Errorf("postcode %q: want %d characters", code, KeyLen)
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		digit := '0' <= c && c <= '9'
		letter := 'A' <= c && c <= 'Z'
		if i < 4 && !digit {
			return fmt.Errorf("postcode %q: want 4 leading digits", code)
		}
		if i >= 4 && !letter {
			return fmt.Errorf("postcode %q: want 2 trailing uppercase letters", code)
		}
	}
	return nil
}
