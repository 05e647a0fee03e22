package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ModelKind selects the source product: filename pattern, timestamp mask,
// and ingestion algorithm.
type ModelKind int

const (
	KindSimple ModelKind = iota
	KindEnsemble
)

var (
	// ErrNoFileFound is returned when a directory scan matches no data file.
	ErrNoFileFound = errors.New("no data file found in directory")

	// ErrUnknownKind is returned when a filename matches no known product.
	ErrUnknownKind = errors.New("model kind not recognized")
)

func (k ModelKind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindEnsemble:
		return "ensemble"
	default:
		return fmt.Sprintf("ModelKind(%d)", int(k))
	}
}

// ParseKind parses a configuration value into a ModelKind.
func ParseKind(s string) (ModelKind, error) {
	switch strings.ToLower(s) {
	case "simple":
		return KindSimple, nil
	case "ensemble":
		return KindEnsemble, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

const (
	simplePrefix   = "RAD_NL25_RAC_FM_"
	ensemblePrefix = "KNMI_PYSTEPS_BLEND_ENS_"

	// timestampLayout matches the 12-digit stamp embedded between the
	// kind's prefix and extension. The stamp is parsed in isolation: the
	// prefixes contain digits ("NL25"), which a full-filename layout would
	// misread as date tokens.
	timestampLayout = "200601021504"
)

// filenameAffixes returns the prefix and extension surrounding the
// timestamp in the kind's filenames.
func (k ModelKind) filenameAffixes() (prefix, ext string) {
	switch k {
	case KindEnsemble:
		return ensemblePrefix, ".nc"
	default:
		return simplePrefix, ".h5"
	}
}

// GuessKind recognizes a data file by its name prefix and extension.
func GuessKind(path string) (ModelKind, bool) {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, simplePrefix) && filepath.Ext(name) == ".h5":
		return KindSimple, true
	case strings.HasPrefix(name, ensemblePrefix) && filepath.Ext(name) == ".nc":
		return KindEnsemble, true
	default:
		return 0, false
	}
}

// ParseTimestamp extracts the UTC creation time embedded in a data filename.
func ParseTimestamp(filename string, kind ModelKind) (time.Time, error) {
	prefix, ext := kind.filenameAffixes()
	stamp, ok := strings.CutPrefix(filename, prefix)
	if ok {
		stamp, ok = strings.CutSuffix(stamp, ext)
	}
	if !ok {
		return time.Time{}, fmt.Errorf("timestamp in %q: want %s<%s>%s", filename, prefix, timestampLayout, ext)
	}
	ts, err := time.ParseInLocation(timestampLayout, stamp, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp in %q: %w", filename, err)
	}
	return ts, nil
}

// MostRecentFile returns the most recent data file of any kind in dir.
// Filenames embed a zero-padded timestamp, so lexicographic order equals
// chronological order and the maximum wins.
func MostRecentFile(dir string) (string, error) {
	return scanDir(dir, func(ModelKind) bool { return true })
}

// MostRecentFileOfKind is MostRecentFile restricted to one product.
func MostRecentFileOfKind(dir string, kind ModelKind) (string, error) {
	return scanDir(dir, func(k ModelKind) bool { return k == kind })
}

func scanDir(dir string, want func(ModelKind) bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", dir, err)
	}

	best := ""
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		k, ok := GuessKind(e.Name())
		if !ok || !want(k) {
			continue
		}
		if e.Name() > best {
			best = e.Name()
		}
	}
	if best == "" {
		return "", fmt.Errorf("scan %s: %w", dir, ErrNoFileFound)
	}
	return filepath.Join(dir, best), nil
}
