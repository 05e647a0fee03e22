// Command postcode-index builds the postcode lookup index from a tree of
// GeoJSON boundary files. Each feature's name property is the postcode
// and the first vertex of its boundary anchors the postcode to a grid
// cell. The resulting index file is served via POSTCODE_INDEX_PATH.
//
// Usage:
//
//	go run ./cmd/postcode-index -data-dir ./postcode-boundaries -out postcodes.fst
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rainmaps/raincast/internal/grid"
	"github.com/rainmaps/raincast/internal/postcode"
)

func main() {
	dataDir := flag.String("data-dir", "", "directory tree of GeoJSON boundary files")
	out := flag.String("out", "postcodes.fst", "output index file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *dataDir == "" {
		logger.Error("-data-dir is required")
		os.Exit(2)
	}

	entries, skipped, err := collect(*dataDir)
	if err != nil {
		logger.Error("collecting postcodes failed", "error", err)
		os.Exit(1)
	}
	if skipped > 0 {
		logger.Warn("skipped features", "count", skipped)
	}

	f, err := os.Create(*out)
	if err != nil {
		logger.Error("creating output failed", "error", err)
		os.Exit(1)
	}

	if err := postcode.Build(f, entries); err != nil {
		f.Close() //nolint:errcheck
		logger.Error("building index failed", "error", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		logger.Error("closing output failed", "error", err)
		os.Exit(1)
	}

	logger.Info("index written", "path", *out, "postcodes", len(entries))
}

type featureCollection struct {
	Features []struct {
		Properties struct {
			Name string `json:"name"`
		} `json:"properties"`
		Geometry struct {
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// collect walks the boundary tree and anchors every postcode to a grid
// offset. Features with malformed names or vertices outside the grid are
// skipped and counted.
func collect(dir string) ([]postcode.Entry, int, error) {
	proj := grid.NewProjector()

	var entries []postcode.Entry
	skipped := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".geojson") && !strings.HasSuffix(path, ".json") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var fc featureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, feat := range fc.Features {
			code := strings.ToUpper(strings.ReplaceAll(feat.Properties.Name, " ", ""))
			lon, lat, ok := firstVertex(feat.Geometry.Coordinates)
			if !ok || len(code) != postcode.KeyLen {
				skipped++
				continue
			}
			offset, ok := proj.ToOffset(lat, lon)
			if !ok {
				skipped++
				continue
			}
			entries = append(entries, postcode.Entry{Code: code, Offset: uint64(offset)})
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, skipped, nil
}

// firstVertex digs to the first lon/lat pair regardless of whether the
// geometry is a Polygon or MultiPolygon.
func firstVertex(raw json.RawMessage) (lon, lat float64, ok bool) {
	for {
		var pair []float64
		if err := json.Unmarshal(raw, &pair); err == nil && len(pair) >= 2 {
			return pair[0], pair[1], true
		}

		var nested []json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil || len(nested) == 0 {
			return 0, 0, false
		}
		raw = nested[0]
	}
}
