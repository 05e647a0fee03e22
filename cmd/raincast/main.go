// Command raincast serves short-term precipitation forecasts for the
// Netherlands.
//
// Usage:
//
//	raincast serve            start the HTTP API
//	raincast lookup <query>   print the forecast for one location and exit
//
// A lookup query is "lat,lon", a 6-character postcode, or a 4-digit
// postcode area.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	httpadapter "github.com/rainmaps/raincast/internal/adapter/http"
	"github.com/rainmaps/raincast/internal/adapter/netcdf"
	"github.com/rainmaps/raincast/internal/config"
	"github.com/rainmaps/raincast/internal/dataset"
	"github.com/rainmaps/raincast/internal/forecast"
	"github.com/rainmaps/raincast/internal/interpreter"
	"github.com/rainmaps/raincast/internal/observability"
	"github.com/rainmaps/raincast/internal/postcode"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: raincast <serve|lookup> [args]")
		os.Exit(2)
	}

	switch os.Args[1] {
	case "serve":
		serve()
	case "lookup":
		lookup(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		os.Exit(2)
	}
}

func serve() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ds, err := loadDataset(cfg, metrics, logger)
	if err != nil {
		logger.Error("dataset ingestion failed", "error", err)
		os.Exit(1)
	}

	// Postcode lookups are feature-flagged via POSTCODE_INDEX_PATH.
	var index *postcode.Index
	if cfg.PostcodeEnabled {
		index, err = postcode.Open(cfg.PostcodeIndexPath)
		if err != nil {
			logger.Error("failed to open postcode index", "path", cfg.PostcodeIndexPath, "error", err)
			os.Exit(1)
		}
		defer index.Close() //nolint:errcheck
		metrics.PostcodeEnabled.Set(1)
		logger.Info("postcode lookups enabled", "path", cfg.PostcodeIndexPath)
	} else {
		logger.Info("postcode lookups disabled")
	}

	engine := forecast.New(ds, index)

	tz, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		logger.Error("invalid display timezone", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, metrics, tz, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func loadDataset(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*dataset.Dataset, error) {
	start := time.Now()

	var (
		ds  *dataset.Dataset
		err error
	)
	if cfg.ModelKind == "auto" {
		ds, err = dataset.LoadFromDir(cfg.DataDir, netcdf.Open)
	} else {
		kind, kerr := dataset.ParseKind(cfg.ModelKind)
		if kerr != nil {
			return nil, kerr
		}
		var path string
		path, err = dataset.MostRecentFileOfKind(cfg.DataDir, kind)
		if err == nil {
			ds, err = dataset.Load(path, kind, netcdf.Open)
		}
	}
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.IngestDuration.Observe(elapsed.Seconds())
	metrics.DatasetCreated.Set(float64(ds.CreatedAt.Unix()))
	logger.Info("dataset loaded",
		"file", ds.Filename,
		"kind", ds.Kind.String(),
		"created_at", ds.CreatedAt,
		"duration", elapsed,
	)
	return ds, nil
}

// lookup loads the freshest dataset and prints the forecast for one
// location, without starting the server.
func lookup(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: raincast lookup <lat,lon | postcode | area>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ds, err := dataset.LoadFromDir(cfg.DataDir, netcdf.Open)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ingest:", err)
		os.Exit(1)
	}

	var index *postcode.Index
	if cfg.PostcodeEnabled {
		if index, err = postcode.Open(cfg.PostcodeIndexPath); err != nil {
			fmt.Fprintln(os.Stderr, "postcode index:", err)
			os.Exit(1)
		}
		defer index.Close() //nolint:errcheck
	}

	engine := forecast.New(ds, index)

	pred, ok := resolve(engine, args[0])
	if !ok {
		fmt.Fprintln(os.Stderr, "no forecast for", args[0])
		os.Exit(1)
	}

	slot, err := engine.CurrentSlot()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tz, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("%s (created %s)\n", ds.Filename, ds.CreatedAt.In(tz).Format("15:04"))
	for _, ev := range interpreter.Events(slot, pred) {
		from := ds.CreatedAt.Add(time.Duration(ev.Start) * 5 * time.Minute).In(tz)
		to := ds.CreatedAt.Add(time.Duration(ev.End) * 5 * time.Minute).In(tz)
		switch ev.Kind {
		case interpreter.Showers:
			fmt.Printf("%s-%s  %s (%d gaps)\n", from.Format("15:04"), to.Format("15:04"), ev.Kind, ev.Gaps)
		default:
			fmt.Printf("%s-%s  %s\n", from.Format("15:04"), to.Format("15:04"), ev.Kind)
		}
	}
}

func resolve(engine *forecast.Engine, query string) (dataset.Prediction, bool) {
	if lat, lon, ok := parseCoordinates(query); ok {
		return engine.ByCoordinates(lat, lon)
	}
	switch len(query) {
	case 6:
		return engine.ByPostcode(query)
	case 4:
		return engine.ByPostcode4(query)
	}
	return nil, false
}

func parseCoordinates(s string) (lat, lon float64, ok bool) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	return lat, lon, err1 == nil && err2 == nil
}
