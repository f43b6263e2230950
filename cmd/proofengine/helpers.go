package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/proofengine/internal/catalog"
	"github.com/gyaneshwarpardhi/proofengine/internal/config"
	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
	"github.com/gyaneshwarpardhi/proofengine/internal/logging"
	"github.com/gyaneshwarpardhi/proofengine/internal/proof"
	"github.com/gyaneshwarpardhi/proofengine/internal/report"
	"github.com/gyaneshwarpardhi/proofengine/internal/store"
)

// app bundles what every engine-backed subcommand needs.
type app struct {
	loader *config.Loader
	store  *store.SqlStore
	engine *proof.Engine
}

func (a *app) Close() error {
	return a.store.Close()
}

// loadCatalog reads, validates and compiles the catalog file.
func loadCatalog(path string) (*config.Loader, *catalog.Catalog, error) {
	loader, err := config.NewLoader(path)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(loader.Config()); err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Build(loader.Config())
	if err != nil {
		return nil, nil, fmt.Errorf("build catalog: %w", err)
	}
	return loader, cat, nil
}

func openApp() (*app, error) {
	loader, cat, err := loadCatalog(rootFlags.configPath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(rootFlags.dbPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New("proof")
	eng := proof.New(cat, st, loader.Config().Engine, proof.WithLogger(logger))
	logger.Debug("engine ready", "queries", cat.Len(), "db", rootFlags.dbPath)
	return &app{loader: loader, store: st, engine: eng}, nil
}

// rangeFlags are shared by the query, regulation and summary commands.
type rangeFlags struct {
	from   string
	to     string
	output string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.from, "from", "", "Window start (RFC3339 or YYYY-MM-DD); default 12 months before --to")
	fl.StringVar(&f.to, "to", "", "Window end (RFC3339 or YYYY-MM-DD); default now")
	fl.StringVarP(&f.output, "output", "o", "table", "Output: table, markdown or json")
}

func (f *rangeFlags) timeRange() (*evidence.TimeRange, error) {
	if f.from == "" && f.to == "" {
		return nil, nil
	}
	var tr evidence.TimeRange
	var err error
	if f.from != "" {
		if tr.From, err = parseTime(f.from); err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
	}
	if f.to != "" {
		if tr.To, err = parseTime(f.to); err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
	}
	if f.from != "" && f.to != "" {
		if err := tr.Validate(); err != nil {
			return nil, err
		}
	}
	return &tr, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// emit writes v as indented JSON or hands it to render.
func emit(w io.Writer, output string, v interface{}, render func(report.Mode) string) error {
	if strings.EqualFold(output, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	mode, err := report.ParseMode(output)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, render(mode))
	return err
}

func closeQuietly(c io.Closer, what string) {
	if err := c.Close(); err != nil {
		slog.Warn("close failed", "what", what, "err", err)
	}
}
