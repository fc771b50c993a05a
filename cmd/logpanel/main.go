// Package main provides the logpanel CLI for browsing, filtering and exporting
// application logs.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"logpanel/internal/config"
	"logpanel/internal/filter"
	"logpanel/internal/ingest"
	"logpanel/internal/logger"
	"logpanel/internal/panel"
	"logpanel/internal/persist"
	"logpanel/internal/store"
)

var version = "dev"

// timeNow is replaced in tests.
var timeNow = time.Now

var (
	configPath    string
	logLevel      string
	logFormat     string
	storageDriver string
	storagePath   string
)

var rootCmd = &cobra.Command{
	Use:           "logpanel",
	Short:         "Browse, filter and export application logs",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default: ./logpanel.{yaml,json,toml} when present)")
	flags.StringVar(&logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error (env: LOGPANEL_LOG_LEVEL)")
	flags.StringVar(&logFormat, "log-format", "", "diagnostic log format: text or json (env: LOGPANEL_LOG_FORMAT)")
	flags.StringVar(&storageDriver, "storage", "", "state storage: memory or sqlite (env: LOGPANEL_STORAGE_DRIVER)")
	flags.StringVar(&storagePath, "storage-path", "", "sqlite database path (env: LOGPANEL_STORAGE_PATH)")

	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newPanelCmd())
	rootCmd.AddCommand(newMenuCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newServeCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logpanel: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app holds what every subcommand needs: configuration, diagnostics and the
// state store.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	kv     persist.KV
	closer io.Closer
	loc    *time.Location
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	if storageDriver != "" {
		cfg.Storage.Driver = storageDriver
	}
	if storagePath != "" {
		cfg.Storage.Path = storagePath
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})

	loc, err := cfg.Export.Location()
	if err != nil {
		return nil, err
	}
	kv, closer, err := persist.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	log.Debug("storage opened", "driver", cfg.Storage.Driver)
	return &app{cfg: cfg, log: log, kv: kv, closer: closer, loc: loc}, nil
}

func (a *app) Close() {
	if err := a.closer.Close(); err != nil {
		a.log.Warn("close storage", "error", err)
	}
}

func (a *app) panelConfig() panel.Config {
	p := a.cfg.Panel
	return panel.Config{
		Width:         p.Width,
		Temporary:     p.Temporary,
		Color:         p.Color,
		Dark:          p.Dark,
		MaxLogs:       p.MaxLogs,
		AutoScroll:    p.AutoScroll,
		ShowTimestamp: p.ShowTimestamp,
		ShowCategory:  p.ShowCategory,
		ShowSource:    p.ShowSource,
	}
}

// newController builds a buffer capped at panel.maxlogs and a closed panel
// over it.
func (a *app) newController() *panel.Controller {
	logs := store.New(a.cfg.Panel.MaxLogs)
	return panel.New(logs, filter.New(), a.panelConfig())
}

// importFile loads path into logs. Malformed records are reported as
// warnings on errOut.
func (a *app) importFile(cmd *cobra.Command, logs *store.Store, path string) error {
	if path == "" {
		return nil
	}
	res, err := ingest.ReadFile(path)
	if err != nil {
		return err
	}
	errs := cmd.ErrOrStderr()
	for _, warn := range res.Warnings {
		fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
	}
	logs.Import(res.Entries)
	if dropped := len(res.Entries) - logs.LogCount(); dropped > 0 {
		a.log.Warn("buffer cap reached, oldest entries dropped", "dropped", dropped, "maxLogs", logs.MaxLogs())
	}
	return nil
}
