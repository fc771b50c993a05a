package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"logpanel/internal/dashboard"
	"logpanel/internal/demo"
	"logpanel/internal/filter"
	"logpanel/internal/format"
	"logpanel/internal/ingest"
	"logpanel/internal/menu"
	"logpanel/internal/persist"
	"logpanel/internal/view"
)

func newMenuCmd() *cobra.Command {
	var (
		formatFlag string
		byCategory bool
		search     string
		favorites  bool
	)

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Show the navigation menu built from the page routes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if favorites {
				for _, p := range menu.NewCatalog(menu.DefaultProducts()).Favorites() {
					if _, err := fmt.Fprintf(out, "%s\t%s\n", p.Title, p.Path); err != nil {
						return err
					}
				}
				return nil
			}

			items := menu.BuildMenu(menu.DefaultRoutes())
			if search != "" {
				items = menu.Search(items, search)
			}
			if byCategory {
				return format.WriteMenuGroups(out, menu.GroupByCategory(items), formatFlag)
			}
			return format.WriteMenu(out, items, formatFlag)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, or json")
	flags.BoolVar(&byCategory, "category", false, "group top-level items by category")
	flags.StringVar(&search, "search", "", "show items whose title, description or keywords contain the keyword")
	flags.BoolVar(&favorites, "favorites", false, "list favorite products instead of the menu")

	return cmd
}

func newDashboardCmd() *cobra.Command {
	var (
		refreshes  int
		reset      bool
		toggleAuto bool
		formatFlag string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Refresh and print the mock dashboard, persisting its state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			dash := dashboard.New(dashboard.WithKV(a.kv), dashboard.WithLogger(a.log))
			if reset {
				dash.Reset()
			} else {
				dash.Initialize(ctx)
			}
			for i := 1; i < refreshes; i++ {
				dash.Refresh()
			}
			if toggleAuto {
				dash.ToggleAutoRefresh()
			}
			if err := dash.Save(ctx); err != nil {
				return fmt.Errorf("save dashboard: %w", err)
			}
			return format.WriteDashboard(cmd.OutOrStdout(), dash.View(), formatFlag, a.loc)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&refreshes, "refresh", 1, "number of refresh cycles to run")
	flags.BoolVar(&reset, "reset", false, "restore the default statistics instead of refreshing")
	flags.BoolVar(&toggleAuto, "toggle-auto-refresh", false, "flip the persisted auto refresh setting")
	flags.StringVar(&formatFlag, "format", "table", "output format: table or json")

	return cmd
}

func newDemoCmd() *cobra.Command {
	var (
		samplesArg string
		modeArg    string
		mockAPI    time.Duration
		monitor    time.Duration
		output     string
		formatFlag string
		maxEntries int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate sample logs and run the demo simulations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			ctrl := a.newController()
			defer ctrl.Detach()
			logs := ctrl.Store()

			dc := a.cfg.Demo
			d := demo.New(logs,
				demo.WithKV(a.kv),
				demo.WithLogger(a.log),
				demo.WithPanel(ctrl),
				demo.WithAPIMock(demo.APIMockConfig{
					Endpoint:     dc.APIMock.Endpoint,
					Method:       dc.APIMock.Method,
					SuccessRate:  dc.APIMock.SuccessRate,
					ResponseTime: dc.APIMock.ResponseTime,
				}),
				demo.WithMonitoring(demo.MonitoringConfig{
					Interval:       dc.Monitoring.Interval,
					Metrics:        dc.Monitoring.Metrics,
					AlertThreshold: dc.Monitoring.AlertThreshold,
				}),
			)
			defer d.Close()
			_, persisted, err := a.kv.Get(ctx, persist.KeyDemo)
			if err != nil {
				return fmt.Errorf("read demo state: %w", err)
			}
			d.Initialize(ctx)

			// --mode wins over the saved mode, which wins over demo.mode.
			switch {
			case modeArg != "":
			case persisted:
				modeArg = string(d.CurrentMode())
			default:
				modeArg = dc.Mode
			}
			mode, err := demo.ParseMode(modeArg)
			if err != nil {
				return err
			}
			if err := d.SwitchMode(mode); err != nil {
				return err
			}

			for _, id := range filter.SplitList(samplesArg) {
				if !d.GenerateSampleLogs(id) {
					return fmt.Errorf("unknown sample %q", id)
				}
			}

			if err := runSimulations(ctx, d, mockAPI, monitor); err != nil {
				return err
			}
			if err := d.Save(ctx); err != nil {
				return fmt.Errorf("save demo state: %w", err)
			}

			if output != "" {
				if err := ingest.WriteFile(output, logs.Logs()); err != nil {
					return err
				}
				a.log.Info("demo logs written", "path", output, "count", logs.LogCount())
			}

			return view.Run(view.Options{
				Entries:       logs.Logs(),
				Format:        formatFlag,
				MaxEntries:    maxEntries,
				IncludeHeader: true,
				NoPager:       true,
				Location:      a.loc,
				Out:           cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&samplesArg, "sample", "system,user,api,error", "comma-separated samples to generate")
	flags.StringVar(&modeArg, "mode", "", "demo mode: basic, advanced, or integration (default: demo.mode)")
	flags.DurationVar(&mockAPI, "mock-api", 0, "run the mock API simulation for the given duration")
	flags.DurationVar(&monitor, "monitor", 0, "run the system monitoring simulation for the given duration")
	flags.StringVar(&output, "output", "", "also write the buffer to the given JSON Lines file")
	flags.StringVar(&formatFlag, "format", "table", "output format: text, table, plain, json, or jsonl")
	flags.IntVar(&maxEntries, "max", 0, "show only the most recent N entries (0 means no limit)")

	return cmd
}

// runSimulations runs each enabled simulation for its duration. Cancelling
// ctx stops both early.
func runSimulations(ctx context.Context, d *demo.Store, mockAPI, monitor time.Duration) error {
	if mockAPI < 0 || monitor < 0 {
		return errors.New("simulation durations must not be negative")
	}
	longest := max(mockAPI, monitor)
	if longest == 0 {
		return nil
	}

	if mockAPI > 0 && d.StartAPIMocking(ctx) {
		stop := time.AfterFunc(mockAPI, d.StopAPIMocking)
		defer stop.Stop()
	}
	if monitor > 0 && d.StartMonitoring(ctx) {
		stop := time.AfterFunc(monitor, d.StopMonitoring)
		defer stop.Stop()
	}

	timer := time.NewTimer(longest)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	d.StopAPIMocking()
	d.StopMonitoring()
	return nil
}

