package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"logpanel/internal/clipboard"
	"logpanel/internal/export"
	"logpanel/internal/filter"
	"logpanel/internal/format"
	"logpanel/internal/model"
	"logpanel/internal/view"
)

// filterFlags are the filter criteria shared by view and export.
type filterFlags struct {
	levels     string
	categories string
	sources    string
	keyword    string
	since      string
	until      string
	preset     string
}

// register adds the filter flags. Aliases add --start/--end for the time
// bounds; export uses those names for its own date range.
func (f *filterFlags) register(cmd *cobra.Command, aliases bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.levels, "level", "", "comma-separated levels to include: debug, info, warn, error")
	flags.StringVar(&f.categories, "category", "", "comma-separated categories to include")
	flags.StringVar(&f.sources, "source", "", "comma-separated sources to include")
	flags.StringVar(&f.keyword, "keyword", "", "case-insensitive keyword matched against message, category and source")
	flags.StringVar(&f.since, "since", "", "include entries on/after the given RFC3339 timestamp or epoch milliseconds")
	flags.StringVar(&f.until, "until", "", "include entries on/before the given RFC3339 timestamp or epoch milliseconds")
	flags.StringVar(&f.preset, "preset", "", "filter preset: "+strings.Join(filter.PresetNames(), ", "))
	if aliases {
		flags.StringVar(&f.since, "start", "", "alias of --since")
		flags.StringVar(&f.until, "end", "", "alias of --until")
	}
}

func (f filterFlags) query() filter.Query {
	return filter.Query{
		Levels:     f.levels,
		Categories: f.categories,
		Sources:    f.sources,
		Keyword:    f.keyword,
		Start:      f.since,
		End:        f.until,
		Preset:     f.preset,
	}
}

func newViewCmd() *cobra.Command {
	var (
		input        string
		filters      filterFlags
		maxEntries   int
		wrap         int
		formatFlag   string
		noHeader     bool
		noPager      bool
		forceColor   bool
		forceNoColor bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Render buffered log entries matching the given filters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}
			engine, err := filters.query().Build()
			if err != nil {
				return err
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl := a.newController()
			defer ctrl.Detach()
			if err := a.importFile(cmd, ctrl.Store(), input); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return view.Run(view.Options{
				Entries:       engine.Apply(ctrl.Store().Logs()),
				Format:        formatFlag,
				Wrap:          wrap,
				MaxEntries:    maxEntries,
				IncludeHeader: !noHeader,
				ForceColor:    forceColor,
				ForceNoColor:  forceNoColor,
				NoPager:       noPager,
				Location:      a.loc,
				Out:           out,
				OutFile:       outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "", "JSON Lines log file to load")
	filters.register(cmd, true)
	flags.IntVar(&maxEntries, "max", 0, "show only the most recent N entries (0 means no limit)")
	flags.IntVar(&wrap, "wrap", 0, "wrap message body at the given column width")
	flags.StringVar(&formatFlag, "format", "text", "output format: text, table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row for table and plain output")
	flags.BoolVar(&noPager, "no-pager", false, "do not pipe text output through $PAGER")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		input          string
		formatFlag     string
		includeDetails bool
		levelsArg      string
		startArg       string
		endArg         string
		filtered       bool
		filters        filterFlags
		outDir         string
		base           string
		compressArg    string
		copyText       bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export log entries as JSON, CSV or text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			exportFormat, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			compression, err := export.ParseCompression(compressArg)
			if err != nil {
				return err
			}
			levels, err := model.ParseLevelList(levelsArg)
			if err != nil {
				return err
			}
			dateRange, err := parseDateRange(startArg, endArg)
			if err != nil {
				return err
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl := a.newController()
			defer ctrl.Detach()
			logs := ctrl.Store()
			if err := a.importFile(cmd, logs, input); err != nil {
				return err
			}

			entries := logs.Logs()
			if filtered {
				engine, err := filters.query().Build()
				if err != nil {
					return err
				}
				ctrl.Filter().SetFilter(engine.Filter())
				entries = ctrl.FilteredLogs()
			}

			content, err := export.Logs(entries, export.Options{
				Format:         exportFormat,
				IncludeDetails: includeDetails,
				Levels:         levels,
				DateRange:      dateRange,
				Location:       a.loc,
			})
			if err != nil {
				return err
			}

			if copyText {
				if clipboard.Copy(cmd.Context(), content) {
					fmt.Fprintln(cmd.ErrOrStderr(), "copied to clipboard") //nolint:errcheck
				} else {
					a.log.Warn("copy to clipboard failed")
				}
			}

			if outDir == "-" {
				return export.Encode(cmd.OutOrStdout(), content, compression)
			}
			if outDir == "" {
				outDir = a.cfg.Export.Dir
			}
			if base == "" {
				base = a.cfg.Export.Base
			}
			path, err := export.WriteArtifact(outDir, export.NewArtifact(base, exportFormat, content, timeNow()), compression)
			if err != nil {
				return err
			}
			a.log.Info("logs exported", "path", path, "format", exportFormat)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "", "JSON Lines log file to load")
	flags.StringVar(&formatFlag, "format", "json", "export format: json, csv, or txt")
	flags.BoolVar(&includeDetails, "include-details", false, "include entry details in csv and txt output")
	flags.StringVar(&levelsArg, "levels", "", "comma-separated levels to export (default: all)")
	flags.StringVar(&startArg, "start", "", "export entries on/after the given RFC3339 timestamp or epoch milliseconds")
	flags.StringVar(&endArg, "end", "", "export entries on/before the given RFC3339 timestamp or epoch milliseconds")
	flags.BoolVar(&filtered, "filtered", false, "export only entries matching the filter flags")
	filters.register(cmd, false)
	flags.StringVar(&outDir, "out", "", "output directory, or - for stdout (default: export.dir)")
	flags.StringVar(&base, "base", "", "file name prefix (default: export.base)")
	flags.StringVar(&compressArg, "compress", "none", "compression: none, gzip, or zstd")
	flags.BoolVar(&copyText, "copy", false, "also copy the export to the clipboard")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// parseDateRange builds an inclusive range; a missing bound stays open.
func parseDateRange(startArg, endArg string) (*export.DateRange, error) {
	start, err := filter.ParseTime(startArg)
	if err != nil {
		return nil, fmt.Errorf("invalid --start value: %w", err)
	}
	end, err := filter.ParseTime(endArg)
	if err != nil {
		return nil, fmt.Errorf("invalid --end value: %w", err)
	}
	if start == nil && end == nil {
		return nil, nil
	}
	r := &export.DateRange{Start: math.MinInt64, End: math.MaxInt64}
	if start != nil {
		r.Start = *start
	}
	if end != nil {
		r.End = *end
	}
	return r, nil
}

func newStatsCmd() *cobra.Command {
	var (
		input      string
		formatFlag string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count buffered entries per level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl := a.newController()
			defer ctrl.Detach()
			if err := a.importFile(cmd, ctrl.Store(), input); err != nil {
				return err
			}
			return format.WriteStats(cmd.OutOrStdout(), ctrl.Store().LogStats(), formatFlag)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "", "JSON Lines log file to load")
	flags.StringVar(&formatFlag, "format", "table", "output format: table or json")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newPanelCmd() *cobra.Command {
	var (
		input        string
		open         bool
		forceNoColor bool
	)

	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Open the interactive log panel (l toggles, q quits)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl := a.newController()
			defer ctrl.Detach()
			if err := a.importFile(cmd, ctrl.Store(), input); err != nil {
				return err
			}
			if open {
				ctrl.Open()
			}

			color := !forceNoColor && os.Getenv("NO_COLOR") == "" && isatty.IsTerminal(os.Stdout.Fd())
			return view.RunPanel(cmd.Context(), ctrl, os.Stdin, os.Stdout, view.SessionOptions{
				Color:     color,
				Location:  a.loc,
				Clipboard: clipboard.New(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "", "JSON Lines log file to load")
	flags.BoolVar(&open, "open", false, "start with the panel open")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors")

	return cmd
}
