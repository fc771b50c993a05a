// Package format renders log entries, statistics, menus and dashboards for the
// terminal and for machine consumption.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"logpanel/internal/export"
	"logpanel/internal/model"
)

// WriteEntries writes log entries to w in the requested format.
func WriteEntries(w io.Writer, entries []model.LogEntry, includeHeader bool, format string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeEntriesTable(w, entries, includeHeader, loc)
	case "plain":
		return writeEntriesPlain(w, entries, includeHeader, loc)
	case "json":
		return writeJSON(w, nonNil(entries))
	case "jsonl":
		return writeEntriesJSONL(w, entries)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func nonNil(entries []model.LogEntry) []model.LogEntry {
	if entries == nil {
		return []model.LogEntry{}
	}
	return entries
}

func formatTime(ts int64, loc *time.Location) string {
	return time.UnixMilli(ts).In(loc).Format("2006-01-02 15:04:05")
}

func writeEntriesPlain(w io.Writer, entries []model.LogEntry, includeHeader bool, loc *time.Location) error {
	if includeHeader {
		if _, err := fmt.Fprintln(w, "timestamp\tlevel\tcategory\tsource\tid\tmessage"); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		line := fmt.Sprintf(
			"%s\t%s\t%s\t%s\t%s\t%s",
			formatTime(entry.Timestamp, loc),
			entry.Level,
			entry.Category,
			entry.Source,
			entry.ID,
			export.FormatMessage(entry.Message, 0),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEntriesJSONL(w io.Writer, entries []model.LogEntry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, entry := range entries {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = true
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	return tw
}

func writeEntriesTable(w io.Writer, entries []model.LogEntry, includeHeader bool, loc *time.Location) error {
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 5, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 80},
	})

	if includeHeader {
		tw.AppendHeader(table.Row{"Time", "Level", "Category", "Source", "Message"})
	}

	for _, entry := range entries {
		tw.AppendRow(table.Row{
			formatTime(entry.Timestamp, loc),
			entry.Level.Upper(),
			entry.Category,
			entry.Source,
			export.FormatMessage(entry.Message, 0),
		})
	}

	if len(entries) == 0 {
		tw.AppendRow(table.Row{"-", "-", "-", "-", "(no logs)"})
	}

	_ = tw.Render()
	return nil
}
