// Package export serializes log entries to JSON, CSV or plain text and names
// the resulting download artifacts.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"logpanel/internal/model"
)

// Format selects the export layout.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatCSV, FormatTXT:
		return f, nil
	case "text":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", name)
	}
}

// Extension returns the file extension for f. Unknown formats map to json.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTXT:
		return "txt"
	default:
		return "json"
	}
}

// MIMEType returns the content type for f. Unknown formats map to json.
func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatTXT:
		return "text/plain"
	default:
		return "application/json"
	}
}

// DateRange is an inclusive window in epoch milliseconds.
type DateRange struct {
	Start int64
	End   int64
}

// Options controls narrowing and rendering.
type Options struct {
	Format         Format
	IncludeDetails bool
	// Levels narrows the export to the listed levels when non-empty.
	Levels []model.Level
	// DateRange narrows the export when non-nil.
	DateRange *DateRange
	// Location is used for datetime columns; nil means time.Local.
	Location *time.Location
}

// LocaleLayout mirrors the zh-CN toLocaleString rendering used by the panel.
const LocaleLayout = "2006/1/2 15:04:05"

// Narrow applies the level and date range narrowing of opts to entries.
func Narrow(entries []model.LogEntry, opts Options) []model.LogEntry {
	out := make([]model.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if len(opts.Levels) > 0 && !slices.Contains(opts.Levels, entry.Level) {
			continue
		}
		if opts.DateRange != nil && (entry.Timestamp < opts.DateRange.Start || entry.Timestamp > opts.DateRange.End) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Logs narrows entries per opts and renders them in the requested format.
// It performs no I/O.
func Logs(entries []model.LogEntry, opts Options) (string, error) {
	data := Narrow(entries, opts)
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	switch opts.Format {
	case FormatCSV:
		return renderCSV(data, opts.IncludeDetails, loc)
	case FormatTXT:
		return renderText(data, opts.IncludeDetails, loc)
	default:
		return renderJSON(data)
	}
}

func renderJSON(entries []model.LogEntry) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return "", fmt.Errorf("encode json export: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func renderCSV(entries []model.LogEntry, includeDetails bool, loc *time.Location) (string, error) {
	headers := []string{"时间", "级别", "分类", "来源", "消息"}
	if includeDetails {
		headers = append(headers, "详情")
	}

	lines := make([]string, 0, len(entries)+1)
	lines = append(lines, strings.Join(headers, ","))
	for _, entry := range entries {
		fields := []string{
			entry.Time().In(loc).Format(LocaleLayout),
			string(entry.Level),
			entry.Category,
			entry.Source,
			quoteCSV(entry.Message),
		}
		if includeDetails {
			var details any = ""
			if entry.Details != nil {
				details = entry.Details
			}
			encoded, err := compactJSON(details)
			if err != nil {
				return "", fmt.Errorf("encode details of %s: %w", entry.ID, err)
			}
			fields = append(fields, quoteCSV(encoded))
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n"), nil
}

func renderText(entries []model.LogEntry, includeDetails bool, loc *time.Location) (string, error) {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		line := fmt.Sprintf("[%s] %s [%s/%s] %s",
			entry.Time().In(loc).Format(LocaleLayout),
			entry.Level.Upper(),
			entry.Category,
			entry.Source,
			entry.Message,
		)
		if includeDetails && entry.Details != nil {
			encoded, err := compactJSON(entry.Details)
			if err != nil {
				return "", fmt.Errorf("encode details of %s: %w", entry.ID, err)
			}
			line += "\n  详情: " + encoded
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// quoteCSV wraps text in double quotes, doubling embedded quotes.
func quoteCSV(text string) string {
	return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
}

func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
