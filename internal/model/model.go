// Package model defines the log entry, filter and statistics types shared by
// the log panel packages.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownLevel is returned when a level name cannot be parsed.
var ErrUnknownLevel = errors.New("unknown log level")

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Levels lists every level in ascending severity.
var Levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}

// Rank returns the ordinal severity of the level, or -1 if it is unknown.
// It is used for display only; entries are never sorted by level.
func (l Level) Rank() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return -1
	}
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool { return l.Rank() >= 0 }

// Upper returns the upper-cased level name used by text exports.
func (l Level) Upper() string { return strings.ToUpper(string(l)) }

// ParseLevel converts a case-insensitive level name into a Level.
// "warning" and "err" are accepted as aliases.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "err":
		return LevelError, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
}

// ParseLevelList parses a comma-separated list of level names.
// An empty argument yields a nil slice.
func ParseLevelList(arg string) ([]Level, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, nil
	}
	var levels []Level
	for _, part := range strings.Split(arg, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		level, err := ParseLevel(part)
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}
	return levels, nil
}

const (
	// DefaultCategory is assigned to entries created without a category.
	DefaultCategory = "General"
	// DefaultSource is assigned to entries created without a source.
	DefaultSource = "App"
)

// LogEntry is one recorded event.
type LogEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Category  string `json:"category,omitempty"`
	Source    string `json:"source,omitempty"`
	Details   any    `json:"details,omitempty"`
	Stack     string `json:"stack,omitempty"`
}

// Time returns the entry timestamp as a time.Time.
func (e LogEntry) Time() time.Time { return time.UnixMilli(e.Timestamp) }

// CreateOptions carries the optional fields accepted when adding an entry.
type CreateOptions struct {
	Category string
	Source   string
	Details  any
	Stack    string
}

// Stats counts entries per level.
type Stats struct {
	Debug int `json:"debug"`
	Info  int `json:"info"`
	Warn  int `json:"warn"`
	Error int `json:"error"`
}

// Add increments the counter for level. Unknown levels are ignored.
func (s *Stats) Add(level Level) {
	switch level {
	case LevelDebug:
		s.Debug++
	case LevelInfo:
		s.Info++
	case LevelWarn:
		s.Warn++
	case LevelError:
		s.Error++
	}
}

// Count returns the counter for level.
func (s Stats) Count(level Level) int {
	switch level {
	case LevelDebug:
		return s.Debug
	case LevelInfo:
		return s.Info
	case LevelWarn:
		return s.Warn
	case LevelError:
		return s.Error
	default:
		return 0
	}
}

// Total returns the sum of all counters.
func (s Stats) Total() int { return s.Debug + s.Info + s.Warn + s.Error }

// TimeRange bounds timestamps in epoch milliseconds. A nil bound is open.
type TimeRange struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

// IsSet reports whether either bound restricts results.
func (r TimeRange) IsSet() bool { return r.Start != nil || r.End != nil }

// Contains reports whether ts lies within the inclusive bounds.
func (r TimeRange) Contains(ts int64) bool {
	if r.Start != nil && ts < *r.Start {
		return false
	}
	if r.End != nil && ts > *r.End {
		return false
	}
	return true
}

// Filter holds the live filtering criteria of a panel.
// Empty allow-lists, a blank keyword and an unset time range mean "no restriction".
type Filter struct {
	Levels     []Level   `json:"level,omitempty"`
	Categories []string  `json:"category,omitempty"`
	Sources    []string  `json:"source,omitempty"`
	Keyword    string    `json:"keyword,omitempty"`
	TimeRange  TimeRange `json:"timeRange"`
}

// Clone returns a deep copy of f.
func (f Filter) Clone() Filter {
	out := Filter{Keyword: f.Keyword}
	if f.Levels != nil {
		out.Levels = append([]Level{}, f.Levels...)
	}
	if f.Categories != nil {
		out.Categories = append([]string{}, f.Categories...)
	}
	if f.Sources != nil {
		out.Sources = append([]string{}, f.Sources...)
	}
	if f.TimeRange.Start != nil {
		out.TimeRange.Start = Millis(*f.TimeRange.Start)
	}
	if f.TimeRange.End != nil {
		out.TimeRange.End = Millis(*f.TimeRange.End)
	}
	return out
}

// Millis returns a pointer to v, for building TimeRange bounds.
func Millis(v int64) *int64 { return &v }
