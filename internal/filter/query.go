package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"logpanel/internal/model"
)

// ErrInvalidTime is returned for time bounds that are neither epoch
// milliseconds nor RFC 3339.
var ErrInvalidTime = errors.New("invalid time")

// Query is the textual form of a filter, as given on the command line or in
// a URL query. List fields are comma separated.
type Query struct {
	Levels     string
	Categories string
	Sources    string
	Keyword    string
	Start      string
	End        string
	Preset     string
}

// Build parses q into an engine. The preset, if any, is applied after the
// explicit criteria.
func (q Query) Build(opts ...Option) (*Engine, error) {
	levels, err := model.ParseLevelList(q.Levels)
	if err != nil {
		return nil, err
	}
	start, err := ParseTime(q.Start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := ParseTime(q.End)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	e := New(opts...)
	e.SetFilter(model.Filter{
		Levels:     levels,
		Categories: SplitList(q.Categories),
		Sources:    SplitList(q.Sources),
		Keyword:    q.Keyword,
		TimeRange:  model.TimeRange{Start: start, End: end},
	})
	if q.Preset != "" {
		if err := e.ApplyPreset(q.Preset); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ParseTime accepts epoch milliseconds or an RFC 3339 timestamp. An empty
// value yields nil.
func ParseTime(value string) (*int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return &ms, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	ms := t.UnixMilli()
	return &ms, nil
}

// SplitList splits a comma separated list, dropping blank items.
func SplitList(arg string) []string {
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	parts := strings.Split(arg, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			out = append(out, token)
		}
	}
	return out
}
