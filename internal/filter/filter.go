// Package filter implements the predicate engine that narrows a log buffer to
// the entries visible in a panel.
package filter

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"logpanel/internal/model"
)

// Engine holds mutable filter criteria and the option sets offered to users.
// Apply never mutates its input.
type Engine struct {
	mu         sync.RWMutex
	filter     model.Filter
	categories map[string]struct{}
	sources    map[string]struct{}
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the clock used by time-based presets.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine with an open filter.
func New(opts ...Option) *Engine {
	e := &Engine{
		categories: map[string]struct{}{},
		sources:    map[string]struct{}{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply returns the entries that satisfy every active criterion, in input order.
func (e *Engine) Apply(entries []model.LogEntry) []model.LogEntry {
	f := e.Filter()
	out := make([]model.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if Match(f, entry) {
			out = append(out, entry)
		}
	}
	return out
}

// Match reports whether entry passes f.
//
// Category and source allow-lists reject entries that lack the field, while
// the keyword search treats missing fields as empty strings.
func Match(f model.Filter, entry model.LogEntry) bool {
	if len(f.Levels) > 0 && !slices.Contains(f.Levels, entry.Level) {
		return false
	}
	if len(f.Categories) > 0 {
		if entry.Category == "" || !slices.Contains(f.Categories, entry.Category) {
			return false
		}
	}
	if len(f.Sources) > 0 {
		if entry.Source == "" || !slices.Contains(f.Sources, entry.Source) {
			return false
		}
	}
	if strings.TrimSpace(f.Keyword) != "" {
		keyword := strings.ToLower(f.Keyword)
		text := strings.ToLower(entry.Message + " " + entry.Category + " " + entry.Source)
		if !strings.Contains(text, keyword) {
			return false
		}
	}
	return f.TimeRange.Contains(entry.Timestamp)
}

// UpdateAvailableOptions recomputes the distinct categories and sources present in entries.
func (e *Engine) UpdateAvailableOptions(entries []model.LogEntry) {
	categories := map[string]struct{}{}
	sources := map[string]struct{}{}
	for _, entry := range entries {
		if entry.Category != "" {
			categories[entry.Category] = struct{}{}
		}
		if entry.Source != "" {
			sources[entry.Source] = struct{}{}
		}
	}

	e.mu.Lock()
	e.categories = categories
	e.sources = sources
	e.mu.Unlock()
}

// AvailableCategories returns the known categories, sorted.
func (e *Engine) AvailableCategories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sortedKeys(e.categories)
}

// AvailableSources returns the known sources, sorted.
func (e *Engine) AvailableSources() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return sortedKeys(e.sources)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Filter returns a copy of the current criteria.
func (e *Engine) Filter() model.Filter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filter.Clone()
}

// SetFilter replaces every criterion at once.
func (e *Engine) SetFilter(f model.Filter) {
	e.mu.Lock()
	e.filter = f.Clone()
	e.mu.Unlock()
}

// IsActive reports whether any dimension restricts results.
func (e *Engine) IsActive() bool { return e.ActiveCount() > 0 }

// ActiveCount returns how many dimensions currently restrict results.
func (e *Engine) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	if len(e.filter.Levels) > 0 {
		count++
	}
	if len(e.filter.Categories) > 0 {
		count++
	}
	if len(e.filter.Sources) > 0 {
		count++
	}
	if strings.TrimSpace(e.filter.Keyword) != "" {
		count++
	}
	if e.filter.TimeRange.IsSet() {
		count++
	}
	return count
}

// SetLevelFilter replaces the level allow-list.
func (e *Engine) SetLevelFilter(levels []model.Level) {
	e.mu.Lock()
	e.filter.Levels = append([]model.Level(nil), levels...)
	e.mu.Unlock()
}

// AddLevelFilter adds level to the allow-list if it is not already present.
func (e *Engine) AddLevelFilter(level model.Level) {
	e.mu.Lock()
	if !slices.Contains(e.filter.Levels, level) {
		e.filter.Levels = append(e.filter.Levels, level)
	}
	e.mu.Unlock()
}

// RemoveLevelFilter removes level from the allow-list.
func (e *Engine) RemoveLevelFilter(level model.Level) {
	e.mu.Lock()
	e.filter.Levels = slices.DeleteFunc(e.filter.Levels, func(l model.Level) bool { return l == level })
	e.mu.Unlock()
}

// SetCategoryFilter replaces the category allow-list.
func (e *Engine) SetCategoryFilter(categories []string) {
	e.mu.Lock()
	e.filter.Categories = append([]string(nil), categories...)
	e.mu.Unlock()
}

// SetSourceFilter replaces the source allow-list.
func (e *Engine) SetSourceFilter(sources []string) {
	e.mu.Lock()
	e.filter.Sources = append([]string(nil), sources...)
	e.mu.Unlock()
}

// SetKeywordFilter replaces the keyword.
func (e *Engine) SetKeywordFilter(keyword string) {
	e.mu.Lock()
	e.filter.Keyword = keyword
	e.mu.Unlock()
}

// SetTimeRangeFilter replaces both time bounds; nil leaves a bound open.
func (e *Engine) SetTimeRangeFilter(start, end *int64) {
	e.mu.Lock()
	e.filter.TimeRange = model.TimeRange{Start: start, End: end}
	e.mu.Unlock()
}

// ClearAll resets every dimension to the open state.
func (e *Engine) ClearAll() {
	e.mu.Lock()
	e.filter = model.Filter{}
	e.mu.Unlock()
}

// Reset is an alias for ClearAll.
func (e *Engine) Reset() { e.ClearAll() }
