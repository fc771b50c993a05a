// Package store provides the bounded in-memory log buffer.
package store

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"logpanel/internal/model"

	"github.com/google/uuid"
)

const (
	// DefaultMaxLogs is the buffer cap used when none is configured.
	DefaultMaxLogs = 1000
	// DefaultLatestCount is used by GetLatestLogs for non-positive counts.
	DefaultLatestCount = 50
)

// ErrInvalidMaxLogs is returned when a non-positive cap is requested.
var ErrInvalidMaxLogs = errors.New("max logs must be positive")

// Store is a log buffer ordered by timestamp that evicts its oldest entries
// once it grows past MaxLogs. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	logs    []model.LogEntry
	maxLogs int
	now     func() time.Time
	newID   func(ts int64) string
	// lastAssigned is the newest timestamp handed out by AddLog. Imported
	// entries never move it.
	lastAssigned int64

	listenersMu  sync.Mutex
	listeners    map[int]func()
	nextListener int
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp new entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides entry id generation.
func WithIDGenerator(fn func(ts int64) string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates an empty store capped at maxLogs entries.
// Non-positive values fall back to DefaultMaxLogs.
func New(maxLogs int, opts ...Option) *Store {
	if maxLogs <= 0 {
		maxLogs = DefaultMaxLogs
	}
	s := &Store{
		maxLogs:   maxLogs,
		now:       time.Now,
		newID:     generateID,
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// generateID builds "<ms>_<9 random chars>".
func generateID(ts int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d_%s", ts, suffix[:9])
}

// AddLog stamps a new entry with the current time, inserts it and trims the
// buffer to MaxLogs. Stamps never go backwards across AddLog calls.
func (s *Store) AddLog(level model.Level, message string, opts *model.CreateOptions) model.LogEntry {
	s.mu.Lock()
	ts := max(s.now().UnixMilli(), s.lastAssigned)
	s.lastAssigned = ts

	entry := model.LogEntry{
		ID:        s.newID(ts),
		Timestamp: ts,
		Level:     level,
		Message:   message,
		Category:  model.DefaultCategory,
		Source:    model.DefaultSource,
	}
	if opts != nil {
		if opts.Category != "" {
			entry.Category = opts.Category
		}
		if opts.Source != "" {
			entry.Source = opts.Source
		}
		entry.Details = opts.Details
		entry.Stack = opts.Stack
	}

	s.insertLocked(entry)
	s.trimLocked()
	s.mu.Unlock()

	s.notify()
	return entry
}

// insertLocked places entry after every entry with the same or an earlier
// timestamp. Without imports that is always the tail.
func (s *Store) insertLocked(entry model.LogEntry) {
	i := len(s.logs)
	for i > 0 && s.logs[i-1].Timestamp > entry.Timestamp {
		i--
	}
	s.logs = slices.Insert(s.logs, i, entry)
}

// Debug adds a debug entry.
func (s *Store) Debug(message string, opts *model.CreateOptions) model.LogEntry {
	return s.AddLog(model.LevelDebug, message, opts)
}

// Info adds an info entry.
func (s *Store) Info(message string, opts *model.CreateOptions) model.LogEntry {
	return s.AddLog(model.LevelInfo, message, opts)
}

// Warn adds a warn entry.
func (s *Store) Warn(message string, opts *model.CreateOptions) model.LogEntry {
	return s.AddLog(model.LevelWarn, message, opts)
}

// Error adds an error entry.
func (s *Store) Error(message string, opts *model.CreateOptions) model.LogEntry {
	return s.AddLog(model.LevelError, message, opts)
}

// Import merges previously recorded entries into the buffer by timestamp,
// keeping their ids and timestamps. Entries with equal timestamps keep their
// relative order. Missing ids and timestamps are generated.
func (s *Store) Import(entries []model.LogEntry) {
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	for _, entry := range entries {
		if entry.Timestamp == 0 {
			entry.Timestamp = s.now().UnixMilli()
		}
		if entry.ID == "" {
			entry.ID = s.newID(entry.Timestamp)
		}
		s.logs = append(s.logs, entry)
	}
	slices.SortStableFunc(s.logs, func(a, b model.LogEntry) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	s.trimLocked()
	s.mu.Unlock()

	s.notify()
}

// RemoveLog deletes the first entry with the given id. Unknown ids are ignored.
func (s *Store) RemoveLog(id string) {
	s.mu.Lock()
	removed := false
	for i := range s.logs {
		if s.logs[i].ID == id {
			s.logs = append(s.logs[:i], s.logs[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// ClearLogs empties the buffer.
func (s *Store) ClearLogs() {
	s.mu.Lock()
	s.logs = nil
	s.mu.Unlock()

	s.notify()
}

// UpdateMaxLogs changes the cap and trims the buffer immediately when needed.
func (s *Store) UpdateMaxLogs(max int) error {
	if max <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxLogs, max)
	}
	s.mu.Lock()
	s.maxLogs = max
	trimmed := s.trimLocked()
	s.mu.Unlock()

	if trimmed {
		s.notify()
	}
	return nil
}

// trimLocked drops entries from the head until len(logs) <= maxLogs.
func (s *Store) trimLocked() bool {
	drop := len(s.logs) - s.maxLogs
	if drop <= 0 {
		return false
	}
	n := copy(s.logs, s.logs[drop:])
	clear(s.logs[n:])
	s.logs = s.logs[:n]
	return true
}

// Logs returns a copy of the buffer, oldest first.
func (s *Store) Logs() []model.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.LogEntry(nil), s.logs...)
}

// MaxLogs returns the current cap.
func (s *Store) MaxLogs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxLogs
}

// LogCount returns the number of buffered entries.
func (s *Store) LogCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

// LatestLog returns the tail entry, if any.
func (s *Store) LatestLog() (model.LogEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.logs) == 0 {
		return model.LogEntry{}, false
	}
	return s.logs[len(s.logs)-1], true
}

// LogStats counts buffered entries per level.
func (s *Store) LogStats() model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats model.Stats
	for _, entry := range s.logs {
		stats.Add(entry.Level)
	}
	return stats
}

// GetLatestLogs returns the last count entries, oldest first.
func (s *Store) GetLatestLogs(count int) []model.LogEntry {
	if count <= 0 {
		count = DefaultLatestCount
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.logs) - count
	if start < 0 {
		start = 0
	}
	return append([]model.LogEntry(nil), s.logs[start:]...)
}

// GetLogsByLevel returns entries whose level equals level.
func (s *Store) GetLogsByLevel(level model.Level) []model.LogEntry {
	return s.collect(func(entry model.LogEntry) bool { return entry.Level == level })
}

// GetLogsByCategory returns entries whose category equals category.
func (s *Store) GetLogsByCategory(category string) []model.LogEntry {
	return s.collect(func(entry model.LogEntry) bool { return entry.Category == category })
}

// SearchLogs returns entries whose message, category or source contains
// keyword, ignoring case.
func (s *Store) SearchLogs(keyword string) []model.LogEntry {
	lower := strings.ToLower(keyword)
	return s.collect(func(entry model.LogEntry) bool {
		return strings.Contains(strings.ToLower(entry.Message), lower) ||
			(entry.Category != "" && strings.Contains(strings.ToLower(entry.Category), lower)) ||
			(entry.Source != "" && strings.Contains(strings.ToLower(entry.Source), lower))
	})
}

func (s *Store) collect(keep func(model.LogEntry) bool) []model.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.LogEntry
	for _, entry := range s.logs {
		if keep(entry) {
			out = append(out, entry)
		}
	}
	return out
}

// Subscribe registers fn to be called after every buffer mutation.
// Listeners run synchronously on the mutating goroutine, outside the buffer lock.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
