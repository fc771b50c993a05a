// Package dashboard keeps the mock statistics and activity feed shown on the
// dashboard page, with optional periodic refresh and persistence.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"logpanel/internal/logger"
	"logpanel/internal/persist"
	"logpanel/internal/schedule"
)

// StatFormat controls how a stat value is displayed.
type StatFormat string

const (
	FormatNumber   StatFormat = "number"
	FormatCurrency StatFormat = "currency"
)

type StatCard struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Value  float64    `json:"value"`
	Icon   string     `json:"icon"`
	Color  string     `json:"color"`
	Format StatFormat `json:"format,omitempty"`
}

// Display renders the value for humans.
func (s StatCard) Display() string {
	n := strconv.FormatInt(int64(s.Value), 10)
	grouped := groupThousands(n)
	if s.Format == FormatCurrency {
		return "¥" + grouped
	}
	return grouped
}

func groupThousands(digits string) string {
	neg := false
	if len(digits) > 0 && digits[0] == '-' {
		neg, digits = true, digits[1:]
	}
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range len(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

type Activity struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Icon        string    `json:"icon,omitempty"`
}

type QuickAction struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Color string `json:"color,omitempty"`
}

// Snapshot is the persisted and presented state of the dashboard.
type Snapshot struct {
	Stats           []StatCard `json:"stats"`
	IsAutoRefresh   *bool      `json:"isAutoRefresh,omitempty"`
	RefreshInterval int        `json:"refreshInterval,omitempty"`
	LastRefreshTime time.Time  `json:"lastRefreshTime"`
}

// View is the full dashboard state for presentation layers.
type View struct {
	Stats            []StatCard    `json:"stats"`
	Activities       []Activity    `json:"activities"`
	RecentActivities []Activity    `json:"recentActivities"`
	QuickActions     []QuickAction `json:"quickActions"`
	AutoRefresh      bool          `json:"isAutoRefresh"`
	RefreshInterval  int           `json:"refreshInterval"`
	LastRefresh      time.Time     `json:"lastRefreshTime"`
	TotalUsers       float64       `json:"totalUsers"`
	ActiveUsers      float64       `json:"activeUsers"`
}

type Store struct {
	mu              sync.RWMutex
	stats           []StatCard
	activities      []Activity
	autoRefresh     bool
	refreshInterval int
	lastRefresh     time.Time
	seq             int

	rng  Rand
	now  func() time.Time
	kv   persist.KV
	log  *slog.Logger
	task *schedule.Task
}

type Option func(*Store)

func WithRand(r Rand) Option { return func(s *Store) { s.rng = r } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithKV enables Save, Load and Initialize persistence.
func WithKV(kv persist.KV) Option { return func(s *Store) { s.kv = kv } }

func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// New returns a dashboard seeded with the mock statistics.
func New(opts ...Option) *Store {
	s := &Store{
		autoRefresh:     true,
		refreshInterval: DefaultRefreshInterval,
		rng:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrDefault(s.log)
	s.stats = defaultStats()
	s.activities = defaultActivities(s.now())
	s.lastRefresh = s.now()
	return s
}

func (s *Store) Stats() []StatCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]StatCard(nil), s.stats...)
}

// Activities returns the feed, newest first.
func (s *Store) Activities() []Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Activity(nil), s.activities...)
}

// RecentActivities returns the first RecentActivities entries of the feed.
func (s *Store) RecentActivities() []Activity {
	all := s.Activities()
	if len(all) > RecentActivities {
		all = all[:RecentActivities]
	}
	return all
}

func (s *Store) statValue(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, stat := range s.stats {
		if stat.ID == id {
			return stat.Value
		}
	}
	return 0
}

func (s *Store) TotalUsers() float64  { return s.statValue("total-users") }
func (s *Store) ActiveUsers() float64 { return s.statValue("active-users") }

func (s *Store) AutoRefresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoRefresh
}

// RefreshInterval is in seconds.
func (s *Store) RefreshInterval() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshInterval
}

func (s *Store) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// FormattedLastRefresh renders the last refresh as a wall clock time.
func (s *Store) FormattedLastRefresh() string {
	return s.LastRefresh().Format("15:04:05")
}

// View returns the whole dashboard state.
func (s *Store) View() View {
	return View{
		Stats:            s.Stats(),
		Activities:       s.Activities(),
		RecentActivities: s.RecentActivities(),
		QuickActions:     DefaultQuickActions(),
		AutoRefresh:      s.AutoRefresh(),
		RefreshInterval:  s.RefreshInterval(),
		LastRefresh:      s.LastRefresh(),
		TotalUsers:       s.TotalUsers(),
		ActiveUsers:      s.ActiveUsers(),
	}
}

// Refresh randomizes the statistics and, with probability ActivityChance,
// records a random activity.
func (s *Store) Refresh() {
	s.mu.Lock()
	values := randomStats(s.rng)
	for i := range s.stats {
		if v, ok := values[s.stats[i].ID]; ok {
			s.stats[i].Value = v
		}
	}
	if s.rng.Float64() < ActivityChance {
		s.prependLocked(randomActivity(s.rng, s.now()))
	}
	s.lastRefresh = s.now()
	s.mu.Unlock()

	s.log.Debug("dashboard refreshed", "at", s.FormattedLastRefresh())
}

// ToggleAutoRefresh flips auto refresh and returns the new setting.
func (s *Store) ToggleAutoRefresh() bool {
	s.mu.Lock()
	s.autoRefresh = !s.autoRefresh
	enabled := s.autoRefresh
	s.mu.Unlock()
	s.log.Info("dashboard auto refresh toggled", "enabled", enabled)
	return enabled
}

// AddActivity prepends a to the feed, assigning an id.
func (s *Store) AddActivity(a Activity) Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prependLocked(a)
}

func (s *Store) prependLocked(a Activity) Activity {
	s.seq++
	a.ID = fmt.Sprintf("%d-%d", s.now().UnixMilli(), s.seq)
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	s.activities = append([]Activity{a}, s.activities...)
	if len(s.activities) > MaxActivities {
		s.activities = s.activities[:MaxActivities]
	}
	return a
}

// Save persists the statistics and refresh settings.
func (s *Store) Save(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	s.mu.RLock()
	auto := s.autoRefresh
	snap := Snapshot{
		Stats:           append([]StatCard(nil), s.stats...),
		IsAutoRefresh:   &auto,
		RefreshInterval: s.refreshInterval,
		LastRefreshTime: s.lastRefresh,
	}
	s.mu.RUnlock()
	return persist.SaveJSON(ctx, s.kv, persist.KeyDashboard, snap)
}

// Load restores persisted state and reports whether anything was applied.
func (s *Store) Load(ctx context.Context) bool {
	if s.kv == nil {
		return false
	}
	var snap Snapshot
	if !persist.LoadJSON(ctx, s.kv, persist.KeyDashboard, &snap, s.log) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, saved := range snap.Stats {
		for i := range s.stats {
			if s.stats[i].ID == saved.ID {
				s.stats[i] = saved
			}
		}
	}
	if snap.IsAutoRefresh != nil {
		s.autoRefresh = *snap.IsAutoRefresh
	}
	if snap.RefreshInterval > 0 {
		s.refreshInterval = snap.RefreshInterval
	}
	if !snap.LastRefreshTime.IsZero() {
		s.lastRefresh = snap.LastRefreshTime
	}
	return true
}

// Initialize loads persisted state, refreshes and records the page load.
func (s *Store) Initialize(ctx context.Context) {
	s.Load(ctx)
	s.Refresh()
	s.AddActivity(Activity{
		Title:       "仪表盘初始化",
		Description: "仪表盘页面加载完成",
		Icon:        "mdi-view-dashboard",
	})
}

// StartAutoRefresh refreshes every RefreshInterval seconds while auto refresh
// is enabled. Disabling auto refresh ends the loop at its next tick.
func (s *Store) StartAutoRefresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task.Running() {
		return
	}
	interval := time.Duration(s.refreshInterval) * time.Second
	s.task = schedule.Start(ctx, interval, func(context.Context) time.Duration {
		if !s.AutoRefresh() {
			return -1
		}
		s.Refresh()
		return time.Duration(s.RefreshInterval()) * time.Second
	})
}

// StopAutoRefresh stops a loop started by StartAutoRefresh.
func (s *Store) StopAutoRefresh() {
	s.mu.Lock()
	task := s.task
	s.task = nil
	s.mu.Unlock()
	task.Stop()
}

// Reset restores the mock statistics and activity feed.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = defaultStats()
	s.activities = defaultActivities(s.now())
	s.autoRefresh = true
	s.refreshInterval = DefaultRefreshInterval
	s.lastRefresh = s.now()
}
