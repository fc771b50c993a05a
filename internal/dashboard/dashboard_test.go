package dashboard

import (
	"context"
	"testing"
	"time"

	"logpanel/internal/logger"
	"logpanel/internal/persist"
)

type fakeRand struct {
	float float64
	n     int
}

func (f *fakeRand) Float64() float64 { return f.float }

func (f *fakeRand) IntN(n int) int {
	if f.n >= n {
		return n - 1
	}
	return f.n
}

func fixedNow() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

func newTestStore(r Rand, opts ...Option) *Store {
	opts = append([]Option{WithRand(r), WithClock(fixedNow), WithLogger(logger.Discard())}, opts...)
	return New(opts...)
}

func TestRefreshWithoutActivity(t *testing.T) {
	s := newTestStore(&fakeRand{float: 0.9, n: 10})
	before := len(s.Activities())

	s.Refresh()
	if s.TotalUsers() != 1010 || s.ActiveUsers() != 210 {
		t.Fatalf("unexpected stats after refresh: %v %v", s.TotalUsers(), s.ActiveUsers())
	}
	if len(s.Activities()) != before {
		t.Fatal("no activity expected above the activity chance")
	}
	if s.FormattedLastRefresh() != "05:06:07" {
		t.Fatalf("unexpected refresh time: %s", s.FormattedLastRefresh())
	}
}

func TestRefreshAddsActivity(t *testing.T) {
	s := newTestStore(&fakeRand{float: 0.1, n: 0})
	s.Refresh()

	first := s.Activities()[0]
	if first.Title != "新用户注册" || first.Description != "用户 user1 完成注册" {
		t.Fatalf("unexpected random activity: %#v", first)
	}
}

func TestActivitiesAreCapped(t *testing.T) {
	s := newTestStore(&fakeRand{float: 0.9})
	for i := 0; i < 30; i++ {
		s.AddActivity(Activity{Title: "x"})
	}
	all := s.Activities()
	if len(all) != MaxActivities {
		t.Fatalf("expected %d activities, got %d", MaxActivities, len(all))
	}
	if all[0].ID == all[1].ID {
		t.Fatal("activity ids should be unique")
	}
	if len(s.RecentActivities()) != RecentActivities {
		t.Fatalf("expected %d recent activities", RecentActivities)
	}
}

func TestToggleAutoRefresh(t *testing.T) {
	s := newTestStore(&fakeRand{})
	if !s.AutoRefresh() {
		t.Fatal("auto refresh should default to on")
	}
	if s.ToggleAutoRefresh() || s.AutoRefresh() {
		t.Fatal("toggle should turn auto refresh off")
	}
}

func TestSaveLoadInitialize(t *testing.T) {
	ctx := context.Background()
	kv := persist.NewMemory()

	first := newTestStore(&fakeRand{float: 0.9, n: 500}, WithKV(kv))
	first.Refresh()
	first.ToggleAutoRefresh()
	if err := first.Save(ctx); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	second := newTestStore(&fakeRand{float: 0.9, n: 0}, WithKV(kv))
	if !second.Load(ctx) {
		t.Fatal("expected persisted state to load")
	}
	if second.TotalUsers() != 1500 || second.AutoRefresh() {
		t.Fatalf("state not restored: %v %v", second.TotalUsers(), second.AutoRefresh())
	}

	second.Initialize(ctx)
	if got := second.Activities()[0]; got.Title != "仪表盘初始化" || got.Icon != "mdi-view-dashboard" {
		t.Fatalf("initialize should record the page load: %#v", got)
	}

	_ = kv.Set(ctx, persist.KeyDashboard, "not json")
	third := newTestStore(&fakeRand{}, WithKV(kv))
	if third.Load(ctx) {
		t.Fatal("malformed state should be ignored")
	}
}

func TestAutoRefreshStopsWhenDisabled(t *testing.T) {
	s := newTestStore(&fakeRand{float: 0.9})
	s.mu.Lock()
	s.refreshInterval = 0
	s.mu.Unlock()

	s.ToggleAutoRefresh()
	s.StartAutoRefresh(context.Background())
	s.mu.RLock()
	task := s.task
	s.mu.RUnlock()

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("auto refresh loop should exit once disabled")
	}
	s.StopAutoRefresh()
}

func TestStatDisplay(t *testing.T) {
	if got := (StatCard{Value: 12345, Format: FormatCurrency}).Display(); got != "¥12,345" {
		t.Fatalf("unexpected currency display: %s", got)
	}
	if got := (StatCard{Value: 999}).Display(); got != "999" {
		t.Fatalf("unexpected number display: %s", got)
	}
	if got := (StatCard{Value: 1234567}).Display(); got != "1,234,567" {
		t.Fatalf("unexpected grouping: %s", got)
	}
}
