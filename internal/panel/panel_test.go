package panel

import (
	"reflect"
	"sync"
	"testing"

	"logpanel/internal/filter"
	"logpanel/internal/model"
	"logpanel/internal/store"
)

func newController(t *testing.T) *Controller {
	t.Helper()
	c := New(store.New(0), filter.New(), DefaultConfig())
	t.Cleanup(c.Detach)
	return c
}

func TestToggleIsInvolution(t *testing.T) {
	c := newController(t)
	if c.IsOpen() {
		t.Fatal("panel should start closed")
	}

	c.Toggle()
	c.SetHovered("a")
	c.Select("b")
	c.Toggle()
	if c.IsOpen() {
		t.Fatal("toggling twice should restore the closed state")
	}
	if c.Hovered() != "" || c.Selected() != "" {
		t.Fatalf("closing should clear transient state, got %q/%q", c.Hovered(), c.Selected())
	}
}

func TestConcurrentTogglesPairUp(t *testing.T) {
	c := newController(t)

	const n = 100
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Toggle()
		}()
	}
	wg.Wait()
	if c.IsOpen() {
		t.Fatalf("an even number of toggles should leave the panel closed")
	}

	var opened int
	var mu sync.Mutex
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Toggle() {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if opened != 1 || c.IsOpen() {
		t.Fatalf("two toggles should open once and close once, opened=%d open=%v", opened, c.IsOpen())
	}
}

func TestOpenRefreshesOptions(t *testing.T) {
	c := newController(t)
	c.Store().Info("a", &model.CreateOptions{Category: "Auth", Source: "Login"})

	c.Open()
	if got := c.Filter().AvailableCategories(); !reflect.DeepEqual(got, []string{"Auth"}) {
		t.Fatalf("unexpected categories after open: %v", got)
	}

	c.Store().Info("b", &model.CreateOptions{Category: "DB"})
	if got := c.Filter().AvailableCategories(); !reflect.DeepEqual(got, []string{"Auth", "DB"}) {
		t.Fatalf("options should follow store changes: %v", got)
	}
}

func TestFilteredLogs(t *testing.T) {
	c := newController(t)
	c.Store().Info("a", &model.CreateOptions{Category: "X"})
	c.Store().Error("b", &model.CreateOptions{Category: "Y"})

	c.Filter().SetLevelFilter([]model.Level{model.LevelError})
	got := c.FilteredLogs()
	if len(got) != 1 || got[0].Message != "b" {
		t.Fatalf("unexpected filtered logs: %#v", got)
	}
	if c.State().FilterCount != 1 {
		t.Fatalf("expected one active filter, got %d", c.State().FilterCount)
	}
}

func TestUpdateConfigAppliesMaxLogs(t *testing.T) {
	c := newController(t)
	for i := 0; i < 3; i++ {
		c.Store().Info("x", nil)
	}

	max := 2
	width := 600
	if err := c.UpdateConfig(ConfigPatch{MaxLogs: &max, Width: &width}); err != nil {
		t.Fatalf("UpdateConfig returned error: %v", err)
	}
	cfg := c.Config()
	if cfg.MaxLogs != 2 || cfg.Width != 600 || cfg.Color != "grey-darken-4" {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if c.Store().LogCount() != 2 {
		t.Fatalf("store should be trimmed to new cap, got %d", c.Store().LogCount())
	}

	bad := 0
	if err := c.UpdateConfig(ConfigPatch{MaxLogs: &bad}); err == nil {
		t.Fatal("expected error for zero max logs")
	}
	if c.Config().MaxLogs != 2 {
		t.Fatalf("invalid patch should not change config")
	}
}

func TestHandleKey(t *testing.T) {
	c := newController(t)

	if !c.HandleKey(KeyEvent{Key: "L"}) || !c.IsOpen() {
		t.Fatal("upper-case L should toggle the panel open")
	}
	if c.HandleKey(KeyEvent{Key: "l", Ctrl: true}) || !c.IsOpen() {
		t.Fatal("modified key presses must be ignored")
	}
	if c.HandleKey(KeyEvent{Key: "l", Target: TargetTextArea}) || !c.IsOpen() {
		t.Fatal("key presses inside text inputs must be ignored")
	}
	if c.HandleKey(KeyEvent{Key: "k"}) {
		t.Fatal("other keys must be ignored")
	}
	if !c.HandleKey(KeyEvent{Key: "l"}) || c.IsOpen() {
		t.Fatal("second press should close the panel")
	}
}

func TestSetupKeyboardShortcutIsIdempotent(t *testing.T) {
	c := newController(t)
	kb := &Keyboard{}

	if !c.SetupKeyboardShortcut(kb) {
		t.Fatal("first registration should succeed")
	}
	if c.SetupKeyboardShortcut(kb) {
		t.Fatal("second registration should be a no-op")
	}
	if kb.ListenerCount() != 1 {
		t.Fatalf("expected one listener, got %d", kb.ListenerCount())
	}

	kb.Dispatch(KeyEvent{Key: "l"})
	if !c.IsOpen() {
		t.Fatal("a single dispatch should toggle exactly once")
	}

	other := newController(t)
	if !other.SetupKeyboardShortcut(kb) {
		t.Fatal("registration is tracked per controller")
	}
}
