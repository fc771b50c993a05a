// Package panel provides the log panel controller: open/closed state,
// per-session configuration, and the keyboard shortcut that toggles it.
package panel

import (
	"sync"

	"logpanel/internal/filter"
	"logpanel/internal/model"
	"logpanel/internal/store"
)

// Config is the per-session panel configuration.
type Config struct {
	Width         int    `json:"width"`
	Temporary     bool   `json:"temporary"`
	Color         string `json:"color"`
	Dark          bool   `json:"dark"`
	MaxLogs       int    `json:"maxLogs"`
	AutoScroll    bool   `json:"autoScroll"`
	ShowTimestamp bool   `json:"showTimestamp"`
	ShowCategory  bool   `json:"showCategory"`
	ShowSource    bool   `json:"showSource"`
}

// DefaultConfig returns the configuration a panel starts with.
func DefaultConfig() Config {
	return Config{
		Width:         400,
		Temporary:     true,
		Color:         "grey-darken-4",
		Dark:          true,
		MaxLogs:       store.DefaultMaxLogs,
		AutoScroll:    true,
		ShowTimestamp: true,
		ShowCategory:  true,
		ShowSource:    true,
	}
}

// ConfigPatch updates the non-nil fields of a Config.
type ConfigPatch struct {
	Width         *int    `json:"width,omitempty"`
	Temporary     *bool   `json:"temporary,omitempty"`
	Color         *string `json:"color,omitempty"`
	Dark          *bool   `json:"dark,omitempty"`
	MaxLogs       *int    `json:"maxLogs,omitempty"`
	AutoScroll    *bool   `json:"autoScroll,omitempty"`
	ShowTimestamp *bool   `json:"showTimestamp,omitempty"`
	ShowCategory  *bool   `json:"showCategory,omitempty"`
	ShowSource    *bool   `json:"showSource,omitempty"`
}

func (p ConfigPatch) apply(cfg Config) Config {
	if p.Width != nil {
		cfg.Width = *p.Width
	}
	if p.Temporary != nil {
		cfg.Temporary = *p.Temporary
	}
	if p.Color != nil {
		cfg.Color = *p.Color
	}
	if p.Dark != nil {
		cfg.Dark = *p.Dark
	}
	if p.MaxLogs != nil {
		cfg.MaxLogs = *p.MaxLogs
	}
	if p.AutoScroll != nil {
		cfg.AutoScroll = *p.AutoScroll
	}
	if p.ShowTimestamp != nil {
		cfg.ShowTimestamp = *p.ShowTimestamp
	}
	if p.ShowCategory != nil {
		cfg.ShowCategory = *p.ShowCategory
	}
	if p.ShowSource != nil {
		cfg.ShowSource = *p.ShowSource
	}
	return cfg
}

// State is a snapshot of the controller for presentation layers.
type State struct {
	Open        bool   `json:"open"`
	Config      Config `json:"config"`
	Hovered     string `json:"hovered,omitempty"`
	Selected    string `json:"selected,omitempty"`
	FilterCount int    `json:"activeFilters"`
}

// Controller ties a log store and a filter engine to panel visibility.
type Controller struct {
	logs   *store.Store
	engine *filter.Engine

	mu       sync.RWMutex
	open     bool
	config   Config
	hovered  string
	selected string

	shortcutRegistered bool
	unsubscribe        func()
}

// New creates a closed controller. The store cap follows cfg.MaxLogs when set.
func New(logs *store.Store, engine *filter.Engine, cfg Config) *Controller {
	if cfg.MaxLogs <= 0 {
		cfg.MaxLogs = logs.MaxLogs()
	} else if cfg.MaxLogs != logs.MaxLogs() {
		_ = logs.UpdateMaxLogs(cfg.MaxLogs)
	}
	c := &Controller{
		logs:   logs,
		engine: engine,
		config: cfg,
	}
	c.unsubscribe = logs.Subscribe(c.refreshOptions)
	engine.UpdateAvailableOptions(logs.Logs())
	return c
}

// Detach stops following store changes.
func (c *Controller) Detach() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Store returns the underlying log store.
func (c *Controller) Store() *store.Store { return c.logs }

// Filter returns the underlying filter engine.
func (c *Controller) Filter() *filter.Engine { return c.engine }

func (c *Controller) refreshOptions() {
	c.engine.UpdateAvailableOptions(c.logs.Logs())
}

// IsOpen reports whether the panel is open.
func (c *Controller) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// Open shows the panel and refreshes the filter option sets.
func (c *Controller) Open() {
	c.mu.Lock()
	c.open = true
	c.mu.Unlock()
	c.refreshOptions()
}

// Close hides the panel and drops transient hover/selection state.
func (c *Controller) Close() {
	c.mu.Lock()
	c.open = false
	c.hovered = ""
	c.selected = ""
	c.mu.Unlock()
}

// Toggle flips the panel state and returns the new state.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	c.open = !c.open
	open := c.open
	if !open {
		c.hovered = ""
		c.selected = ""
	}
	c.mu.Unlock()

	if open {
		c.refreshOptions()
	}
	return open
}

// SetHovered records the entry under the pointer.
func (c *Controller) SetHovered(id string) {
	c.mu.Lock()
	c.hovered = id
	c.mu.Unlock()
}

// Hovered returns the hovered entry id.
func (c *Controller) Hovered() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hovered
}

// Select records the entry whose details are shown.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	c.selected = id
	c.mu.Unlock()
}

// Selected returns the selected entry id.
func (c *Controller) Selected() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Config returns the current configuration.
func (c *Controller) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// UpdateConfig merges patch into the configuration. A new MaxLogs value is
// applied to the store first; an invalid one leaves the configuration untouched.
func (c *Controller) UpdateConfig(patch ConfigPatch) error {
	if patch.MaxLogs != nil {
		if err := c.logs.UpdateMaxLogs(*patch.MaxLogs); err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.config = patch.apply(c.config)
	c.mu.Unlock()
	return nil
}

// FilteredLogs returns the buffer narrowed by the live filter.
func (c *Controller) FilteredLogs() []model.LogEntry {
	return c.engine.Apply(c.logs.Logs())
}

// State returns a snapshot for presentation.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return State{
		Open:        c.open,
		Config:      c.config,
		Hovered:     c.hovered,
		Selected:    c.selected,
		FilterCount: c.engine.ActiveCount(),
	}
}
