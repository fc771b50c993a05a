// Package demo drives the log panel showcase: scenario switching, canned log
// samples, and the mock API and system monitoring simulations.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"logpanel/internal/logger"
	"logpanel/internal/model"
	"logpanel/internal/panel"
	"logpanel/internal/persist"
	"logpanel/internal/schedule"
	"logpanel/internal/store"
)

// ErrUnknownMode is returned by SwitchMode and ParseMode for unknown mode names.
var ErrUnknownMode = errors.New("unknown demo mode")

// Rand is the randomness source of the simulations.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// APIMockConfig drives the simulated API calls.
type APIMockConfig struct {
	Endpoint    string  `json:"endpoint"`
	Method      string  `json:"method"`
	SuccessRate float64 `json:"successRate"`
	// ResponseTime is in milliseconds.
	ResponseTime int  `json:"responseTime"`
	Enabled      bool `json:"enabled"`
}

// MonitoringConfig drives the simulated system metrics.
type MonitoringConfig struct {
	Enabled bool `json:"enabled"`
	// Interval is in milliseconds.
	Interval       int      `json:"interval"`
	Metrics        []string `json:"metrics"`
	AlertThreshold float64  `json:"alertThreshold"`
}

// DefaultMonitoringInterval replaces non-positive monitoring intervals, in
// milliseconds.
const DefaultMonitoringInterval = 3000

// DefaultAPIMockConfig returns the disabled API mock settings.
func DefaultAPIMockConfig() APIMockConfig {
	return APIMockConfig{Endpoint: "/api/users", Method: "GET", SuccessRate: 0.8, ResponseTime: 1000}
}

// DefaultMonitoringConfig returns the disabled monitoring settings.
func DefaultMonitoringConfig() MonitoringConfig {
	return MonitoringConfig{Interval: DefaultMonitoringInterval, Metrics: []string{"cpu", "memory", "network"}, AlertThreshold: 80}
}

// normalized clamps a negative response time to zero.
func (c APIMockConfig) normalized() APIMockConfig {
	if c.ResponseTime < 0 {
		c.ResponseTime = 0
	}
	return c
}

// normalized replaces a non-positive interval with DefaultMonitoringInterval.
func (c MonitoringConfig) normalized() MonitoringConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultMonitoringInterval
	}
	return c
}

// persisted is the saved shape of the demo state.
type persisted struct {
	CurrentMode      Mode              `json:"currentMode,omitempty"`
	PanelConfig      *PanelOptions     `json:"panelConfig,omitempty"`
	APIMockConfig    *APIMockConfig    `json:"apiMockConfig,omitempty"`
	MonitoringConfig *MonitoringConfig `json:"monitoringConfig,omitempty"`
	IsLogPanelOpen   *bool             `json:"isLogPanelOpen,omitempty"`
}

// State is a snapshot for presentation layers.
type State struct {
	CurrentMode      Mode             `json:"currentMode"`
	CurrentScenario  Scenario         `json:"currentScenario"`
	PanelOpen        bool             `json:"isLogPanelOpen"`
	PanelConfig      PanelOptions     `json:"panelConfig"`
	APIMockConfig    APIMockConfig    `json:"apiMockConfig"`
	MonitoringConfig MonitoringConfig `json:"monitoringConfig"`
	LogStats         model.Stats      `json:"logStats"`
}

// Store holds the demo page state and runs its simulations against a log
// store. It is safe for concurrent use.
type Store struct {
	logs       *store.Store
	controller *panel.Controller
	scenarios  []Scenario
	samples    []Sample

	mu          sync.Mutex
	mode        Mode
	panelOpen   bool
	panelConfig PanelOptions
	apiMock     APIMockConfig
	monitoring  MonitoringConfig
	apiTask     *schedule.Task
	monitorTask *schedule.Task

	rngMu sync.Mutex
	rng   Rand
	kv    persist.KV
	log   *slog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithRand overrides the randomness source.
func WithRand(r Rand) Option { return func(s *Store) { s.rng = r } }

// WithKV persists the demo state in kv.
func WithKV(kv persist.KV) Option { return func(s *Store) { s.kv = kv } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option { return func(s *Store) { s.log = l } }

// WithPanel mirrors panel visibility and options onto c.
func WithPanel(c *panel.Controller) Option { return func(s *Store) { s.controller = c } }

// WithAPIMock replaces the API mock settings.
func WithAPIMock(cfg APIMockConfig) Option { return func(s *Store) { s.apiMock = cfg } }

// WithMonitoring replaces the monitoring settings.
func WithMonitoring(cfg MonitoringConfig) Option { return func(s *Store) { s.monitoring = cfg } }

// New creates a demo store writing into logs.
func New(logs *store.Store, opts ...Option) *Store {
	s := &Store{
		logs:        logs,
		scenarios:   defaultScenarios(),
		samples:     defaultSamples(),
		mode:        ModeBasic,
		panelConfig: defaultPanelOptions(),
		apiMock:     DefaultAPIMockConfig(),
		monitoring:  DefaultMonitoringConfig(),
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.apiMock = s.apiMock.normalized()
	s.monitoring = s.monitoring.normalized()
	s.apiMock.Enabled = false
	s.monitoring.Enabled = false
	s.log = logger.OrDefault(s.log)
	return s
}

// Logs returns the store the demo writes into.
func (s *Store) Logs() *store.Store { return s.logs }

// Scenarios lists the scenario per mode.
func (s *Store) Scenarios() []Scenario { return append([]Scenario(nil), s.scenarios...) }

// Samples lists the sample log generators.
func (s *Store) Samples() []Sample { return append([]Sample(nil), s.samples...) }

func (s *Store) scenario(mode Mode) (Scenario, bool) {
	for _, sc := range s.scenarios {
		if sc.ID == mode {
			return sc, true
		}
	}
	return Scenario{}, false
}

// CurrentScenario falls back to the first scenario for unknown modes.
func (s *Store) CurrentScenario() Scenario {
	if sc, ok := s.scenario(s.CurrentMode()); ok {
		return sc
	}
	return s.scenarios[0]
}

// CurrentMode returns the active demo mode.
func (s *Store) CurrentMode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// PanelOpen reports whether the demo page shows the log panel.
func (s *Store) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

// PanelConfig returns the panel options of the demo page.
func (s *Store) PanelConfig() PanelOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelConfig
}

// APIMockConfig returns the current API mock settings.
func (s *Store) APIMockConfig() APIMockConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiMock
}

// MonitoringConfig returns a copy of the current monitoring settings.
func (s *Store) MonitoringConfig() MonitoringConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.monitoring
	cfg.Metrics = append([]string(nil), cfg.Metrics...)
	return cfg
}

// LogStats counts the demo buffer per level.
func (s *Store) LogStats() model.Stats { return s.logs.LogStats() }

// State returns a snapshot of the demo page.
func (s *Store) State() State {
	s.mu.Lock()
	st := State{
		CurrentMode:      s.mode,
		PanelOpen:        s.panelOpen,
		PanelConfig:      s.panelConfig,
		APIMockConfig:    s.apiMock,
		MonitoringConfig: s.monitoring,
	}
	s.mu.Unlock()
	st.CurrentScenario = s.CurrentScenario()
	st.LogStats = s.LogStats()
	return st
}

// SwitchMode selects a scenario and applies its panel options.
func (s *Store) SwitchMode(mode Mode) error {
	sc, ok := s.scenario(mode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	s.mu.Lock()
	s.mode = mode
	s.panelConfig = sc.Config
	s.mu.Unlock()

	s.log.Info("demo mode switched", "mode", mode)
	return s.syncPanel(sc.Config)
}

// TogglePanel flips panel visibility and returns the new state.
func (s *Store) TogglePanel() bool {
	s.mu.Lock()
	s.panelOpen = !s.panelOpen
	open := s.panelOpen
	s.mu.Unlock()

	if s.controller != nil && s.controller.IsOpen() != open {
		s.controller.Toggle()
	}
	return open
}

// UpdatePanelOptions merges patch into the panel options.
func (s *Store) UpdatePanelOptions(patch OptionsPatch) error {
	s.mu.Lock()
	s.panelConfig = patch.apply(s.panelConfig)
	cfg := s.panelConfig
	s.mu.Unlock()
	return s.syncPanel(cfg)
}

func (s *Store) syncPanel(cfg PanelOptions) error {
	if s.controller == nil {
		return nil
	}
	return s.controller.UpdateConfig(panel.ConfigPatch{
		Width:      &cfg.Width,
		MaxLogs:    &cfg.MaxLogs,
		AutoScroll: &cfg.AutoScroll,
	})
}

// GenerateSampleLogs appends the entries of the named sample. Unknown ids are
// ignored and reported as false.
func (s *Store) GenerateSampleLogs(id string) bool {
	for _, sample := range s.samples {
		if sample.ID == id {
			sample.generate(s.logs)
			return true
		}
	}
	return false
}

// ClearAllLogs empties the demo buffer.
func (s *Store) ClearAllLogs() { s.logs.ClearLogs() }

func (s *Store) float64() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Store) intN(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}

// StartAPIMocking begins logging simulated API calls. It returns false when
// the simulation is already running.
func (s *Store) StartAPIMocking(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.apiMock.Enabled {
		return false
	}
	s.apiMock.Enabled = true
	s.logs.Info("API 模拟已开启", opts("Mock", "API"))

	responseTime := time.Duration(s.apiMock.ResponseTime) * time.Millisecond
	s.apiTask = schedule.Start(ctx, responseTime, s.mockCall)
	return true
}

func (s *Store) mockCall(ctx context.Context) time.Duration {
	cfg := s.APIMockConfig()
	if !cfg.Enabled {
		return -1
	}
	if s.float64() < cfg.SuccessRate {
		s.logs.Info(fmt.Sprintf("%s %s - 200 OK", cfg.Method, cfg.Endpoint), &model.CreateOptions{
			Category: "HTTP", Source: "Mock API",
			Details: map[string]any{"method": cfg.Method, "endpoint": cfg.Endpoint, "status": 200},
		})
	} else {
		s.logs.Error(fmt.Sprintf("%s %s - 500 Error", cfg.Method, cfg.Endpoint), &model.CreateOptions{
			Category: "HTTP", Source: "Mock API",
			Details: map[string]any{"method": cfg.Method, "endpoint": cfg.Endpoint, "status": 500, "error": "Internal Server Error"},
		})
	}
	responseTime := time.Duration(cfg.ResponseTime) * time.Millisecond
	jitter := time.Duration(s.float64() * float64(2*time.Second))
	// the next call waits for the pause and then its own response time
	return responseTime + jitter + responseTime
}

// StopAPIMocking ends the API simulation.
func (s *Store) StopAPIMocking() {
	s.mu.Lock()
	s.apiMock.Enabled = false
	task := s.apiTask
	s.apiTask = nil
	s.mu.Unlock()

	task.Stop()
	s.logs.Info("API 模拟已关闭", opts("Mock", "API"))
}

// StartMonitoring begins logging simulated system metrics. It returns false
// when monitoring is already running.
func (s *Store) StartMonitoring(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.monitoring.Enabled {
		return false
	}
	s.monitoring.Enabled = true
	s.logs.Info("系统监控已开启", opts("Monitor", "System"))
	s.monitorTask = schedule.Start(ctx, 0, s.sampleMetrics)
	return true
}

func (s *Store) sampleMetrics(ctx context.Context) time.Duration {
	cfg := s.MonitoringConfig()
	if !cfg.Enabled {
		return -1
	}
	for _, metric := range cfg.Metrics {
		value := s.intN(100)
		level := model.LevelInfo
		if float64(value) > cfg.AlertThreshold {
			level = model.LevelWarn
		}
		s.logs.AddLog(level, fmt.Sprintf("%s 使用率: %d%%", strings.ToUpper(metric), value), &model.CreateOptions{
			Category: "Monitor", Source: "System",
			Details: map[string]any{"metric": metric, "value": value, "threshold": cfg.AlertThreshold},
		})
	}
	return time.Duration(cfg.Interval) * time.Millisecond
}

// StopMonitoring ends the monitoring simulation.
func (s *Store) StopMonitoring() {
	s.mu.Lock()
	s.monitoring.Enabled = false
	task := s.monitorTask
	s.monitorTask = nil
	s.mu.Unlock()

	task.Stop()
	s.logs.Info("系统监控已关闭", opts("Monitor", "System"))
}

// Close stops any running simulation without logging.
func (s *Store) Close() {
	s.mu.Lock()
	s.apiMock.Enabled = false
	s.monitoring.Enabled = false
	tasks := []*schedule.Task{s.apiTask, s.monitorTask}
	s.apiTask, s.monitorTask = nil, nil
	s.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
}

// Save persists mode, panel and simulation settings.
func (s *Store) Save(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	s.mu.Lock()
	panelCfg := s.panelConfig
	apiCfg := s.apiMock
	monCfg := s.monitoring
	open := s.panelOpen
	data := persisted{
		CurrentMode:      s.mode,
		PanelConfig:      &panelCfg,
		APIMockConfig:    &apiCfg,
		MonitoringConfig: &monCfg,
		IsLogPanelOpen:   &open,
	}
	s.mu.Unlock()
	return persist.SaveJSON(ctx, s.kv, persist.KeyDemo, data)
}

// Load restores persisted settings. Simulations are never resumed: the
// enabled flags are cleared so Start* can run them again.
func (s *Store) Load(ctx context.Context) bool {
	if s.kv == nil {
		return false
	}
	var data persisted
	if !persist.LoadJSON(ctx, s.kv, persist.KeyDemo, &data, s.log) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if data.CurrentMode != "" {
		s.mode = data.CurrentMode
	}
	if data.PanelConfig != nil {
		s.panelConfig = *data.PanelConfig
	}
	if data.APIMockConfig != nil && !s.apiMock.Enabled {
		s.apiMock = data.APIMockConfig.normalized()
		s.apiMock.Enabled = false
	}
	if data.MonitoringConfig != nil && !s.monitoring.Enabled {
		s.monitoring = data.MonitoringConfig.normalized()
		s.monitoring.Enabled = false
	}
	if data.IsLogPanelOpen != nil {
		s.panelOpen = *data.IsLogPanelOpen
	}
	return true
}

// Initialize restores persisted settings and records the page load.
func (s *Store) Initialize(ctx context.Context) {
	s.Load(ctx)
	s.logs.Info("LogPanel 演示页面已加载", opts("Demo", "Page"))
}
