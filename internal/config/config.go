// Package config loads logpanel settings from defaults, an optional config
// file and LOGPANEL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix. LOGPANEL_PANEL_MAXLOGS maps
// to panel.maxlogs.
const EnvPrefix = "LOGPANEL_"

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Panel   PanelConfig   `mapstructure:"panel"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Export  ExportConfig  `mapstructure:"export"`
	Demo    DemoConfig    `mapstructure:"demo"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PanelConfig struct {
	Width         int    `mapstructure:"width"`
	Temporary     bool   `mapstructure:"temporary"`
	Color         string `mapstructure:"color"`
	Dark          bool   `mapstructure:"dark"`
	MaxLogs       int    `mapstructure:"maxlogs"`
	AutoScroll    bool   `mapstructure:"autoscroll"`
	ShowTimestamp bool   `mapstructure:"showtimestamp"`
	ShowCategory  bool   `mapstructure:"showcategory"`
	ShowSource    bool   `mapstructure:"showsource"`
}

// StorageConfig selects where demo, dashboard and login state is kept.
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory, sqlite
	Path   string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// RateLimit is the number of log submissions allowed per client per minute.
	RateLimit int `mapstructure:"ratelimit"`
	Burst     int `mapstructure:"burst"`
}

type ExportConfig struct {
	Dir      string `mapstructure:"dir"`
	Base     string `mapstructure:"base"`
	Timezone string `mapstructure:"timezone"`
}

// AuthConfig controls the simulated login. An empty secret issues opaque
// mock tokens; an empty email accepts any filled-in form.
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	// Delay is the simulated round trip in milliseconds.
	Delay    int    `mapstructure:"delay"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

// DemoConfig seeds the demo simulations.
type DemoConfig struct {
	Mode       string           `mapstructure:"mode"`
	APIMock    APIMockConfig    `mapstructure:"apimock"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type APIMockConfig struct {
	SuccessRate float64 `mapstructure:"successrate"`
	// ResponseTime is in milliseconds.
	ResponseTime int    `mapstructure:"responsetime"`
	Endpoint     string `mapstructure:"endpoint"`
	Method       string `mapstructure:"method"`
}

type MonitoringConfig struct {
	// Interval is in milliseconds.
	Interval       int      `mapstructure:"interval"`
	Metrics        []string `mapstructure:"metrics"`
	AlertThreshold float64  `mapstructure:"alertthreshold"`
}

// defaultMonitoringInterval also replaces non-positive intervals.
const defaultMonitoringInterval = 3000

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("panel.width", 400)
	v.SetDefault("panel.temporary", true)
	v.SetDefault("panel.color", "grey-darken-4")
	v.SetDefault("panel.dark", true)
	v.SetDefault("panel.maxlogs", 1000)
	v.SetDefault("panel.autoscroll", true)
	v.SetDefault("panel.showtimestamp", true)
	v.SetDefault("panel.showcategory", true)
	v.SetDefault("panel.showsource", true)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.path", "logpanel.db")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.ratelimit", 600)
	v.SetDefault("server.burst", 50)

	v.SetDefault("export.dir", ".")
	v.SetDefault("export.base", "logs")
	v.SetDefault("export.timezone", "Local")

	v.SetDefault("demo.mode", "basic")
	v.SetDefault("demo.apimock.successrate", 0.8)
	v.SetDefault("demo.apimock.responsetime", 1000)
	v.SetDefault("demo.apimock.endpoint", "/api/users")
	v.SetDefault("demo.apimock.method", "GET")
	v.SetDefault("demo.monitoring.interval", defaultMonitoringInterval)
	v.SetDefault("demo.monitoring.metrics", []string{"cpu", "memory", "network"})
	v.SetDefault("demo.monitoring.alertthreshold", 80)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.delay", 1000)
	v.SetDefault("auth.email", "")
	v.SetDefault("auth.password", "")
}

// Default returns the built-in configuration.
func Default() Config {
	cfg, _ := load(viper.New(), nil)
	return cfg
}

// Load reads path when set, otherwise an optional logpanel.{yaml,json,toml}
// from the working directory, then applies LOGPANEL_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("logpanel")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return load(v, os.Environ())
}

func load(v *viper.Viper, environ []string) (Config, error) {
	setDefaults(v)
	for _, envStr := range environ {
		key, value, ok := strings.Cut(envStr, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		propKey := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(key, EnvPrefix), "_", "."))
		v.Set(strings.TrimPrefix(propKey, "."), value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Demo.Monitoring.Interval <= 0 {
		cfg.Demo.Monitoring.Interval = defaultMonitoringInterval
	}
	if cfg.Demo.APIMock.ResponseTime < 0 {
		cfg.Demo.APIMock.ResponseTime = 0
	}
	return cfg, nil
}

// Location resolves the export timezone, falling back to time.Local.
func (c ExportConfig) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
