package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Panel.Width != 400 || cfg.Panel.MaxLogs != 1000 || !cfg.Panel.AutoScroll {
		t.Fatalf("unexpected panel defaults: %#v", cfg.Panel)
	}
	if cfg.Storage.Driver != "memory" || cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected defaults: %#v %#v", cfg.Storage, cfg.Server)
	}
	if cfg.Demo.APIMock.SuccessRate != 0.8 || cfg.Demo.APIMock.Endpoint != "/api/users" {
		t.Fatalf("unexpected api mock defaults: %#v", cfg.Demo.APIMock)
	}
	if !reflect.DeepEqual(cfg.Demo.Monitoring.Metrics, []string{"cpu", "memory", "network"}) {
		t.Fatalf("unexpected metrics: %v", cfg.Demo.Monitoring.Metrics)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logpanel.yaml")
	content := "panel:\n  width: 600\n  maxlogs: 200\nstorage:\n  driver: sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LOGPANEL_PANEL_MAXLOGS", "50")
	t.Setenv("LOGPANEL_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Panel.Width != 600 {
		t.Fatalf("file value not applied: %d", cfg.Panel.Width)
	}
	if cfg.Panel.MaxLogs != 50 {
		t.Fatalf("environment should override file, got %d", cfg.Panel.MaxLogs)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected values: %#v %#v", cfg.Storage, cfg.Log)
	}
	if cfg.Panel.Color != "grey-darken-4" {
		t.Fatalf("defaults should survive partial files: %q", cfg.Panel.Color)
	}
}

func TestLoadClampsDemoDelays(t *testing.T) {
	t.Setenv("LOGPANEL_DEMO_MONITORING_INTERVAL", "0")
	t.Setenv("LOGPANEL_DEMO_APIMOCK_RESPONSETIME", "-5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Demo.Monitoring.Interval != 3000 {
		t.Fatalf("expected default interval, got %d", cfg.Demo.Monitoring.Interval)
	}
	if cfg.Demo.APIMock.ResponseTime != 0 {
		t.Fatalf("expected response time 0, got %d", cfg.Demo.APIMock.ResponseTime)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestExportLocation(t *testing.T) {
	loc, err := ExportConfig{Timezone: "UTC"}.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("unexpected location: %v %v", loc, err)
	}
	if loc, _ := (ExportConfig{}).Location(); loc != time.Local {
		t.Fatal("empty timezone should be local")
	}
	if _, err := (ExportConfig{Timezone: "Nowhere/City"}).Location(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
