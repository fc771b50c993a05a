// Package persist is the key/value storage used for demo configuration,
// dashboard snapshots and the remembered login token.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"logpanel/internal/logger"
)

// Keys used by the stores that persist their state.
const (
	KeyDashboard  = "dashboard-store-data"
	KeyDemo       = "log-panel-demo-data"
	KeyLoginToken = "login-token"
)

// KV is a string key/value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process KV.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// LoadJSON decodes the value under key into v. Missing keys, storage errors
// and malformed payloads are logged and reported as false; v is left as is.
func LoadJSON(ctx context.Context, kv KV, key string, v any, log *slog.Logger) bool {
	log = logger.OrDefault(log)
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		log.Warn("load persisted state", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Warn("decode persisted state", "key", key, "error", err)
		return false
	}
	return true
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
