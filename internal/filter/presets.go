package filter

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"logpanel/internal/model"
)

// ErrUnknownPreset is returned by ApplyPreset for unregistered names.
var ErrUnknownPreset = errors.New("unknown filter preset")

// Preset names accepted by ApplyPreset.
const (
	PresetErrorsOnly        = "errors-only"
	PresetWarningsAndErrors = "warnings-and-errors"
	PresetLastHour          = "last-hour"
	PresetLast24Hours       = "last-24-hours"
)

// ErrorsOnly restricts levels to error.
func (e *Engine) ErrorsOnly() {
	e.SetLevelFilter([]model.Level{model.LevelError})
}

// WarningsAndErrors restricts levels to warn and error.
func (e *Engine) WarningsAndErrors() {
	e.SetLevelFilter([]model.Level{model.LevelWarn, model.LevelError})
}

// LastHour keeps entries newer than one hour before now.
func (e *Engine) LastHour() { e.since(time.Hour) }

// Last24Hours keeps entries newer than 24 hours before now.
func (e *Engine) Last24Hours() { e.since(24 * time.Hour) }

func (e *Engine) since(d time.Duration) {
	start := e.now().Add(-d).UnixMilli()
	e.SetTimeRangeFilter(&start, nil)
}

// Presets returns the named one-shot filter mutations.
func (e *Engine) Presets() map[string]func() {
	return map[string]func(){
		PresetErrorsOnly:        e.ErrorsOnly,
		PresetWarningsAndErrors: e.WarningsAndErrors,
		PresetLastHour:          e.LastHour,
		PresetLast24Hours:       e.Last24Hours,
	}
}

// PresetNames lists the registered preset names, sorted.
func PresetNames() []string {
	names := []string{PresetErrorsOnly, PresetWarningsAndErrors, PresetLastHour, PresetLast24Hours}
	sort.Strings(names)
	return names
}

// ApplyPreset runs the preset registered under name.
func (e *Engine) ApplyPreset(name string) error {
	fn, ok := e.Presets()[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	fn()
	return nil
}
