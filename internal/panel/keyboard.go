package panel

import (
	"strings"
	"sync"
)

// Target describes the element holding keyboard focus when a key is pressed.
type Target int

const (
	TargetNone Target = iota
	TargetInput
	TargetTextArea
	TargetContentEditable
)

// IsText reports whether keystrokes on the target are text input.
func (t Target) IsText() bool {
	return t == TargetInput || t == TargetTextArea || t == TargetContentEditable
}

// KeyEvent is a single key press.
type KeyEvent struct {
	Key    string
	Ctrl   bool
	Meta   bool
	Alt    bool
	Target Target
}

// KeyListener handles a key press and reports whether it consumed it.
type KeyListener func(KeyEvent) bool

// KeyDispatcher accepts global key listeners.
type KeyDispatcher interface {
	AddKeyListener(KeyListener)
}

// Keyboard is an in-process KeyDispatcher.
type Keyboard struct {
	mu        sync.RWMutex
	listeners []KeyListener
}

// AddKeyListener appends l to the listener list.
func (k *Keyboard) AddKeyListener(l KeyListener) {
	k.mu.Lock()
	k.listeners = append(k.listeners, l)
	k.mu.Unlock()
}

// ListenerCount returns the number of registered listeners.
func (k *Keyboard) ListenerCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.listeners)
}

// Dispatch delivers ev to every listener and reports whether any consumed it.
func (k *Keyboard) Dispatch(ev KeyEvent) bool {
	k.mu.RLock()
	listeners := append([]KeyListener(nil), k.listeners...)
	k.mu.RUnlock()

	consumed := false
	for _, l := range listeners {
		if l(ev) {
			consumed = true
		}
	}
	return consumed
}

// ToggleKey is the shortcut that toggles the panel.
const ToggleKey = "l"

// HandleKey toggles the panel on an unmodified "l" press outside text inputs.
func (c *Controller) HandleKey(ev KeyEvent) bool {
	if strings.ToLower(ev.Key) != ToggleKey || ev.Ctrl || ev.Meta || ev.Alt {
		return false
	}
	if ev.Target.IsText() {
		return false
	}
	c.Toggle()
	return true
}

// SetupKeyboardShortcut registers HandleKey with d once per controller.
// Later calls are no-ops and return false.
func (c *Controller) SetupKeyboardShortcut(d KeyDispatcher) bool {
	c.mu.Lock()
	if c.shortcutRegistered {
		c.mu.Unlock()
		return false
	}
	c.shortcutRegistered = true
	c.mu.Unlock()

	d.AddKeyListener(c.HandleKey)
	return true
}
