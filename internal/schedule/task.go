// Package schedule runs self-rescheduling background steps that stop when
// their context is cancelled.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Step runs one iteration and returns the delay before the next one.
// A negative delay stops the task.
type Step func(ctx context.Context) time.Duration

// Task is a running chain of steps.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	running bool
}

// Start runs step after initial and keeps rescheduling it with the delay it
// returns. Cancelling ctx or calling Stop ends the chain before the next step.
func Start(ctx context.Context, initial time.Duration, step Step) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{}), running: true}
	go t.loop(ctx, initial, step)
	return t
}

func (t *Task) loop(ctx context.Context, delay time.Duration, step Step) {
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		close(t.done)
	}()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}
		next := step(ctx)
		if next < 0 {
			return
		}
		timer.Reset(next)
	}
}

// Stop cancels the task and waits for an in-flight step to return.
// It is safe to call more than once.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

// Done is closed once the task has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Running reports whether the task loop is still alive.
func (t *Task) Running() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
