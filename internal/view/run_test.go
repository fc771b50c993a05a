package view

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"logpanel/internal/filter"
	"logpanel/internal/model"
	"logpanel/internal/panel"
	"logpanel/internal/store"
)

func sampleEntries(n int) []model.LogEntry {
	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	entries := make([]model.LogEntry, n)
	for i := range entries {
		entries[i] = model.LogEntry{
			ID:        string(rune('a' + i)),
			Timestamp: base + int64(i)*1000,
			Level:     model.LevelInfo,
			Message:   "message " + string(rune('a'+i)),
			Category:  "System",
			Source:    "Main",
		}
	}
	return entries
}

func TestRunTextKeepsNewest(t *testing.T) {
	var buf bytes.Buffer
	err := Run(Options{
		Entries:      sampleEntries(5),
		Format:       "text",
		MaxEntries:   2,
		ForceNoColor: true,
		Location:     time.UTC,
		Out:          &buf,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "message c") || !strings.Contains(out, "message d") || !strings.Contains(out, "message e") {
		t.Fatalf("expected only the newest two entries:\n%s", out)
	}
	if !strings.Contains(out, "[#001] INFO  | 2025-10-01T12:00:03Z | System/Main") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("color should be disabled:\n%q", out)
	}
}

func TestRunTextColor(t *testing.T) {
	entries := sampleEntries(1)
	entries[0].Level = model.LevelError

	var buf bytes.Buffer
	if err := Run(Options{Entries: entries, ForceColor: true, Location: time.UTC, Out: &buf}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(buf.String(), ansiError+"ERROR") {
		t.Fatalf("error level should be colored:\n%q", buf.String())
	}
}

func TestRunDelegatesTabularFormats(t *testing.T) {
	var buf bytes.Buffer
	err := Run(Options{Entries: sampleEntries(2), Format: "plain", IncludeHeader: true, Location: time.UTC, Out: &buf})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "timestamp\tlevel") {
		t.Fatalf("unexpected plain output:\n%s", buf.String())
	}

	if err := Run(Options{Format: "xml", Out: &buf}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestEntryRing(t *testing.T) {
	ring := newEntryRing(3)
	for _, entry := range sampleEntries(5) {
		ring.push(entry)
	}
	got := ring.slice()
	if len(got) != 3 || got[0].ID != "c" || got[2].ID != "e" {
		t.Fatalf("unexpected ring contents: %#v", got)
	}
	if newEntryRing(0).slice() != nil {
		t.Fatal("zero capacity ring should stay empty")
	}
}

type fakeClipboard struct {
	text string
	ok   bool
}

func (f *fakeClipboard) Copy(_ context.Context, text string) bool {
	f.text = text
	return f.ok
}

func newSession(t *testing.T, clip Clipboard) (*Session, *panel.Controller) {
	t.Helper()
	logs := store.New(100)
	logs.Info("Server started", &model.CreateOptions{Category: "System", Source: "Main"})
	logs.Warn("disk almost full", &model.CreateOptions{Category: "System", Source: "Monitor"})
	logs.Error("login failed", &model.CreateOptions{Category: "Auth", Source: "Login"})

	ctrl := panel.New(logs, filter.New(), panel.DefaultConfig())
	t.Cleanup(ctrl.Detach)
	return NewSession(ctrl, SessionOptions{Width: 60, Height: 20, Location: time.UTC, Clipboard: clip}), ctrl
}

func press(s *Session, keys string) {
	for _, r := range keys {
		s.Press(context.Background(), r)
	}
}

func TestSessionToggleAndPresets(t *testing.T) {
	s, ctrl := newSession(t, nil)

	if !strings.Contains(strings.Join(s.Frame(), "\n"), "3 logs buffered") {
		t.Fatalf("closed frame should summarize buffer: %v", s.Frame())
	}

	press(s, "l")
	if !ctrl.IsOpen() {
		t.Fatal("l should open the panel")
	}

	press(s, "e")
	frame := strings.Join(s.Frame(), "\n")
	if !strings.Contains(frame, "[1/3]") || !strings.Contains(frame, "login failed") || strings.Contains(frame, "disk almost full") {
		t.Fatalf("errors preset not applied:\n%s", frame)
	}

	press(s, "w")
	if got := len(ctrl.FilteredLogs()); got != 2 {
		t.Fatalf("warnings preset should keep 2 entries, got %d", got)
	}

	press(s, "a")
	if ctrl.Filter().IsActive() {
		t.Fatal("a should clear all filters")
	}

	press(s, "L")
	if ctrl.IsOpen() {
		t.Fatal("upper-case L should close the panel")
	}
}

func TestSessionKeywordInputDoesNotToggle(t *testing.T) {
	s, ctrl := newSession(t, nil)
	press(s, "l/")
	if !s.Editing() {
		t.Fatal("/ should start keyword input")
	}

	press(s, "loginx\x7f\r")
	if !ctrl.IsOpen() {
		t.Fatal("typing l into the search box must not toggle the panel")
	}
	if s.Editing() {
		t.Fatal("enter should finish keyword input")
	}
	if got := ctrl.Filter().Filter().Keyword; got != "login" {
		t.Fatalf("unexpected keyword: %q", got)
	}
	if got := ctrl.FilteredLogs(); len(got) != 1 || got[0].Message != "login failed" {
		t.Fatalf("keyword filter not applied: %#v", got)
	}

	press(s, "/x\x1b")
	if got := ctrl.Filter().Filter().Keyword; got != "login" {
		t.Fatalf("escape should leave the keyword unchanged: %q", got)
	}
}

func TestSessionCopyAndQuit(t *testing.T) {
	clip := &fakeClipboard{ok: true}
	s, _ := newSession(t, clip)

	press(s, "e")
	press(s, "c")
	if !strings.Contains(clip.text, "ERROR [Auth/Login] login failed") || strings.Contains(clip.text, "Server started") {
		t.Fatalf("unexpected copied text: %q", clip.text)
	}
	if s.Status() != "copied 1 logs" {
		t.Fatalf("unexpected status: %q", s.Status())
	}

	clip.ok = false
	press(s, "c")
	if s.Status() != "copy failed" {
		t.Fatalf("unexpected status after failure: %q", s.Status())
	}

	press(s, "q")
	if !s.Done() {
		t.Fatal("q should end the session")
	}
}

func TestFrameRespectsWidth(t *testing.T) {
	s, _ := newSession(t, nil)
	s.Resize(20, 10)
	press(s, "l")
	for _, line := range s.Frame() {
		if visibleWidth(line) > 20 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
}

func TestTruncateToWidthKeepsEscapes(t *testing.T) {
	got := truncateToWidth(colorize(true, ansiInfo, "日志面板"), 5)
	if visibleWidth(got) != 4 || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
