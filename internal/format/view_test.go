package format

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"logpanel/internal/model"
)

func TestRenderEntryLinesWrapsMessage(t *testing.T) {
	entry := model.LogEntry{Message: "one two three four five six"}

	lines := RenderEntryLines(entry, 10)
	if len(lines) < 2 {
		t.Fatalf("expected wrapped lines, got %v", lines)
	}
	for _, line := range lines {
		if runewidth.StringWidth(line) > 10 {
			t.Fatalf("line exceeds wrap width: %q", line)
		}
	}
}

func TestRenderEntryLinesDetailsAndStack(t *testing.T) {
	entry := model.LogEntry{
		Message: "boom",
		Details: map[string]any{"foo": 1, "bar": map[string]any{"baz": 2}},
		Stack:   "at a\nat b",
	}

	lines := RenderEntryLines(entry, 80)
	if lines[0] != "boom" || lines[1] != "Details:" {
		t.Fatalf("unexpected leading lines: %v", lines[:2])
	}
	if strings.TrimSpace(lines[2]) != "{" || !strings.HasPrefix(lines[3], "  ") {
		t.Fatalf("details should be pretty printed: %v", lines)
	}
	n := len(lines)
	if lines[n-3] != "Stack:" || lines[n-2] != "at a" || lines[n-1] != "at b" {
		t.Fatalf("stack lines unexpected: %v", lines[n-3:])
	}
}

func TestWrapBodyWideRunes(t *testing.T) {
	got := wrapBody("日志面板测试消息", 5)
	for _, line := range strings.Split(got, "\n") {
		if runewidth.StringWidth(line) > 5 {
			t.Fatalf("line exceeds width: %q", line)
		}
	}
	if strings.ReplaceAll(got, "\n", "") != "日志面板测试消息" {
		t.Fatalf("wrapping should not drop characters: %q", got)
	}

	if got := wrapBody("宽", 1); got != "宽" {
		t.Fatalf("a rune wider than the limit should still be emitted: %q", got)
	}
}

func TestRenderEntryHeader(t *testing.T) {
	entry := model.LogEntry{
		Timestamp: time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC).UnixMilli(),
		Level:     model.LevelWarn,
		Category:  "System",
		Source:    "Monitor",
		Message:   "disk almost full",
	}

	out := RenderEntry(entry, 0, time.UTC)
	expected := "[2025-10-25T12:00:00Z][WARN][System/Monitor]\ndisk almost full"
	if out != expected {
		t.Fatalf("unexpected render:\nexpected: %q\nactual:   %q", expected, out)
	}
}
