package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"logpanel/internal/model"
)

// RenderEntryLines returns the body lines of an entry: the wrapped message,
// then its details and stack when present.
func RenderEntryLines(entry model.LogEntry, wrapWidth int) []string {
	lines := strings.Split(wrapBody(strings.TrimSpace(entry.Message), wrapWidth), "\n")
	if entry.Details != nil {
		data, err := json.Marshal(entry.Details)
		if err == nil {
			lines = append(lines, "Details:")
			lines = append(lines, strings.Split(formatJSON(string(data)), "\n")...)
		}
	}
	if entry.Stack != "" {
		lines = append(lines, "Stack:")
		lines = append(lines, strings.Split(entry.Stack, "\n")...)
	}
	return lines
}

// RenderEntry converts an entry into a printable block with a header line.
func RenderEntry(entry model.LogEntry, wrapWidth int, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	header := fmt.Sprintf("[%s][%s][%s/%s]",
		time.UnixMilli(entry.Timestamp).In(loc).Format(time.RFC3339),
		entry.Level.Upper(),
		entry.Category,
		entry.Source,
	)
	return header + "\n" + strings.Join(RenderEntryLines(entry, wrapWidth), "\n")
}

// wrapBody wraps on word boundaries by display width. Words wider than the
// limit, such as unbroken CJK text, are split by cell width.
func wrapBody(text string, width int) string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	current := ""
	for _, word := range words {
		for runewidth.StringWidth(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			head := runewidth.Truncate(word, width, "")
			if head == "" {
				_, size := utf8.DecodeRuneInString(word)
				head = word[:size]
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		if word == "" {
			continue
		}
		switch {
		case current == "":
			current = word
		case runewidth.StringWidth(current)+1+runewidth.StringWidth(word) > width:
			lines = append(lines, current)
			current = word
		default:
			current += " " + word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	return strings.Join(lines, "\n")
}

func formatJSON(raw string) string {
	if raw == "" {
		return raw
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err == nil {
		return buf.String()
	}
	return raw
}
