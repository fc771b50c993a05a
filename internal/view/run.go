package view

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"logpanel/internal/format"
	"logpanel/internal/model"
)

// Options defines the configurable parameters for rendering a view.
type Options struct {
	Entries       []model.LogEntry
	Format        string
	Wrap          int
	MaxEntries    int
	IncludeHeader bool
	ForceColor    bool
	ForceNoColor  bool
	NoPager       bool
	Location      *time.Location
	Out           io.Writer
	OutFile       *os.File
}

// Run renders entries according to the provided options. MaxEntries keeps
// only the newest entries.
func Run(opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	entries := opts.Entries
	if opts.MaxEntries > 0 {
		ring := newEntryRing(opts.MaxEntries)
		for _, entry := range entries {
			ring.push(entry)
		}
		entries = ring.slice()
	}

	formatMode := strings.ToLower(opts.Format)
	if formatMode == "" {
		formatMode = "text"
	}

	switch formatMode {
	case "text":
		useColor := resolveColorChoice(opts)
		width := determineWidth(opts.OutFile, opts.Wrap)
		lines := renderText(entries, width, useColor, opts.Location)
		if len(lines) == 0 {
			return nil
		}
		if !opts.NoPager && opts.OutFile != nil && isatty.IsTerminal(opts.OutFile.Fd()) {
			return pipeThroughPager(lines, useColor)
		}
		return writeLines(opts.Out, lines)
	case "table", "plain", "json", "jsonl":
		return format.WriteEntries(opts.Out, entries, opts.IncludeHeader, formatMode, opts.Location)
	default:
		return fmt.Errorf("unsupported format: %s", opts.Format)
	}
}

type entryRing struct {
	data   []model.LogEntry
	start  int
	length int
}

func newEntryRing(capacity int) *entryRing {
	if capacity <= 0 {
		return &entryRing{}
	}
	return &entryRing{data: make([]model.LogEntry, capacity)}
}

func (r *entryRing) push(entry model.LogEntry) {
	if len(r.data) == 0 {
		return
	}
	idx := (r.start + r.length) % len(r.data)
	r.data[idx] = entry
	if r.length < len(r.data) {
		r.length++
		return
	}
	r.start = (r.start + 1) % len(r.data)
}

func (r *entryRing) slice() []model.LogEntry {
	if r.length == 0 {
		return nil
	}
	result := make([]model.LogEntry, r.length)
	for i := 0; i < r.length; i++ {
		result[i] = r.data[(r.start+i)%len(r.data)]
	}
	return result
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func pipeThroughPager(lines []string, colorEnabled bool) error {
	text := strings.Join(lines, "\n")
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	pagerCmd := os.Getenv("PAGER")
	var cmd *exec.Cmd
	if pagerCmd == "" {
		args := []string{"less"}
		if colorEnabled {
			args = append(args, "-R")
		}
		cmd = exec.Command(args[0], args[1:]...) // #nosec G204
	} else {
		cmd = exec.Command("sh", "-c", pagerCmd) // #nosec G204
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pager pipe: %w", err)
	}
	go func() {
		defer stdin.Close()
		io.WriteString(stdin, text) //nolint:errcheck
	}()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}

	return nil
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func renderText(entries []model.LogEntry, width int, useColor bool, loc *time.Location) []string {
	var lines []string
	for idx, entry := range entries {
		if idx > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, renderEntry(entry, idx+1, width, useColor, loc)...)
	}
	return lines
}

func renderEntry(entry model.LogEntry, index int, width int, useColor bool, loc *time.Location) []string {
	ts := time.UnixMilli(entry.Timestamp).In(loc).Format(time.RFC3339)
	origin := entry.Category + "/" + entry.Source
	headerPlain := fmt.Sprintf("[#%03d] %-5s | %s | %s", index, entry.Level.Upper(), ts, origin)

	indexText := fmt.Sprintf("#%03d", index)
	levelText := fmt.Sprintf("%-5s", entry.Level.Upper())
	tsText := ts
	separator := "|"
	if useColor {
		indexText = colorize(true, ansiBoldWhite, indexText)
		levelText = colorize(true, levelColor(entry.Level), levelText)
		tsText = colorize(true, ansiTimestamp, tsText)
		separator = colorize(true, ansiSeparator, "|")
	}

	lines := []string{
		fmt.Sprintf("[%s] %s %s %s %s %s", indexText, levelText, separator, tsText, separator, origin),
		strings.Repeat("-", visibleWidth(headerPlain)),
	}

	linePrefix := "| "
	emptyPrefix := "|"
	if useColor {
		separatorColor := colorize(true, ansiSeparator, "|")
		linePrefix = separatorColor + " "
		emptyPrefix = separatorColor
	}
	bodyWidth := width - 2
	if bodyWidth < 8 {
		bodyWidth = 8
	}
	for _, line := range format.RenderEntryLines(entry, bodyWidth) {
		if line == "" {
			lines = append(lines, emptyPrefix)
			continue
		}
		lines = append(lines, linePrefix+line)
	}
	return lines
}

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiTimestamp = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiDebug     = "\x1b[38;5;244m"
	ansiInfo      = "\x1b[38;5;44m"
	ansiWarn      = "\x1b[38;5;220m"
	ansiError     = "\x1b[38;5;196m"
	ansiReverse   = "\x1b[7m"
)

func colorize(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return code + text + ansiReset
}

func levelColor(level model.Level) string {
	switch level {
	case model.LevelDebug:
		return ansiDebug
	case model.LevelInfo:
		return ansiInfo
	case model.LevelWarn:
		return ansiWarn
	case model.LevelError:
		return ansiError
	default:
		return ansiSeparator
	}
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
