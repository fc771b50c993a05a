package view

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"logpanel/internal/export"
	"logpanel/internal/model"
	"logpanel/internal/panel"
)

// Clipboard copies text and reports success.
type Clipboard interface {
	Copy(ctx context.Context, text string) bool
}

// SessionOptions configures an interactive panel session.
type SessionOptions struct {
	Width     int
	Height    int
	Color     bool
	Location  *time.Location
	Clipboard Clipboard
	Now       func() time.Time
}

const (
	keyCtrlC     = 0x03
	keyBackspace = 0x08
	keyEnter     = '\r'
	keyNewline   = '\n'
	keyEscape    = 0x1b
	keyDelete    = 0x7f
)

const helpLine = "l toggle  / search  e errors  w warn+err  a all  c copy  q quit"

// Session is the interactive terminal panel. Key presses go through a
// panel.Keyboard so the controller's shortcut rules decide when "l" toggles.
type Session struct {
	ctrl *panel.Controller
	keys *panel.Keyboard
	opts SessionOptions

	editing bool
	input   []rune
	status  string
	done    bool
}

// NewSession binds a session to ctrl and registers the toggle shortcut.
func NewSession(ctrl *panel.Controller, opts SessionOptions) *Session {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 24
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Session{ctrl: ctrl, keys: &panel.Keyboard{}, opts: opts}
	ctrl.SetupKeyboardShortcut(s.keys)
	return s
}

// Done reports whether the user asked to quit.
func (s *Session) Done() bool { return s.done }

// Editing reports whether keyword input is active.
func (s *Session) Editing() bool { return s.editing }

// Status returns the last status message.
func (s *Session) Status() string { return s.status }

// Resize updates the frame dimensions.
func (s *Session) Resize(width, height int) {
	if width > 0 {
		s.opts.Width = width
	}
	if height > 0 {
		s.opts.Height = height
	}
}

// Press handles a single key.
func (s *Session) Press(ctx context.Context, r rune) {
	if r == keyCtrlC {
		s.done = true
		return
	}
	if s.editing {
		s.pressInput(r)
		return
	}
	if s.keys.Dispatch(panel.KeyEvent{Key: string(r)}) {
		s.status = ""
		return
	}

	engine := s.ctrl.Filter()
	switch r {
	case '/':
		s.editing = true
		s.input = []rune(engine.Filter().Keyword)
	case 'e':
		engine.ErrorsOnly()
		s.status = "filter: errors only"
	case 'w':
		engine.WarningsAndErrors()
		s.status = "filter: warnings and errors"
	case 'a':
		engine.ClearAll()
		s.status = "filter: all"
	case 'c':
		s.copyVisible(ctx)
	case 'q':
		s.done = true
	}
}

func (s *Session) pressInput(r rune) {
	// Text input is the focus target, so the toggle shortcut stays inert here.
	s.keys.Dispatch(panel.KeyEvent{Key: string(r), Target: panel.TargetInput})

	switch r {
	case keyEnter, keyNewline:
		s.ctrl.Filter().SetKeywordFilter(string(s.input))
		s.editing = false
		s.status = ""
	case keyEscape:
		s.editing = false
		s.input = nil
	case keyDelete, keyBackspace:
		if len(s.input) > 0 {
			s.input = s.input[:len(s.input)-1]
		}
	default:
		if unicode.IsPrint(r) {
			s.input = append(s.input, r)
		}
	}
}

func (s *Session) copyVisible(ctx context.Context) {
	entries := s.ctrl.FilteredLogs()
	if len(entries) == 0 {
		s.status = "nothing to copy"
		return
	}
	text, err := export.Logs(entries, export.Options{Format: export.FormatTXT, Location: s.opts.Location})
	if err != nil {
		s.status = "copy failed: " + err.Error()
		return
	}
	if s.opts.Clipboard == nil || !s.opts.Clipboard.Copy(ctx, text) {
		s.status = "copy failed"
		return
	}
	s.status = fmt.Sprintf("copied %d logs", len(entries))
}

// Frame renders the current screen as lines no wider than the session width.
func (s *Session) Frame() []string {
	width := s.opts.Width
	var lines []string

	if !s.ctrl.IsOpen() {
		lines = append(lines,
			colorize(s.opts.Color, ansiBoldWhite, "LogPanel"),
			fmt.Sprintf("%d logs buffered, press l to open", s.ctrl.Store().LogCount()),
		)
		return s.finish(lines, width)
	}

	visible := s.ctrl.FilteredLogs()
	state := s.ctrl.State()
	lines = append(lines,
		fmt.Sprintf("%s  [%d/%d]  filters: %d",
			colorize(s.opts.Color, ansiBoldWhite, "LogPanel"),
			len(visible), s.ctrl.Store().LogCount(), state.FilterCount),
		describeFilter(s.ctrl.Filter().Filter()),
		strings.Repeat("─", width),
	)

	room := s.opts.Height - len(lines) - 2
	if room < 1 {
		room = 1
	}
	if len(visible) > room {
		visible = visible[len(visible)-room:]
	}
	if len(visible) == 0 {
		lines = append(lines, "(no logs)")
	}
	now := s.opts.Now()
	for _, entry := range visible {
		lines = append(lines, s.entryLine(entry, state.Config, now))
	}
	return s.finish(lines, width)
}

func (s *Session) finish(lines []string, width int) []string {
	footer := helpLine
	switch {
	case s.editing:
		footer = "/" + string(s.input) + "_"
	case s.status != "":
		footer = s.status
	}
	lines = append(lines, "", footer)
	for i, line := range lines {
		lines[i] = truncateToWidth(line, width)
	}
	return lines
}

func (s *Session) entryLine(entry model.LogEntry, cfg panel.Config, now time.Time) string {
	var parts []string
	if cfg.ShowTimestamp {
		parts = append(parts, colorize(s.opts.Color, ansiTimestamp,
			export.FormatTimestamp(entry.Timestamp, export.TimestampTime, now, s.opts.Location)))
	}
	parts = append(parts, colorize(s.opts.Color, levelColor(entry.Level), fmt.Sprintf("%-5s", entry.Level.Upper())))
	switch {
	case cfg.ShowCategory && cfg.ShowSource:
		parts = append(parts, "["+entry.Category+"/"+entry.Source+"]")
	case cfg.ShowCategory:
		parts = append(parts, "["+entry.Category+"]")
	case cfg.ShowSource:
		parts = append(parts, "["+entry.Source+"]")
	}
	parts = append(parts, export.FormatMessage(entry.Message, 0))
	line := strings.Join(parts, " ")
	if entry.ID == s.ctrl.Selected() {
		line = colorize(s.opts.Color, ansiReverse, line)
	}
	return line
}

func describeFilter(f model.Filter) string {
	var parts []string
	if len(f.Levels) > 0 {
		names := make([]string, len(f.Levels))
		for i, level := range f.Levels {
			names[i] = string(level)
		}
		parts = append(parts, "level="+strings.Join(names, ","))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, "category="+strings.Join(f.Categories, ","))
	}
	if len(f.Sources) > 0 {
		parts = append(parts, "source="+strings.Join(f.Sources, ","))
	}
	if f.Keyword != "" {
		parts = append(parts, fmt.Sprintf("keyword=%q", f.Keyword))
	}
	if f.TimeRange.IsSet() {
		parts = append(parts, "time range")
	}
	if len(parts) == 0 {
		return "no filters"
	}
	return strings.Join(parts, "  ")
}

// RunPanel drives a session from in until the user quits, in closes, or ctx
// is cancelled. When in is a terminal it is switched to raw mode.
func RunPanel(ctx context.Context, ctrl *panel.Controller, in *os.File, out *os.File, opts SessionOptions) error {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("enter raw mode: %w", err)
		}
		defer term.Restore(fd, state) //nolint:errcheck
	}
	if w, h, err := term.GetSize(int(out.Fd())); err == nil {
		if opts.Width <= 0 {
			opts.Width = w
		}
		if opts.Height <= 0 {
			opts.Height = h
		}
	}

	session := NewSession(ctrl, opts)
	reader := bufio.NewReader(in)
	for {
		if err := drawFrame(out, session.Frame()); err != nil {
			return err
		}
		if session.Done() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		r, _, err := reader.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		session.Press(ctx, r)
	}
}

func drawFrame(out io.Writer, lines []string) error {
	_, err := io.WriteString(out, "\x1b[H\x1b[2J"+strings.Join(lines, "\r\n")+"\r\n")
	return err
}

func truncateToWidth(text string, width int) string {
	if visibleWidth(text) <= width {
		return text
	}
	var colored strings.Builder
	current := 0
	sawEscape := false

	for i := 0; i < len(text); {
		if m := ansiPattern.FindStringIndex(text[i:]); m != nil && m[0] == 0 {
			colored.WriteString(text[i : i+m[1]])
			sawEscape = true
			i += m[1]
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		rw := runewidth.RuneWidth(r)
		if current+rw > width {
			break
		}
		colored.WriteRune(r)
		current += rw
		i += size
	}
	if sawEscape {
		colored.WriteString(ansiReset)
	}
	return colored.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visibleWidth(text string) int {
	clean := ansiPattern.ReplaceAllString(text, "")
	return runewidth.StringWidth(clean)
}
