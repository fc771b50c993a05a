// Package clipboard copies text to the system clipboard on a best-effort basis.
package clipboard

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"
)

// Command is a clipboard helper program and its arguments.
type Command struct {
	Name string
	Args []string
}

// DefaultCommands are tried in order until one is installed and succeeds.
var DefaultCommands = []Command{
	{Name: "pbcopy"},
	{Name: "wl-copy"},
	{Name: "xclip", Args: []string{"-selection", "clipboard"}},
	{Name: "xsel", Args: []string{"--clipboard", "--input"}},
	{Name: "clip.exe"},
}

// Copier writes text to a clipboard.
type Copier struct {
	Commands []Command
	// Terminal receives the OSC 52 fallback when it is a TTY.
	Terminal io.Writer

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args []string, input string) error
	isTTY    func(io.Writer) bool
}

// New returns a Copier using the platform helpers and stdout as fallback.
func New() *Copier {
	return &Copier{
		Commands: DefaultCommands,
		Terminal: os.Stdout,
		lookPath: exec.LookPath,
		run:      runCommand,
		isTTY:    writerIsTerminal,
	}
}

func runCommand(ctx context.Context, name string, args []string, input string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(input)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Copy tries each helper command, then the OSC 52 escape sequence. It reports
// whether any method succeeded and never returns an error.
func (c *Copier) Copy(ctx context.Context, text string) bool {
	for _, cmd := range c.Commands {
		if _, err := c.lookPath(cmd.Name); err != nil {
			continue
		}
		if err := c.run(ctx, cmd.Name, cmd.Args, text); err == nil {
			return true
		}
	}
	return c.osc52(text)
}

func (c *Copier) osc52(text string) bool {
	if c.Terminal == nil || !c.isTTY(c.Terminal) {
		return false
	}
	seq := "\x1b]52;c;" + base64.StdEncoding.EncodeToString([]byte(text)) + "\a"
	_, err := io.WriteString(c.Terminal, seq)
	return err == nil
}

// Copy copies text with the default Copier.
func Copy(ctx context.Context, text string) bool {
	return New().Copy(ctx, text)
}
