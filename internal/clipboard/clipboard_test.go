package clipboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

type recorder struct {
	installed map[string]bool
	failing   map[string]bool
	ran       []string
	input     string
}

func (r *recorder) copier(term io.Writer, tty bool) *Copier {
	return &Copier{
		Commands: DefaultCommands,
		Terminal: term,
		lookPath: func(name string) (string, error) {
			if r.installed[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		run: func(_ context.Context, name string, _ []string, input string) error {
			r.ran = append(r.ran, name)
			if r.failing[name] {
				return errors.New("failed")
			}
			r.input = input
			return nil
		},
		isTTY: func(io.Writer) bool { return tty },
	}
}

func TestCopyUsesFirstWorkingCommand(t *testing.T) {
	r := &recorder{
		installed: map[string]bool{"wl-copy": true, "xclip": true},
		failing:   map[string]bool{"wl-copy": true},
	}
	if !r.copier(nil, false).Copy(context.Background(), "hello") {
		t.Fatal("expected copy to succeed")
	}
	if len(r.ran) != 2 || r.ran[1] != "xclip" || r.input != "hello" {
		t.Fatalf("unexpected command sequence: %v input=%q", r.ran, r.input)
	}
}

func TestCopyFallsBackToOSC52(t *testing.T) {
	var term bytes.Buffer
	r := &recorder{}
	if !r.copier(&term, true).Copy(context.Background(), "hi") {
		t.Fatal("expected osc52 fallback to succeed")
	}
	if term.String() != "\x1b]52;c;aGk=\a" {
		t.Fatalf("unexpected escape sequence: %q", term.String())
	}
}

func TestCopyFailsWithoutTerminal(t *testing.T) {
	var term bytes.Buffer
	r := &recorder{}
	if r.copier(&term, false).Copy(context.Background(), "hi") {
		t.Fatal("copy should fail without helpers or a terminal")
	}
	if term.Len() != 0 {
		t.Fatal("nothing should be written to a non-terminal")
	}
}
