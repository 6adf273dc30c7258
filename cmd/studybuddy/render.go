package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderer prints markdown, styled for the terminal when possible.
type renderer struct {
	out  io.Writer
	term *glamour.TermRenderer
}

func newRenderer(out io.Writer, styled bool) *renderer {
	r := &renderer{out: out}
	if !styled {
		return r
	}

	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		r.term = term
	}
	return r
}

func (r *renderer) Markdown(md string) {
	if r.term != nil {
		if styled, err := r.term.Render(md); err == nil {
			fmt.Fprint(r.out, styled)
			return
		}
	}
	fmt.Fprintln(r.out, strings.TrimRight(md, "\n"))
}

func (r *renderer) Printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return string(data), nil
}
