package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a markdown renderer for outcome messages.
// Width 0 lets glamour pick its default wrap. If glamour cannot be initialized
// the text is passed through unchanged.
func NewRenderer(width int) func(string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return PlainRenderer
	}

	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(out, "\n") + "\n", nil
	}
}

// NewStyledRenderer renders with a fixed glamour style ("dark", "light", "notty", ...).
func NewStyledRenderer(style string) (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle(style))
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// PlainRenderer leaves text untouched.
func PlainRenderer(s string) (string, error) {
	return s, nil
}
