package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`                     _            `, "#818cf8"},
	{`  _ __   __ _ _ __| | ___ _   _ `, "#a78bfa"},
	{` | '_ \ / _' | '__| |/ _ \ | | |`, "#c084fc"},
	{` | |_) | (_| | |  | |  __/ |_| |`, "#e879f9"},
	{` | .__/ \__,_|_|  |_|\___|\__, |`, "#f472b6"},
	{` |_|                      |___/ `, "#fb7185"},
}

// PrintBanner writes the ASCII banner to w, colored when w supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
