// Package printer renders stream entries to a terminal, colorized by log
// level when writing to a TTY.
package printer

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/bascanada/tentacle/pkg/stream"
)

var levelColors = map[string]*color.Color{
	"ERROR":   color.New(color.FgRed, color.Bold),
	"WARN":    color.New(color.FgYellow),
	"WARNING": color.New(color.FgYellow),
	"INFO":    color.New(color.FgCyan),
	"DEBUG":   color.New(color.FgHiBlack),
	"TRACE":   color.New(color.FgHiBlack),
}

// Printer writes entries as plain text, colorized by loglevel when the
// output is a terminal and NO_COLOR is unset.
type Printer struct {
	w       io.Writer
	colored bool
}

// New builds a Printer writing to w. Colorization is enabled only when w
// is *os.File pointing at a TTY and the NO_COLOR environment variable is
// unset, matching the convention https://no-color.org describes.
func New(w io.Writer) *Printer {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == ""
	}
	return &Printer{w: w, colored: colored}
}

// Print writes one entry followed by a newline.
func (p *Printer) Print(entry stream.Entry) {
	if !p.colored || entry.Parsed.Loglevel == nil {
		fmt.Fprintln(p.w, entry.OriginalLine)
		return
	}
	c, ok := levelColors[*entry.Parsed.Loglevel]
	if !ok {
		fmt.Fprintln(p.w, entry.OriginalLine)
		return
	}
	c.Fprintln(p.w, entry.OriginalLine)
}
