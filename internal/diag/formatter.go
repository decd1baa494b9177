package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Formatter prints a Diagnostic as the one-line, position-annotated
// message spec.md §7 calls for: no source snippets, no notes, no
// suggestions — just "path:line:column: <stage> error: [CODE] message".
type Formatter struct {
	w       io.Writer
	colored bool
}

// NewFormatter builds a Formatter. Pass colored=true only when w is
// known to be a terminal (cmd/zppc checks stderr with
// github.com/mattn/go-isatty's IsTerminal before constructing one).
func NewFormatter(w io.Writer, colored bool) *Formatter {
	return &Formatter{w: w, colored: colored}
}

// Format writes the single-line diagnostic. It never returns an error:
// a failure to write to stderr isn't something the compiler can act on.
func (f *Formatter) Format(d *Diagnostic) {
	label := fmt.Sprintf("%s error", d.Stage)
	if f.colored {
		label = color.New(color.FgRed, color.Bold).Sprint(label)
	}
	fmt.Fprintf(f.w, "%s: %s: [%s] %s\n", d.Span, label, d.Code, d.Message)
}
