package diag

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

var severityStyles = map[Severity]*pterm.Style{
	SeverityError:   pterm.NewStyle(pterm.FgRed, pterm.Bold),
	SeverityWarning: pterm.NewStyle(pterm.FgYellow, pterm.Bold),
	SeverityNote:    pterm.NewStyle(pterm.FgCyan, pterm.Bold),
}

// Formatter renders diagnostics with source code snippets and caret
// underlines. Source text is registered up front; the formatter never touches
// the filesystem.
type Formatter struct {
	out     io.Writer
	sources map[string]string
	color   bool
}

// NewFormatter creates a formatter writing to out.
func NewFormatter(out io.Writer, color bool) *Formatter {
	return &Formatter{
		out:     out,
		sources: make(map[string]string),
		color:   color,
	}
}

// AddSource registers the source text for a filename so snippets can be shown.
func (f *Formatter) AddSource(filename, src string) {
	f.sources[filename] = src
}

// FormatAll renders every diagnostic in order.
func (f *Formatter) FormatAll(list []Diagnostic) {
	for _, d := range list {
		f.Format(d)
	}
}

// Format renders a single diagnostic.
func (f *Formatter) Format(d Diagnostic) {
	f.printHeader(d)

	src, ok := f.sources[d.Span.Filename]
	if ok && d.Span.IsValid() {
		fmt.Fprintf(f.out, "  --> %s\n", d.Span.String())
		f.printSnippet(src, d.Span, "^")
		for _, l := range d.Labels {
			if l.Span.IsValid() && l.Span.Filename == d.Span.Filename {
				f.printSnippet(src, l.Span, "~")
				if l.Label != "" {
					fmt.Fprintf(f.out, "      %s\n", l.Label)
				}
			}
		}
	} else if d.Span.IsValid() {
		fmt.Fprintf(f.out, "  --> %s\n", d.Span.String())
	}

	for _, note := range d.Notes {
		fmt.Fprintf(f.out, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.out, "help: %s\n", d.Help)
	}
}

func (f *Formatter) printHeader(d Diagnostic) {
	severity := string(d.Severity)
	if severity == "" {
		severity = string(SeverityError)
	}

	head := severity
	if d.Code != "" {
		head = fmt.Sprintf("%s[%s]", severity, d.Code)
	}
	if f.color {
		if style, ok := severityStyles[d.Severity]; ok {
			head = style.Sprint(head)
		}
	}
	fmt.Fprintf(f.out, "%s: %s\n", head, d.Message)
}

// printSnippet prints the source line containing the span with an underline.
func (f *Formatter) printSnippet(src string, span Span, mark string) {
	lines := strings.Split(src, "\n")
	if span.Line < 1 || span.Line > len(lines) {
		return
	}
	line := lines[span.Line-1]

	numWidth := len(fmt.Sprintf("%d", span.Line))
	gutter := strings.Repeat(" ", numWidth)

	fmt.Fprintf(f.out, " %s |\n", gutter)
	fmt.Fprintf(f.out, " %d | %s\n", span.Line, line)

	width := span.End - span.Start
	if width < 1 {
		width = 1
	}
	// Clamp the underline to the visible line.
	col := span.Column - 1
	if col > len(line) {
		col = len(line)
	}
	if col+width > len(line)+1 {
		width = len(line) + 1 - col
		if width < 1 {
			width = 1
		}
	}

	underline := strings.Repeat(" ", col) + strings.Repeat(mark, width)
	if f.color {
		if style, ok := severityStyles[SeverityError]; ok && mark == "^" {
			underline = strings.Repeat(" ", col) + style.Sprint(strings.Repeat(mark, width))
		}
	}
	fmt.Fprintf(f.out, " %s | %s\n", gutter, underline)
}

// SortByPosition orders diagnostics by filename, then byte offset. Stages
// already append in pipeline order; this is for presentation only.
func SortByPosition(list []Diagnostic) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Span.Filename != list[j].Span.Filename {
			return list[i].Span.Filename < list[j].Span.Filename
		}
		return list[i].Span.Start < list[j].Span.Start
	})
}
