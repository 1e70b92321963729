package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"refflow/internal/diag"
	"refflow/internal/source"
)

type palette struct {
	err, warn, info, code, path, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.FgMagenta),
		path: color.New(color.Bold),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

func location(fs *source.FileSet, pos source.Pos, mode PathMode) string {
	path := formatPath(fs, pos.File, mode)
	if pos.IsZero() {
		return path
	}
	return fmt.Sprintf("%s:%d", path, pos.Line)
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>: <SEV> <CODE> <IssueType>: <Message>
// затем Notes с отступом. В режиме Markdown каждая диагностика - пункт списка.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if opts.Markdown {
		return Markdown(w, bag, fs, opts)
	}
	p := newPalette(opts.Color)
	var b strings.Builder
	for _, d := range bag.Items() {
		b.WriteString(p.path.Sprint(location(fs, d.Primary, opts.PathMode)))
		b.WriteString(": ")
		b.WriteString(p.severity(d.Severity).Sprint(d.Severity.String()))
		b.WriteByte(' ')
		b.WriteString(p.code.Sprint(d.Code.ID()))
		b.WriteByte(' ')
		b.WriteString(d.Code.Name())
		b.WriteString(": ")
		b.WriteString(d.Message)
		b.WriteByte('\n')
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&b, "    %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Pos, opts.PathMode), n.Msg)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders one list item per diagnostic.
func Markdown(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	var b strings.Builder
	for _, d := range bag.Items() {
		fmt.Fprintf(&b, "* `%s` **%s** %s `%s`: %s\n",
			location(fs, d.Primary, opts.PathMode), diag.SeverityLabel(d.Severity), d.Code.ID(), d.Code.Name(), escapeMarkdown(d.Message))
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(&b, "  * `%s` %s\n", location(fs, n.Pos, opts.PathMode), escapeMarkdown(n.Msg))
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

// Counts tallies diagnostics by severity.
func Counts(bag *diag.Bag) (errors, warnings, infos int) {
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errors++
		case diag.SevWarning:
			warnings++
		default:
			infos++
		}
	}
	return errors, warnings, infos
}
