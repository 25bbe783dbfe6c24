// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcode writes a notebook as a Jekyll post body: markdown cells
// verbatim, code cells as an interactive In/Out transcript inside a
// `{% highlight %}` block, one blank line after every cell.
package transcode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/ipynb-to-jekyll/pkg/types"
)

// ErrUnknownOutput matches every OutputKindError via errors.Is.
var ErrUnknownOutput = errors.New("unexpected output kind")

// OutputKindError reports a code cell output the transcoder cannot print.
type OutputKindError struct {
	// Cell is the zero-based index of the cell in the walked cell list.
	Cell int
	// Prompt is the cell's prompt number, nil if it never ran.
	Prompt *int
	// Kind is the raw output_type found in the document.
	Kind string
}

func (e *OutputKindError) Error() string {
	return fmt.Sprintf("cell %d (prompt %s): unexpected output kind %q", e.Cell, promptText(e.Prompt), e.Kind)
}

// Is reports whether target is ErrUnknownOutput.
func (e *OutputKindError) Is(target error) bool {
	return target == ErrUnknownOutput
}

var ansiEscape = regexp.MustCompile("\x1b[^m]*m")

// StripColors removes ANSI SGR escape sequences (ESC, any run of non-'m'
// bytes, then 'm') and leaves everything else untouched.
func StripColors(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}

const (
	highlightEnd = "{% endhighlight %}"
	inputLabel   = "In [%s]: "
)

// Transcoder renders notebooks with one fixed configuration.
type Transcoder struct {
	cfg    types.TranscodeConfig
	logger *slog.Logger
}

// New returns a Transcoder for cfg. A nil logger uses slog.Default().
func New(cfg types.TranscodeConfig, logger *slog.Logger) (*Transcoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcoder{cfg: cfg, logger: logger}, nil
}

// Config returns the configuration the transcoder was built with.
func (t *Transcoder) Config() types.TranscodeConfig {
	return t.cfg
}

// Transcode writes the transcript of nb to w and returns what it emitted.
// Under PolicyAbort the first unknown output stops the pass with an
// *OutputKindError; text already written to w stays there, so callers that
// must not publish partial transcripts write into a buffer.
func (t *Transcoder) Transcode(nb *types.Notebook, w io.Writer) (types.Stats, error) {
	p := &printer{w: w}
	var stats types.Stats

	for i, cell := range nb.CellList() {
		stats.Cells++
		switch cell.CellType {
		case types.CellMarkdown:
			stats.Markdown++
			p.println(cell.Source.Join(""))
		case types.CellCode:
			stats.Code++
			if err := t.code(p, i, cell, &stats); err != nil {
				return stats, err
			}
		default:
			stats.Skipped++
			t.logger.Debug("skipping cell", "cell", i, "cell_type", cell.CellType)
		}
		p.println("")

		if p.err != nil {
			return stats, fmt.Errorf("writing cell %d: %w", i, p.err)
		}
	}

	return stats, nil
}

func (t *Transcoder) code(p *printer, index int, cell types.Cell, stats *types.Stats) error {
	prompt := cell.Prompt()

	p.println("{% highlight " + t.cfg.LanguageTag + " %}")
	p.println(fmt.Sprintf(inputLabel, promptText(prompt)) + cell.Code().Join(t.cfg.InputJoinSeparator))

	for _, out := range cell.Outputs {
		switch out.Kind() {
		case types.OutputStream, types.OutputResult:
			p.println(t.OutputLabel(prompt) + out.Fragments().Join(""))
			stats.Outputs++
		case types.OutputError:
			lines := make([]string, len(out.Traceback))
			for i, line := range out.Traceback {
				lines[i] = StripColors(line)
			}
			p.println(strings.Join(lines, "\n"))
			stats.Outputs++
		default:
			kindErr := &OutputKindError{Cell: index, Prompt: prompt, Kind: out.OutputType}
			if t.cfg.OnUnknownOutput != types.PolicyPlaceholder {
				return kindErr
			}
			t.logger.Warn("unsupported output replaced by placeholder",
				"cell", index, "prompt", promptText(prompt), "kind", out.OutputType)
			p.println(Placeholder(out.OutputType))
			stats.Placeholders++
		}
	}

	p.println(highlightEnd)
	return nil
}

// OutputLabel renders the configured output label for prompt.
func (t *Transcoder) OutputLabel(prompt *int) string {
	return strings.ReplaceAll(t.cfg.OutputLabelFormat, types.PromptPlaceholder, promptText(prompt))
}

// Placeholder is the line printed in place of an unsupported output.
func Placeholder(kind string) string {
	return "[unsupported output: " + kind + "]"
}

// Check walks every code cell and returns one error per output the
// transcoder would refuse under PolicyAbort.
func Check(nb *types.Notebook) []*OutputKindError {
	var errs []*OutputKindError
	for i, cell := range nb.CellList() {
		if cell.CellType != types.CellCode {
			continue
		}
		for _, out := range cell.Outputs {
			if out.Kind() == types.OutputOther {
				errs = append(errs, &OutputKindError{Cell: i, Prompt: cell.Prompt(), Kind: out.OutputType})
			}
		}
	}
	return errs
}

// promptText prints an unset prompt as a blank, the way notebook frontends
// show cells that never ran.
func promptText(prompt *int) string {
	if prompt == nil {
		return " "
	}
	return strconv.Itoa(*prompt)
}

// printer keeps the first write error so the cell loop can check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) println(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s+"\n")
}
