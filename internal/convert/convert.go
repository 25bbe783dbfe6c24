// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns one notebook file into a Jekyll post body: it loads
// and validates the document, transcodes it into memory, optionally prepends
// front matter, and only then writes to the caller's writer.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ipynb-to-jekyll/internal/notebook"
	"github.com/pdiddy/ipynb-to-jekyll/internal/transcode"
	"github.com/pdiddy/ipynb-to-jekyll/pkg/types"
)

// Recorder stores the outcome of a conversion. The ledger implements it.
type Recorder interface {
	Record(ctx context.Context, rec types.ConversionRecord) (int64, error)
}

// Converter wires the loader and transcoder together.
type Converter struct {
	loader      *notebook.Loader
	transcoder  *transcode.Transcoder
	frontMatter types.FrontMatter
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// Option customises a Converter.
type Option func(*Converter)

// WithFrontMatter prepends Jekyll front matter when fm.Title is set.
func WithFrontMatter(fm types.FrontMatter) Option {
	return func(c *Converter) { c.frontMatter = fm }
}

// WithRecorder records every conversion, successful or not.
func WithRecorder(r Recorder) Option {
	return func(c *Converter) { c.recorder = r }
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// New creates a Converter around a loader and a transcoder.
func New(loader *notebook.Loader, t *transcode.Transcoder, opts ...Option) *Converter {
	c := &Converter{
		loader:     loader,
		transcoder: t,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes one finished conversion.
type Result struct {
	Path     string
	Checksum string
	Stats    types.Stats
	Status   types.ConversionStatus
}

// Convert transcodes the notebook at path and writes the post body to w.
// Nothing is written to w when loading or transcoding fails.
func (c *Converter) Convert(ctx context.Context, path string, w io.Writer) (Result, error) {
	result := Result{Path: path, Status: types.ConversionFailed}

	doc, err := c.loader.Load(path)
	if err != nil {
		c.record(ctx, result, err)
		return result, err
	}
	result.Checksum = doc.Checksum

	var body bytes.Buffer
	if c.frontMatter.Enabled() {
		if err := writeFrontMatter(&body, c.frontMatter); err != nil {
			c.record(ctx, result, err)
			return result, err
		}
	}

	stats, err := c.transcoder.Transcode(doc.Notebook, &body)
	result.Stats = stats
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		c.record(ctx, result, err)
		return result, err
	}

	result.Status = types.ConversionDone
	if stats.Placeholders > 0 {
		result.Status = types.ConversionPartial
	}

	if _, err := body.WriteTo(w); err != nil {
		err = fmt.Errorf("writing transcript: %w", err)
		result.Status = types.ConversionFailed
		c.record(ctx, result, err)
		return result, err
	}

	c.logger.Debug("converted notebook", "path", path,
		"cells", stats.Cells, "code", stats.Code, "outputs", stats.Outputs,
		"placeholders", stats.Placeholders)
	c.record(ctx, result, nil)
	return result, nil
}

// record writes the outcome to the recorder, if any. Ledger failures are
// logged and never mask the conversion result.
func (c *Converter) record(ctx context.Context, r Result, convErr error) {
	if c.recorder == nil {
		return
	}

	abs, err := filepath.Abs(r.Path)
	if err != nil {
		abs = r.Path
	}
	rec := types.ConversionRecord{
		NotebookPath: abs,
		Checksum:     r.Checksum,
		Variant:      string(c.transcoder.Config().Variant),
		Stats:        r.Stats,
		Status:       r.Status,
		ConvertedAt:  c.now().UTC(),
	}
	if convErr != nil {
		rec.Error = convErr.Error()
	}

	if _, err := c.recorder.Record(ctx, rec); err != nil {
		c.logger.Warn("could not record conversion", "path", r.Path, "error", err)
	}
}

// writeFrontMatter writes the YAML front matter block Jekyll expects at the
// top of a post.
func writeFrontMatter(w io.Writer, fm types.FrontMatter) error {
	data, err := yaml.Marshal(&fm)
	if err != nil {
		return fmt.Errorf("marshaling front matter: %w", err)
	}
	fmt.Fprint(w, "---\n")
	w.Write(data)
	fmt.Fprint(w, "---\n\n")
	return nil
}
