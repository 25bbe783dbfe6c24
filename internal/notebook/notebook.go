// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notebook loads notebook documents from disk and checks that they
// have the shape the transcoder walks: a worksheets[0].cells list (nbformat 3)
// or a top-level cells list (nbformat 4), typed cells, and typed outputs.
package notebook

import (
	"crypto/sha256"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pdiddy/ipynb-to-jekyll/pkg/types"
)

//go:embed schema.json
var schemaJSON []byte

// ErrMalformed matches every DocumentError via errors.Is.
var ErrMalformed = errors.New("malformed notebook")

// DocumentError describes one way a notebook departs from the expected shape.
type DocumentError struct {
	// Path is the notebook file.
	Path string
	// Field is the dotted location of the problem, "(root)" for the document.
	Field string
	// Reason describes what is missing or invalid.
	Reason string
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Reason)
}

// Is reports whether target is ErrMalformed.
func (e *DocumentError) Is(target error) bool {
	return target == ErrMalformed
}

// Document is a loaded notebook together with where it came from.
type Document struct {
	Path     string
	Checksum string
	Notebook *types.Notebook
}

// Loader reads and validates notebook documents.
type Loader struct {
	schema *gojsonschema.Schema
}

// NewLoader compiles the embedded document schema.
func NewLoader() (*Loader, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compiling notebook schema: %w", err)
	}
	return &Loader{schema: schema}, nil
}

// Load reads the notebook at path. A missing or unreadable file yields a
// wrapped os error naming the path; a file that is not a well-formed
// notebook yields one or more DocumentErrors joined together.
func (l *Loader) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading notebook %s: %w", path, err)
	}

	nb, err := l.Parse(path, data)
	if err != nil {
		return nil, err
	}

	return &Document{
		Path:     path,
		Checksum: fmt.Sprintf("%x", sha256.Sum256(data)),
		Notebook: nb,
	}, nil
}

// Parse decodes data as a notebook. path is used only in error messages.
func (l *Loader) Parse(path string, data []byte) (*types.Notebook, error) {
	nb, problems := l.check(path, data)
	if len(problems) > 0 {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return nil, errors.Join(errs...)
	}
	return nb, nil
}

// Check returns every shape problem found in data, or nil for a notebook
// the transcoder can walk.
func (l *Loader) Check(path string, data []byte) []*DocumentError {
	_, problems := l.check(path, data)
	return problems
}

func (l *Loader) check(path string, data []byte) (*types.Notebook, []*DocumentError) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		reason := "invalid JSON: " + err.Error()
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			reason = fmt.Sprintf("invalid JSON at byte %d: %v", syntaxErr.Offset, syntaxErr)
		}
		return nil, []*DocumentError{{Path: path, Field: "(root)", Reason: reason}}
	}

	result, err := l.schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, []*DocumentError{{Path: path, Field: "(root)", Reason: err.Error()}}
	}
	if !result.Valid() {
		obj, _ := raw.(map[string]any)
		_, hasCells := obj["cells"]
		var problems []*DocumentError
		for _, desc := range result.Errors() {
			if isRootAnyOf(desc) && hasCells {
				// The errors of the cells branch say what is wrong.
				continue
			}
			problems = append(problems, &DocumentError{
				Path:   path,
				Field:  desc.Field(),
				Reason: describe(desc),
			})
		}
		return nil, problems
	}

	nb, err := decode(data)
	if err != nil {
		return nil, []*DocumentError{{Path: path, Field: "(root)", Reason: err.Error()}}
	}
	return nb, checkCells(path, nb)
}

// decode reads only what the transcoder walks: the first worksheet when the
// document has worksheets, otherwise the top-level cells. Later worksheets
// and a stray top-level cells key next to worksheets are never looked at.
func decode(data []byte) (*types.Notebook, error) {
	var doc struct {
		NBFormat   int               `json:"nbformat"`
		Worksheets []json.RawMessage `json:"worksheets"`
		Cells      json.RawMessage   `json:"cells"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	nb := &types.Notebook{NBFormat: doc.NBFormat}
	if len(doc.Worksheets) > 0 {
		var ws types.Worksheet
		if err := json.Unmarshal(doc.Worksheets[0], &ws); err != nil {
			return nil, fmt.Errorf("worksheets.0: %w", err)
		}
		nb.Worksheets = []types.Worksheet{ws}
		return nb, nil
	}
	if len(doc.Cells) == 0 {
		return nb, nil
	}
	if err := json.Unmarshal(doc.Cells, &nb.Cells); err != nil {
		return nil, fmt.Errorf("cells: %w", err)
	}
	return nb, nil
}

// describe turns the schema library's anyOf failure at the root into the
// message a user can act on.
func describe(desc gojsonschema.ResultError) string {
	if isRootAnyOf(desc) {
		return "document has neither a worksheets list nor a cells list"
	}
	return desc.Description()
}

func isRootAnyOf(desc gojsonschema.ResultError) bool {
	return desc.Type() == "number_any_of" && desc.Field() == "(root)"
}

// checkCells enforces the per-variant fields the schema cannot express
// without conditionals: markdown cells need source, code cells need input
// (or source) and outputs.
func checkCells(path string, nb *types.Notebook) []*DocumentError {
	prefix := "cells"
	if len(nb.Worksheets) > 0 {
		prefix = "worksheets.0.cells"
	}

	var problems []*DocumentError
	for i, cell := range nb.CellList() {
		field := func(name string) string {
			return strings.Join([]string{prefix, fmt.Sprint(i), name}, ".")
		}
		switch cell.CellType {
		case types.CellMarkdown:
			if cell.Source == nil {
				problems = append(problems, &DocumentError{Path: path, Field: field("source"), Reason: "markdown cell has no source"})
			}
		case types.CellCode:
			if cell.Code() == nil {
				problems = append(problems, &DocumentError{Path: path, Field: field("input"), Reason: "code cell has no input"})
			}
			if cell.Outputs == nil {
				problems = append(problems, &DocumentError{Path: path, Field: field("outputs"), Reason: "code cell has no outputs list"})
			}
		}
	}
	return problems
}
