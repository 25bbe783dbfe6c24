// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CellType distinguishes the cell variants of a notebook.
type CellType string

const (
	CellMarkdown CellType = "markdown"
	CellCode     CellType = "code"
)

// OutputKind is the normalised kind of a code cell output. Notebook files
// use different output_type names per format generation; Kind maps them
// onto the three kinds the transcoder knows how to print.
type OutputKind string

const (
	OutputStream OutputKind = "stream"
	OutputResult OutputKind = "result"
	OutputError  OutputKind = "error"
	OutputOther  OutputKind = "other"
)

// Fragments is a multi-line text field. Notebook files store these either
// as an array of line fragments or as a single string; both decode here.
type Fragments []string

// UnmarshalJSON accepts a JSON string, an array of strings, or null.
func (f *Fragments) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*f = Fragments{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*f = many
	return nil
}

// Join concatenates the fragments with sep between them.
func (f Fragments) Join(sep string) string {
	return strings.Join(f, sep)
}

// Notebook is a decoded notebook document. Both nbformat 3 (worksheets) and
// nbformat 4 (top-level cells) documents decode into it.
type Notebook struct {
	NBFormat   int         `json:"nbformat"`
	Worksheets []Worksheet `json:"worksheets,omitempty"`
	Cells      []Cell      `json:"cells,omitempty"`
}

// Worksheet is an ordered cell sequence in an nbformat 3 document.
type Worksheet struct {
	Cells []Cell `json:"cells"`
}

// Cell is one notebook cell. Markdown cells use Source; code cells use
// Input (nbformat 3) or Source (nbformat 4), PromptNumber or
// ExecutionCount, and Outputs.
type Cell struct {
	CellType       CellType  `json:"cell_type"`
	Source         Fragments `json:"source,omitempty"`
	Input          Fragments `json:"input,omitempty"`
	PromptNumber   *int      `json:"prompt_number,omitempty"`
	ExecutionCount *int      `json:"execution_count,omitempty"`
	Outputs        []Output  `json:"outputs,omitempty"`
}

// Prompt returns the execution counter shown next to the cell, or nil for
// a cell that was never run.
func (c Cell) Prompt() *int {
	if c.PromptNumber != nil {
		return c.PromptNumber
	}
	return c.ExecutionCount
}

// Code returns the input fragments of a code cell.
func (c Cell) Code() Fragments {
	if c.Input != nil {
		return c.Input
	}
	return c.Source
}

// Output is one captured output of a code cell.
type Output struct {
	OutputType string     `json:"output_type"`
	Name       string     `json:"name,omitempty"`
	Text       Fragments  `json:"text,omitempty"`
	Data       OutputData `json:"data,omitempty"`
	Traceback  []string   `json:"traceback,omitempty"`
}

// OutputData is the mime bundle of an nbformat 4 result. Only the plain
// text rendering is kept; images, HTML, and JSON payloads are dropped.
type OutputData struct {
	Plain Fragments `json:"text/plain,omitempty"`
}

// Kind maps the raw output_type onto an OutputKind.
func (o Output) Kind() OutputKind {
	switch o.OutputType {
	case "stream":
		return OutputStream
	case "pyout", "execute_result":
		return OutputResult
	case "pyerr", "error":
		return OutputError
	default:
		return OutputOther
	}
}

// Fragments returns the printable text of a stream or result output.
// nbformat 4 results carry their text under data["text/plain"].
func (o Output) Fragments() Fragments {
	if o.Text != nil {
		return o.Text
	}
	return o.Data.Plain
}

// CellList returns the cells the transcoder walks: the first worksheet of an
// nbformat 3 document, or the top-level cells of an nbformat 4 document.
func (n *Notebook) CellList() []Cell {
	if len(n.Worksheets) > 0 {
		return n.Worksheets[0].Cells
	}
	return n.Cells
}
