// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the notebook model, transcoder configuration, and
// conversion records shared across ipynb-to-jekyll packages.
package types

import "time"

// ConversionStatus indicates the outcome of one notebook conversion.
type ConversionStatus string

const (
	ConversionDone    ConversionStatus = "converted"
	ConversionPartial ConversionStatus = "partial"
	ConversionFailed  ConversionStatus = "failed"
)

// Stats counts what a transcoding pass emitted.
type Stats struct {
	Cells        int `json:"cells" yaml:"cells"`
	Markdown     int `json:"markdown" yaml:"markdown"`
	Code         int `json:"code" yaml:"code"`
	Skipped      int `json:"skipped" yaml:"skipped"`
	Outputs      int `json:"outputs" yaml:"outputs"`
	Placeholders int `json:"placeholders" yaml:"placeholders"`
}

// ConversionRecord is one row of the conversion ledger.
type ConversionRecord struct {
	// ID is the ledger row identifier.
	ID int64 `json:"id" yaml:"id"`

	// NotebookPath is the absolute path of the converted notebook.
	NotebookPath string `json:"notebook_path" yaml:"notebook_path"`

	// Checksum is the hex SHA-256 of the notebook bytes.
	Checksum string `json:"checksum,omitempty" yaml:"checksum,omitempty"`

	// Variant is the preset (ipy or python) the transcript was produced with.
	Variant string `json:"variant" yaml:"variant"`

	// Stats holds the cell and output counts of the pass.
	Stats Stats `json:"stats" yaml:"stats"`

	// Status is converted, partial (placeholders were emitted), or failed.
	Status ConversionStatus `json:"status" yaml:"status"`

	// Error holds the failure message for failed conversions.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// ConvertedAt is when the conversion finished.
	ConvertedAt time.Time `json:"converted_at" yaml:"converted_at"`
}
