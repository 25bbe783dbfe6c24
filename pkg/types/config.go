// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Variant names a preset transcoding configuration.
type Variant string

const (
	// VariantIPy reproduces the ipython-console style transcript:
	// `{% highlight ipy %}`, input fragments joined without separator,
	// and `Out[N]: ` labels.
	VariantIPy Variant = "ipy"

	// VariantPython uses the python lexer, joins input fragments with
	// newlines, and labels results `Out [N]: `.
	VariantPython Variant = "python"
)

// UnknownOutputPolicy selects what happens when a code cell carries an
// output whose kind the transcoder cannot print.
type UnknownOutputPolicy string

const (
	// PolicyAbort fails the whole conversion.
	PolicyAbort UnknownOutputPolicy = "abort"
	// PolicyPlaceholder prints a visible placeholder line and continues.
	PolicyPlaceholder UnknownOutputPolicy = "placeholder"
)

// PromptPlaceholder is replaced by the prompt number in OutputLabelFormat.
const PromptPlaceholder = "{prompt}"

// TranscodeConfig holds the settings that differ between transcript variants.
type TranscodeConfig struct {
	// Variant is the preset the configuration started from. Later overrides
	// of the fields below do not change it.
	Variant Variant `json:"variant" yaml:"variant" mapstructure:"variant"`

	// LanguageTag is the lexer named in the opening highlight marker.
	LanguageTag string `json:"language_tag" yaml:"language_tag" mapstructure:"language_tag"`

	// InputJoinSeparator is placed between a code cell's input fragments.
	InputJoinSeparator string `json:"input_join_separator" yaml:"input_join_separator" mapstructure:"input_join_separator"`

	// OutputLabelFormat prefixes stream and result output text. Every
	// occurrence of PromptPlaceholder is replaced by the prompt number.
	OutputLabelFormat string `json:"output_label_format" yaml:"output_label_format" mapstructure:"output_label_format"`

	// OnUnknownOutput selects abort or placeholder behaviour (default abort).
	OnUnknownOutput UnknownOutputPolicy `json:"on_unknown_output" yaml:"on_unknown_output" mapstructure:"on_unknown_output"`
}

// Preset returns the configuration for a named variant.
func Preset(v Variant) (TranscodeConfig, error) {
	switch v {
	case VariantIPy, "":
		return TranscodeConfig{
			Variant:            VariantIPy,
			LanguageTag:        "ipy",
			InputJoinSeparator: "",
			OutputLabelFormat:  "Out[" + PromptPlaceholder + "]: ",
			OnUnknownOutput:    PolicyAbort,
		}, nil
	case VariantPython:
		return TranscodeConfig{
			Variant:            VariantPython,
			LanguageTag:        "python",
			InputJoinSeparator: "\n",
			OutputLabelFormat:  "Out [" + PromptPlaceholder + "]: ",
			OnUnknownOutput:    PolicyAbort,
		}, nil
	default:
		return TranscodeConfig{}, fmt.Errorf("unknown variant %q: use %s or %s", v, VariantIPy, VariantPython)
	}
}

// Validate checks that the configuration can drive a transcoder.
func (c TranscodeConfig) Validate() error {
	if c.LanguageTag == "" {
		return fmt.Errorf("language tag must not be empty")
	}
	switch c.OnUnknownOutput {
	case PolicyAbort, PolicyPlaceholder:
	default:
		return fmt.Errorf("unsupported unknown-output policy %q: use %s or %s",
			c.OnUnknownOutput, PolicyAbort, PolicyPlaceholder)
	}
	return nil
}

// FrontMatter holds the Jekyll front matter written ahead of a transcript.
// It is only emitted when Title is set.
type FrontMatter struct {
	Layout string    `json:"layout,omitempty" yaml:"layout,omitempty"`
	Title  string    `json:"title" yaml:"title"`
	Date   time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	Tags   []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Enabled reports whether front matter should be written.
func (f FrontMatter) Enabled() bool {
	return f.Title != ""
}

// LedgerConfig holds settings for the conversion ledger.
type LedgerConfig struct {
	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default number of history rows listed (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}
