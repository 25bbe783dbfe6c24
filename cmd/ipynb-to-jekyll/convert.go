// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ipynb-to-jekyll/internal/convert"
	"github.com/pdiddy/ipynb-to-jekyll/internal/ledger"
	"github.com/pdiddy/ipynb-to-jekyll/internal/notebook"
	"github.com/pdiddy/ipynb-to-jekyll/internal/transcode"
	"github.com/pdiddy/ipynb-to-jekyll/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <notebook.ipynb>",
	Short: "Convert one notebook into a Jekyll post body",
	Long: `Convert reads a notebook document and writes its transcript to standard
output. Markdown cells are copied verbatim; code cells become

    {% highlight ipy %}
    In [N]: <input>
    Out[N]: <output>
    {% endhighlight %}

The ipy variant joins input fragments without a separator; the python variant
joins them with newlines and labels outputs "Out [N]: ". Individual settings
can be overridden with --language, --join, and --out-label.

A code cell output of an unknown kind aborts the run unless
--on-unknown-output=placeholder is given. Nothing is written to standard
output when the run fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	addTranscodeFlags(convertCmd)

	convertCmd.Flags().String("title", "", "write Jekyll front matter with this title")
	convertCmd.Flags().String("layout", "post", "front matter layout (used with --title)")
	convertCmd.Flags().String("date", "", "front matter date, YYYY-MM-DD (used with --title)")
	convertCmd.Flags().StringSlice("tags", nil, "front matter tags (used with --title)")
	convertCmd.Flags().Bool("record", false, "record the conversion in the ledger")

	rootCmd.AddCommand(convertCmd)
}

// addTranscodeFlags registers the flags that override transcode settings.
func addTranscodeFlags(cmd *cobra.Command) {
	cmd.Flags().String("variant", "", "transcript variant: ipy or python")
	cmd.Flags().String("language", "", "highlight language tag")
	cmd.Flags().String("join", "", `separator between input fragments (\n and \t are unescaped)`)
	cmd.Flags().String("out-label", "", "output label format; {prompt} is replaced by the prompt number")
	cmd.Flags().String("on-unknown-output", "", "abort or placeholder")
}

func runConvert(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := transcodeConfig(cmd)
	if err != nil {
		return err
	}
	fm, err := frontMatter(cmd)
	if err != nil {
		return err
	}

	loader, err := notebook.NewLoader()
	if err != nil {
		return err
	}
	t, err := transcode.New(cfg, slog.Default())
	if err != nil {
		return err
	}

	ctx := contextOf(cmd)
	opts := []convert.Option{convert.WithFrontMatter(fm)}

	record := viper.GetBool("ledger.record")
	if v, ok := flagBool(cmd, "record"); ok {
		record = v
	}
	if record {
		store, err := ledger.NewStore(ledgerConfig())
		if err != nil {
			return err
		}
		defer store.Close()
		reportPrevious(ctx, store, path)
		opts = append(opts, convert.WithRecorder(store))
	}

	c := convert.New(loader, t, opts...)
	_, err = c.Convert(ctx, path, cmd.OutOrStdout())
	return err
}

// transcodeConfig resolves settings in order: variant preset, config file
// and environment, then command-line flags. Separator and label values from
// any source have \n and \t unescaped.
func transcodeConfig(cmd *cobra.Command) (types.TranscodeConfig, error) {
	variant := viper.GetString("transcode.variant")
	if v, ok := flagString(cmd, "variant"); ok {
		variant = v
	}

	cfg, err := types.Preset(types.Variant(variant))
	if err != nil {
		return cfg, err
	}

	if viper.IsSet("transcode.language_tag") {
		cfg.LanguageTag = viper.GetString("transcode.language_tag")
	}
	if viper.IsSet("transcode.input_join_separator") {
		cfg.InputJoinSeparator = unescape(viper.GetString("transcode.input_join_separator"))
	}
	if viper.IsSet("transcode.output_label_format") {
		cfg.OutputLabelFormat = unescape(viper.GetString("transcode.output_label_format"))
	}
	if p := viper.GetString("transcode.on_unknown_output"); p != "" {
		cfg.OnUnknownOutput = types.UnknownOutputPolicy(p)
	}

	if v, ok := flagString(cmd, "language"); ok {
		cfg.LanguageTag = v
	}
	if v, ok := flagString(cmd, "join"); ok {
		cfg.InputJoinSeparator = unescape(v)
	}
	if v, ok := flagString(cmd, "out-label"); ok {
		cfg.OutputLabelFormat = unescape(v)
	}
	if v, ok := flagString(cmd, "on-unknown-output"); ok {
		cfg.OnUnknownOutput = types.UnknownOutputPolicy(v)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func frontMatter(cmd *cobra.Command) (types.FrontMatter, error) {
	var fm types.FrontMatter
	fm.Title, _ = flagString(cmd, "title")
	if !fm.Enabled() {
		return fm, nil
	}

	fm.Layout, _ = cmd.Flags().GetString("layout")
	fm.Tags, _ = cmd.Flags().GetStringSlice("tags")
	if date, ok := flagString(cmd, "date"); ok {
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return fm, fmt.Errorf("invalid --date %q: use YYYY-MM-DD", date)
		}
		fm.Date = t
	}
	return fm, nil
}

// reportPrevious logs the last recorded conversion of path, if the ledger
// has one.
func reportPrevious(ctx context.Context, store *ledger.Store, path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	prev, err := store.Latest(ctx, abs)
	if err != nil {
		if !errors.Is(err, ledger.ErrNotFound) {
			slog.Warn("could not read ledger", "error", err)
		}
		return
	}
	slog.Debug("previous conversion found", "path", abs, "status", prev.Status,
		"checksum", prev.Checksum, "converted_at", prev.ConvertedAt)
}

func ledgerConfig() types.LedgerConfig {
	return types.LedgerConfig{
		Path:       viper.GetString("ledger.path"),
		MaxResults: viper.GetInt("ledger.max_results"),
	}
}

// flagString returns the value of a flag the user set explicitly. Commands
// that do not define the flag report it as unset.
func flagString(cmd *cobra.Command, name string) (string, bool) {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return "", false
	}
	return f.Value.String(), true
}

func flagBool(cmd *cobra.Command, name string) (bool, bool) {
	f := cmd.Flags().Lookup(name)
	if f == nil || !f.Changed {
		return false, false
	}
	v, err := cmd.Flags().GetBool(name)
	return v, err == nil
}

var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

func unescape(s string) string {
	return escapes.Replace(s)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
