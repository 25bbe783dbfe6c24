// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ipynb-to-jekyll/internal/notebook"
	"github.com/pdiddy/ipynb-to-jekyll/internal/transcode"
)

var validateCmd = &cobra.Command{
	Use:   "validate <notebook.ipynb>",
	Short: "Check that a notebook can be converted",
	Long: `Validate checks the notebook's shape (worksheets or cells list, typed
cells, typed outputs) and reports every code cell output whose kind the
transcoder cannot print. It writes no transcript.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading notebook %s: %w", path, err)
	}

	loader, err := notebook.NewLoader()
	if err != nil {
		return err
	}

	var problems []string
	for _, p := range loader.Check(path, data) {
		problems = append(problems, p.Error())
	}
	if len(problems) == 0 {
		nb, err := loader.Parse(path, data)
		if err != nil {
			return err
		}
		for _, e := range transcode.Check(nb) {
			problems = append(problems, fmt.Sprintf("%s: %v", path, e))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("validation failed:\n%s", strings.Join(problems, "\n"))
	}

	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return nil
}
