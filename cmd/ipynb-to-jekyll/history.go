// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ipynb-to-jekyll/internal/ledger"
	"github.com/pdiddy/ipynb-to-jekyll/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [notebook.ipynb]",
	Short: "List recorded conversions",
	Long: `History lists conversions recorded in the ledger (see convert --record),
newest first. Give a notebook path to show only its conversions.

Use --format json or --format yaml to export the matching records.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("status", "", "filter by status: converted, partial, failed")
	historyCmd.Flags().Int("limit", 0, "maximum rows to list (0 = ledger.max_results)")
	historyCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	opts, err := historyOptsFromFlags(cmd, args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "", "json", "yaml":
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or yaml", format)
	}

	store, err := ledger.NewStore(ledgerConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := contextOf(cmd)
	w := cmd.OutOrStdout()

	switch format {
	case "json":
		return store.ExportJSON(ctx, w, opts)
	case "yaml":
		return store.ExportYAML(ctx, w, opts)
	default:
		records, err := store.List(ctx, opts)
		if err != nil {
			return err
		}
		return formatHistoryTable(w, records)
	}
}

func historyOptsFromFlags(cmd *cobra.Command, args []string) (ledger.QueryOptions, error) {
	var opts ledger.QueryOptions
	if len(args) > 0 {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return opts, fmt.Errorf("resolving %s: %w", args[0], err)
		}
		opts.Path = abs
	}

	status, _ := cmd.Flags().GetString("status")
	switch types.ConversionStatus(status) {
	case "", types.ConversionDone, types.ConversionPartial, types.ConversionFailed:
		opts.Status = types.ConversionStatus(status)
	default:
		return opts, fmt.Errorf("unsupported status %q: use converted, partial, or failed", status)
	}

	opts.MaxResults, _ = cmd.Flags().GetInt("limit")
	return opts, nil
}

func formatHistoryTable(w io.Writer, records []types.ConversionRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Notebook", "Variant", "Cells", "Outputs", "Status", "Converted At")

	for _, r := range records {
		table.Append([]string{
			strconv.FormatInt(r.ID, 10),
			r.NotebookPath,
			r.Variant,
			strconv.Itoa(r.Stats.Cells),
			strconv.Itoa(r.Stats.Outputs),
			string(r.Status),
			r.ConvertedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	return table.Render()
}
