package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haltiala/vahti/config"
	"github.com/haltiala/vahti/runlog"
	"github.com/haltiala/vahti/types"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously generated reports",
	Long: `List completed report runs from the local history database,
newest first, with resource counts and per-classification summaries.`,
	Example: `  vahti history             # Show the last 10 runs
  vahti history --limit 30  # Show the last 30 runs`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := runlog.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No report runs recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tRESOURCES\tCREATED\tMODIFIED\tDELETED\tEXISTING\tREPORT")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			entry.ReportDate,
			entry.ResourcesTracked,
			entry.Summary[types.ChangeCreated],
			entry.Summary[types.ChangeModified],
			entry.Summary[types.ChangeDeleted],
			entry.Summary[types.ChangeExisting],
			entry.ReportKey,
		)
	}
	return w.Flush()
}
