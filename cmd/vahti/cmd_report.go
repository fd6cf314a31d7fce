package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haltiala/vahti/config"
	"github.com/haltiala/vahti/pipeline"
	"github.com/haltiala/vahti/runlog"
)

var reportDryRun bool

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and deliver yesterday's resource report",
	Long: `Run one report cycle for the previous UTC day:

1. Query AWS Config for the current resource snapshot and the
   deletion log, classifying every resource by change type
2. Attribute changes to IAM identities via CloudTrail
3. Render the color-coded Excel workbook
4. Upload it to S3 and presign a 24-hour download link
5. Email the summary to the configured recipients`,
	Example: `  vahti report                        # Full run with delivery
  vahti report --dry-run              # Render locally, skip upload and email
  vahti report --config vahti.yaml    # Explicit configuration file`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "Render the workbook locally without uploading or emailing")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	runner, err := pipeline.New(ctx, cfg, time.Now())
	if err != nil {
		return err
	}
	runner.DryRun = reportDryRun

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if !reportDryRun {
		if err := recordRun(cfg, result); err != nil {
			// The report is already delivered, so a history failure
			// should not fail the run.
			fmt.Printf("⚠️  Failed to record run history: %v\n", err)
		}
	}

	printResult(result)
	return nil
}

func recordRun(cfg *config.Config, result *pipeline.Result) error {
	store, err := runlog.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(runlog.Entry{
		ReportDate:       result.ReportDate,
		ReportKey:        result.ReportKey,
		ResourcesTracked: result.ResourcesTracked,
		Summary:          result.Summary,
		CompletedAt:      time.Now().UTC(),
	})
}

func printResult(result *pipeline.Result) {
	fmt.Printf("📊 Report for %s: %s\n", result.ReportDate, result.Status)
	fmt.Printf("   Resources tracked: %d\n", result.ResourcesTracked)
	if result.ReportKey != "" {
		fmt.Printf("   Report object: %s\n", result.ReportKey)
	} else {
		fmt.Printf("   Workbook: %s\n", result.ReportURL)
	}
	fmt.Printf("   Completed in %s\n", result.Duration.Round(time.Millisecond))
}
