package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	configPath string
	debugMode  bool

	rootCmd = &cobra.Command{
		Use:   "vahti",
		Short: "Daily AWS resource inventory reports",
		Long: `Vahti - Daily AWS Resource Inventory Reports

Vahti builds a daily picture of your AWS estate from AWS Config:
every tracked resource classified as created, modified, existing or
deleted, attributed to the IAM identity that touched it, rendered as
a color-coded Excel workbook, and delivered by email with a download
link.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugMode {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Vahti {{.Version}} - Daily AWS Resource Inventory Reports
`)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}
