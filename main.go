// Package main provides the meetlens CLI entry point.
// meetlens analyzes meeting recordings: transcription, speaker
// diarization, and multi-dimensional text analysis.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meetlens/meetlens/cmd"
	"github.com/meetlens/meetlens/pkg/buildinfo"
)

// Global flags shared by every subcommand.
var globalOpts = &cmd.GlobalOptions{}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "meetlens",
	Short: "MeetLens - meeting recording analysis",
	Long: `meetlens turns meeting recordings into structured insight.

Recordings are transcribed with speaker diarization, then analyzed
across eight dimensions: keywords, action items, decisions, topics,
unanswered questions, interruptions, a speaker relationship graph, and
an extractive summary.

COMMON WORKFLOWS:
  Run the service:    meetlens serve
  Analyze one file:   meetlens analyze ./standup.mp4
  Browse results:     meetlens records list  ->  meetlens records show <id>

CONFIGURATION:
  Settings come from a YAML file (--config), overridden by MEETLENS_*
  environment variables. A local .env file is loaded when present.`,
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := buildinfo.Get("meetlens")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "meetlens version %s\n", info.Version)
		fmt.Fprintf(out, "  commit:     %s\n", info.Commit)
		fmt.Fprintf(out, "  built:      %s\n", info.BuildTime)
		fmt.Fprintf(out, "  go version: %s\n", info.GoVersion)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.JSONLogs, "json-logs", false, "emit JSON logs")

	rootCmd.AddCommand(cmd.NewServeCommand(globalOpts))
	rootCmd.AddCommand(cmd.NewAnalyzeCommand(globalOpts))
	rootCmd.AddCommand(cmd.NewRecordsCommand(globalOpts))
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
