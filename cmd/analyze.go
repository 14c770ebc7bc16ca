package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meetlens/meetlens/pkg/orchestrate"
	"github.com/meetlens/meetlens/pkg/records"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(opts *GlobalOptions) *cobra.Command {
	var (
		mode       string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <media-file>",
		Short: "Analyze a local recording",
		Long: `Analyze a local meeting recording without going through the HTTP
upload protocol.

The file is transcribed through the configured diarization provider,
run through the full analysis pipeline, and persisted to the record
database. Large files are segmented and transcribed in parallel.

Examples:
  meetlens analyze ./standup.mp4
  meetlens analyze ./all-hands.wav --mode ai
  meetlens analyze ./standup.mp4 --output-json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.Load()
			if err != nil {
				return err
			}

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			store, err := openRecords(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, err := newPipeline(cfg, log, store)
			if err != nil {
				return err
			}

			mimeType := mime.TypeByExtension(filepath.Ext(path))
			if mimeType == "" {
				mimeType = "application/octet-stream"
			}

			record, err := pipeline.Run(cmd.Context(), orchestrate.RunInput{
				Path:     path,
				FileName: filepath.Base(path),
				FileSize: info.Size(),
				MimeType: mimeType,
				Mode:     mode,
			})
			if err != nil {
				return err
			}

			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(record)
			}
			return printRecord(cmd, record)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "free", "analysis mode: free or ai")
	cmd.Flags().BoolVar(&outputJSON, "output-json", false, "output the full record as JSON")

	return cmd
}

// printRecord renders an analyzed record in human-readable form.
func printRecord(cmd *cobra.Command, record *records.Record) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Record: %s\n", record.ID)
	fmt.Fprintf(out, "  File:     %s (%d bytes, %s)\n", record.FileName, record.FileSize, record.MimeType)
	fmt.Fprintf(out, "  Mode:     %s\n", record.Mode)
	fmt.Fprintf(out, "  Duration: %.1fs\n", record.DiarizationResult.DurationSec)
	fmt.Fprintf(out, "  Entries:  %d\n", len(record.Entries))

	a := record.FullAnalysis
	if a == nil {
		return nil
	}

	fmt.Fprintf(out, "\nSummary (%s, %.2f):\n  %s\n",
		a.OverallSentiment.Sentiment, a.OverallSentiment.Score, a.Summary.SummaryReport)

	if len(a.Keywords) > 0 {
		fmt.Fprintf(out, "\nKeywords: %s\n", strings.Join(a.Keywords, ", "))
	}

	printList(out, "Action Items", a.ActionItems)
	printList(out, "Decisions", a.Decisions)

	if len(a.Topics) > 0 {
		fmt.Fprintln(out, "\nTopics:")
		for _, topic := range a.Topics {
			fmt.Fprintf(out, "  - %s: %s\n", topic.Topic, topic.Summary)
		}
	}

	if len(a.UnansweredQuestions) > 0 {
		fmt.Fprintln(out, "\nUnanswered Questions:")
		for _, q := range a.UnansweredQuestions {
			fmt.Fprintf(out, "  - [%s] %s: %s\n", q.Timestamp, q.Speaker, q.Question)
		}
	}

	if len(a.Interruptions) > 0 {
		fmt.Fprintf(out, "\nInterruptions: %d\n", len(a.Interruptions))
	}

	if len(a.Participation) > 0 {
		fmt.Fprintln(out, "\nParticipation:")
		fmt.Fprintf(out, "  %-20s %-12s %s\n", "SPEAKER", "TIME (S)", "WORDS")
		for _, p := range a.Participation {
			fmt.Fprintf(out, "  %-20s %-12.1f %d\n", p.Label, p.SpeakingTime, p.WordCount)
		}
	}

	return nil
}

func printList(out io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
