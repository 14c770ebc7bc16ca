package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewRecordsCommand creates the records command group.
func NewRecordsCommand(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Browse persisted analyses",
		Long: `Browse the analyses persisted in the local record database.

Examples:
  meetlens records list
  meetlens records show 6f1c2a9e-...`,
	}

	cmd.AddCommand(newRecordsListCommand(opts))
	cmd.AddCommand(newRecordsShowCommand(opts))

	return cmd
}

func newRecordsListCommand(opts *GlobalOptions) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List persisted analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.Load()
			if err != nil {
				return err
			}

			store, err := openRecords(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			recs, err := store.List()
			if err != nil {
				return err
			}

			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}

			out := cmd.OutOrStdout()
			if len(recs) == 0 {
				fmt.Fprintln(out, "No records.")
				return nil
			}
			fmt.Fprintf(out, "%-36s %-20s %-6s %-10s %s\n", "ID", "CREATED", "MODE", "SIZE", "FILE")
			for _, rec := range recs {
				fmt.Fprintf(out, "%-36s %-20s %-6s %-10d %s\n",
					rec.ID, rec.CreatedAt.Format(time.RFC3339), rec.Mode, rec.FileSize, rec.FileName)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "output-json", false, "output as JSON")

	return cmd
}

func newRecordsShowCommand(opts *GlobalOptions) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one persisted analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.Load()
			if err != nil {
				return err
			}

			store, err := openRecords(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.Get(args[0])
			if err != nil {
				return err
			}

			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			return printRecord(cmd, rec)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "output-json", false, "output as JSON")

	return cmd
}
