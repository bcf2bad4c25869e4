package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"bwexport/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past exports",
		Args:  usageArgs(cobra.NoArgs),
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent export runs",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return usageErrorf("--limit must not be negative")
			}
			return ctx.withHistory(func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					if runs == nil {
						runs = []history.Run{}
					}
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No exports recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						string(run.Verdict),
						fmt.Sprintf("%d", run.Downloaded),
						fmt.Sprintf("%d", run.Skipped),
						fmt.Sprintf("%d", run.Failed),
						humanize.Bytes(uint64(run.Bytes)),
						run.Destination,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					left("Run"), left("Started"), left("Verdict"),
					right("Downloaded"), right("Skipped"), right("Failed"), right("Size"),
					left("Destination"),
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")
	return cmd
}

type runDetail struct {
	Run      history.Run       `json:"run"`
	Outcomes []history.Outcome `json:"outcomes"`
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the attachments of one export run",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("no export run matches %q", args[0])
				}
				outcomes, err := store.Outcomes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if outcomes == nil {
					outcomes = []history.Outcome{}
				}
				if jsonOut {
					return writeJSON(cmd, runDetail{Run: *run, Outcomes: outcomes})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:         %s\n", run.ID)
				fmt.Fprintf(out, "Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
				fmt.Fprintf(out, "Duration:    %s\n", run.Duration().Round(time.Millisecond))
				fmt.Fprintf(out, "Destination: %s\n", run.Destination)
				fmt.Fprintf(out, "Verdict:     %s\n", run.Verdict)
				fmt.Fprintf(out, "Items:       %d (%d attachments)\n", run.Items, run.Attachments)
				if run.Error != "" {
					fmt.Fprintf(out, "Error:       %s\n", run.Error)
				}
				if len(outcomes) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(outcomes))
				for _, o := range outcomes {
					rows = append(rows, []string{
						fmt.Sprintf("%d", o.Batch),
						o.ItemID,
						o.FileName,
						humanize.Bytes(uint64(o.Size)),
						o.Status,
						o.Error,
					})
				}
				fmt.Fprintln(out, renderTable([]column{
					right("Batch"), left("Item"), left("File"), right("Size"), left("Status"), left("Error"),
				}, rows))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete history older than a duration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return usageErrorf("--older-than must be positive")
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d export runs\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Age beyond which runs are deleted")
	return cmd
}
