package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/manthysbr/samarth/internal/adapters/duckdb"
	"github.com/manthysbr/samarth/internal/core/domain"
)

func newTracesCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "traces [query-id]",
		Short: "Show persisted query traces",
		Long: `Traces lists the most recent traces stored in trace.db_path, or prints one
trace with all its spans when a query id is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(false)
			if err != nil {
				return err
			}
			if cfg.Trace.DBPath == "" {
				return errors.New("trace.db_path is not set; traces are only kept in memory by the server")
			}

			repo, err := duckdb.NewTraceRepository(cmd.Context(), cfg.Trace.DBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				trace, err := repo.GetTrace(cmd.Context(), domain.QueryID(args[0]))
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(trace)
			}

			summaries, err := repo.ListTraces(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printSummaries(out, summaries)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of traces to list")
	return cmd
}

func printSummaries(w io.Writer, summaries []domain.TraceSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUERY ID\tSTARTED\tSTATUS\tSTEPS\tDURATION\tQUERY")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID,
			s.StartTime.Local().Format(time.DateTime),
			s.Status,
			s.Steps,
			(time.Duration(s.DurationMs) * time.Millisecond).String(),
			truncateQuery(s.Query, 60))
	}
	tw.Flush() //nolint:errcheck
}

func truncateQuery(q string, n int) string {
	r := []rune(q)
	if len(r) <= n {
		return q
	}
	return string(r[:n]) + "..."
}
