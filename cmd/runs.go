package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evsched/config"
	"github.com/kilianp07/evsched/core/runlog"
)

var runsFlags struct {
	instance string
	status   string
	limit    int
	since    time.Duration
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored run records",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsFlags.instance, "instance", "", "only runs of this instance file")
	f.StringVar(&runsFlags.status, "status", "", "only runs with this status")
	f.IntVar(&runsFlags.limit, "limit", 20, "most recent runs to show (0 for all)")
	f.DurationVar(&runsFlags.since, "since", 0, "only runs newer than this duration")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := runlog.NewStore(cfg.RunLog)
	if err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	defer func() { _ = store.Close() }()

	q := runlog.Query{Instance: runsFlags.instance, Status: runsFlags.status, Limit: runsFlags.limit}
	if runsFlags.since > 0 {
		q.Start = time.Now().Add(-runsFlags.since)
	}
	recs, err := store.Query(context.Background(), q)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	return printRuns(cmd.OutOrStdout(), recs)
}

func printRuns(w io.Writer, recs []runlog.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN ID\tINSTANCE\tSOLVER\tSTATUS\tOBJECTIVE\tDURATION\tDELIVERED\tSERVED")
	for _, r := range recs {
		obj := "-"
		if r.Objective != nil {
			obj = fmt.Sprintf("%.2f", *r.Objective)
		}
		solver := r.Solver
		if r.Cached {
			solver += " (cached)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%.2f\t%d/%d\n",
			r.Timestamp.Local().Format(time.DateTime), r.RunID, r.Instance, solver, r.Status, obj,
			time.Duration(r.DurationMS)*time.Millisecond, r.Totals.Delivered, r.Totals.Served, r.Totals.Vehicles)
	}
	return tw.Flush()
}
