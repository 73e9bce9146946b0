package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evsched/app"
	"github.com/kilianp07/evsched/config"
	"github.com/kilianp07/evsched/core/optimizer"
	"github.com/kilianp07/evsched/pkg/export"
)

var solveCmd = &cobra.Command{
	Use:   "solve <n>|all",
	Short: "Solve one numbered instance or all of them",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sel, err := parseSelection(args[0], cfg.Instances.Count)
	if err != nil {
		return err
	}
	return solveSelection(cmd, cfg, sel)
}

func solveSelection(cmd *cobra.Command, cfg *config.Config, sel selection) error {
	return withService(cfg, func(ctx context.Context, svc *app.Service) error {
		names := svc.Names()
		if !sel.all {
			names = []string{svc.Source.Name(sel.n)}
		}
		out := cmd.OutOrStdout()
		outs := svc.Solve(ctx, names)
		if !cfg.Output.Quiet {
			for _, o := range outs {
				printOutcome(out, o)
			}
		}
		if cfg.Output.ScheduleDir != "" {
			if err := exportSchedules(cfg.Output, outs); err != nil {
				return err
			}
		}
		if err := optimizer.WriteResults(cfg.Output.ResultsFile, optimizer.Summarize(outs)); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Fprintf(out, "\nOptimization results saved to %s\n", cfg.Output.ResultsFile)
		return ctx.Err()
	})
}

// exportSchedules writes one schedule file per usable outcome.
func exportSchedules(cfg config.OutputConfig, outs []optimizer.Outcome) error {
	if err := os.MkdirAll(cfg.ScheduleDir, 0o755); err != nil {
		return fmt.Errorf("schedule dir: %w", err)
	}
	for _, o := range outs {
		if !o.Usable() {
			continue
		}
		base := strings.TrimSuffix(o.Instance, filepath.Ext(o.Instance))
		path := filepath.Join(cfg.ScheduleDir, base+"_schedule."+cfg.ScheduleFormat)
		if err := export.WriteFile(path, o.Report.Schedule); err != nil {
			return fmt.Errorf("export %s: %w", o.Instance, err)
		}
	}
	return nil
}
