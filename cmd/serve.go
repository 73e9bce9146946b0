package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evsched/app"
	"github.com/kilianp07/evsched/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run API and Prometheus metrics until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return withService(cfg, func(ctx context.Context, svc *app.Service) error {
		return svc.Serve(ctx)
	})
}
