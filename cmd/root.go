package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/evsched/app"
	"github.com/kilianp07/evsched/config"
	"github.com/kilianp07/evsched/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "evsched",
	Short:        "EV charging scheduler",
	Long:         "Schedules electric vehicle charging in a parking lot by solving a mixed-integer program per instance.",
	SilenceUsage: true,
	RunE:         runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// errAborted is returned when the prompt input ends before a valid answer.
var errAborted = errors.New("no instance selected")

// selection is either every instance or a single instance number.
type selection struct {
	all bool
	n   int
}

// parseSelection accepts "all" or an integer in [1,count].
func parseSelection(s string, count int) (selection, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return selection{all: true}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return selection{}, fmt.Errorf("invalid input %q: enter a number or 'all'", s)
	}
	if n < 1 || n > count {
		return selection{}, fmt.Errorf("invalid instance number %d: must be between 1 and %d, or 'all'", n, count)
	}
	return selection{n: n}, nil
}

// prompt asks until a valid selection is read. End of input aborts.
func prompt(in io.Reader, out io.Writer, count int) (selection, error) {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "Instance to run (1..%d, or 'all'): ", count)
		if !sc.Scan() {
			fmt.Fprintln(out)
			if err := sc.Err(); err != nil {
				return selection{}, err
			}
			return selection{}, errAborted
		}
		sel, err := parseSelection(sc.Text(), count)
		if err == nil {
			return sel, nil
		}
		fmt.Fprintln(out, err)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sel, err := prompt(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Instances.Count)
	if err != nil {
		return err
	}
	return solveSelection(cmd, cfg, sel)
}

// withService builds the service, runs fn with a signal-aware context and
// releases the service afterwards.
func withService(cfg *config.Config, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}
