// Package cbc drives the COIN-OR CBC command line solver. The program is
// written in CPLEX LP format to a scratch directory, CBC is run with an
// elapsed-time budget and its solution file is parsed back.
package cbc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/lp"
)

// ErrSolverNotFound is returned when the cbc binary cannot be located.
var ErrSolverNotFound = errors.New("cbc binary not found")

// Config holds the adapter settings.
type Config struct {
	Binary    string `json:"binary"`
	Threads   int    `json:"threads"`
	WorkDir   string `json:"work_dir"`
	KeepFiles bool   `json:"keep_files"`
}

// Solver implements lp.Solver.
type Solver struct {
	cfg Config
	log logger.Logger
}

// New returns a CBC solver. An empty binary means "cbc" on PATH.
func New(cfg Config, log logger.Logger) *Solver {
	if cfg.Binary == "" {
		cfg.Binary = "cbc"
	}
	return &Solver{cfg: cfg, log: logger.OrNop(log)}
}

func (s *Solver) Name() string { return "cbc" }

// Available reports whether the binary can be found.
func (s *Solver) Available() bool {
	_, err := exec.LookPath(s.cfg.Binary)
	return err == nil
}

// Solve runs CBC on req.Program. Cancelling ctx kills the process.
func (s *Solver) Solve(ctx context.Context, req lp.Request) (*lp.Solution, error) {
	bin, err := exec.LookPath(s.cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSolverNotFound, s.cfg.Binary)
	}
	dir, err := os.MkdirTemp(s.cfg.WorkDir, "evsched-cbc-")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	if s.cfg.KeepFiles {
		s.log.Infof("cbc files kept in %s", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	modelPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "solution.txt")
	if err := writeModel(modelPath, req.Program); err != nil {
		return nil, err
	}

	args := s.args(modelPath, solPath, req)
	s.log.Debugw("running cbc", map[string]any{"binary": bin, "args": strings.Join(args, " ")})
	cmd := exec.CommandContext(ctx, bin, args...)
	out, runErr := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if runErr != nil {
		return nil, fmt.Errorf("cbc failed: %w: %s", runErr, tail(out, 512))
	}

	f, err := os.Open(solPath)
	if err != nil {
		s.log.Warnf("cbc produced no solution file: %s", tail(out, 512))
		return &lp.Solution{Status: lp.StatusNotSolved}, nil
	}
	defer f.Close()
	return ParseSolution(f, req.Program)
}

func (s *Solver) args(modelPath, solPath string, req lp.Request) []string {
	args := []string{modelPath}
	if req.TimeLimit > 0 {
		secs := math.Max(1, math.Ceil(req.TimeLimit.Seconds()))
		args = append(args, "-sec", strconv.FormatFloat(secs, 'f', 0, 64))
	}
	if s.cfg.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(s.cfg.Threads))
	}
	args = append(args, "-timeMode", "elapsed", "-branch", "-printingOptions", "all", "-solution", solPath)
	return args
}

func writeModel(path string, p *lp.Program) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := lp.WriteLP(f, p); err != nil {
		f.Close()
		return fmt.Errorf("write model: %w", err)
	}
	return f.Close()
}

func tail(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
