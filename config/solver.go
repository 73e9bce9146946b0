package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/evsched/core/factory"
)

// SolverConfig selects the MILP backend.
type SolverConfig struct {
	// Type is a registered backend name: cbc, relax or glpk.
	Type string `json:"type"`
	// TimeLimitSeconds bounds each solve. Zero disables the limit.
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
	// Conf is passed to the backend factory.
	Conf map[string]any `json:"conf"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "cbc"
	}
}

// Validate checks mandatory fields.
func (c SolverConfig) Validate() error {
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("solver.time_limit_seconds must not be negative")
	}
	return nil
}

// TimeLimit returns the limit as a duration.
func (c SolverConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds * float64(time.Second))
}

// Module returns the factory configuration of the backend.
func (c SolverConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: c.Conf}
}
