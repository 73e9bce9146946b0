package config

import (
	"fmt"

	"github.com/kilianp07/evsched/core/derive"
	"github.com/kilianp07/evsched/core/schedule"
)

// ModelConfig tunes the formulation.
type ModelConfig struct {
	IntervalHours float64          `json:"interval_hours"`
	PhaseCount    int              `json:"phase_count"`
	Weights       schedule.Weights `json:"weights"`
	// Matcher selects the brand compatibility policy: heuristic or table.
	Matcher string `json:"matcher"`
}

// DefaultModelConfig mirrors schedule.DefaultConfig.
func DefaultModelConfig() ModelConfig {
	d := schedule.DefaultConfig()
	return ModelConfig{IntervalHours: d.IntervalHours, PhaseCount: d.PhaseCount, Weights: d.Weights, Matcher: "heuristic"}
}

// Schedule converts to the builder configuration.
func (c ModelConfig) Schedule() schedule.Config {
	return schedule.Config{IntervalHours: c.IntervalHours, PhaseCount: c.PhaseCount, Weights: c.Weights}
}

// Validate checks the formulation settings.
func (c ModelConfig) Validate() error {
	if err := c.Schedule().Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if _, ok := derive.MatcherByName(c.Matcher); !ok {
		return fmt.Errorf("model.matcher: unknown matcher %q", c.Matcher)
	}
	return nil
}
