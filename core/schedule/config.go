package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is returned when an instance or configuration cannot be
// turned into a program.
var ErrInvalidModel = errors.New("invalid model")

// Weights scale the objective terms.
type Weights struct {
	Cost          float64 `json:"cost" yaml:"cost" koanf:"cost"`
	Service       float64 `json:"service" yaml:"service" koanf:"service"`
	PriorityBonus float64 `json:"priority_bonus" yaml:"priority_bonus" koanf:"priority_bonus"`
	BudgetPenalty float64 `json:"budget_penalty" yaml:"budget_penalty" koanf:"budget_penalty"`
}

// DefaultWeights returns the historical objective weights.
func DefaultWeights() Weights {
	return Weights{Cost: 1.0, Service: 0.5, PriorityBonus: 0.1, BudgetPenalty: 2.0}
}

// Config tunes the builder.
type Config struct {
	IntervalHours float64 `json:"interval_hours" koanf:"interval_hours"`
	PhaseCount    int     `json:"phase_count" koanf:"phase_count"`
	Weights       Weights `json:"weights" koanf:"weights"`
}

// DefaultConfig uses 15 minute intervals on a three phase feed.
func DefaultConfig() Config {
	return Config{IntervalHours: 0.25, PhaseCount: 3, Weights: DefaultWeights()}
}

// Validate checks the builder settings.
func (c Config) Validate() error {
	if c.IntervalHours <= 0 {
		return fmt.Errorf("%w: interval duration must be positive, got %v", ErrInvalidModel, c.IntervalHours)
	}
	if c.PhaseCount < 1 {
		return fmt.Errorf("%w: phase count must be at least 1, got %d", ErrInvalidModel, c.PhaseCount)
	}
	w := c.Weights
	if w.Cost < 0 || w.Service < 0 || w.PriorityBonus < 0 || w.BudgetPenalty < 0 {
		return fmt.Errorf("%w: objective weights must not be negative", ErrInvalidModel)
	}
	return nil
}
