package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evsched/core/model"
)

// Expected lists the checks of a scenario. Zero fields are skipped. The
// structural properties (one vehicle per charger and interval, transformer,
// spots, delivered within demand) are always checked on usable outcomes.
type Expected struct {
	// Statuses accepted from the solver.
	Statuses []string `yaml:"statuses"`
	// Delivered maps vehicle id to the expected delivered kWh.
	Delivered map[int]float64 `yaml:"delivered,omitempty"`
	// ActiveIntervals maps vehicle id to the number of intervals it charges in.
	ActiveIntervals map[int]int `yaml:"active_intervals,omitempty"`
	// Unserved vehicles must receive nothing and never be scheduled.
	Unserved []int `yaml:"unserved,omitempty"`
	// MinUnserved is the least number of vehicles left without energy.
	MinUnserved int `yaml:"min_unserved,omitempty"`
	// MinShort is the least number of vehicles delivered less than required.
	MinShort int `yaml:"min_short,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Instance    model.Instance `yaml:"instance"`
	// FailChargers makes the mock publisher reject setpoints for these chargers.
	FailChargers []int    `yaml:"fail_chargers,omitempty"`
	Expected     Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
