package config

import "fmt"

// InstancesConfig locates the numbered instance files.
type InstancesConfig struct {
	Dir     string `json:"dir"`
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// SetDefaults applies sane defaults.
func (c *InstancesConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Pattern == "" {
		c.Pattern = "test_system_%d.json"
	}
	if c.Count <= 0 {
		c.Count = 7
	}
}

// OptimizerConfig tunes batch execution.
type OptimizerConfig struct {
	Parallelism int  `json:"parallelism"`
	Publish     bool `json:"publish"`
}

// SetDefaults applies sane defaults.
func (c *OptimizerConfig) SetDefaults() {
	if c.Parallelism <= 0 {
		c.Parallelism = 1
	}
}

// OutputConfig controls the files written after a batch.
type OutputConfig struct {
	ResultsFile string `json:"results_file"`
	// ScheduleDir receives one schedule export per solved instance when set.
	ScheduleDir    string `json:"schedule_dir"`
	ScheduleFormat string `json:"schedule_format"`
	// Quiet suppresses the console report.
	Quiet bool `json:"quiet"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.ResultsFile == "" {
		c.ResultsFile = "optimization_results.json"
	}
	if c.ScheduleFormat == "" {
		c.ScheduleFormat = "json"
	}
}

// Validate checks the export format.
func (c OutputConfig) Validate() error {
	if c.ScheduleFormat != "json" && c.ScheduleFormat != "csv" {
		return fmt.Errorf("output.schedule_format must be json or csv, got %q", c.ScheduleFormat)
	}
	return nil
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr"`
	// Token, when set, must be sent as a Bearer token on /api routes.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
