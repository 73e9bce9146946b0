package config

import "fmt"

// SentryConfig defines settings for Sentry error monitoring.
type SentryConfig struct {
	DSN              string  `json:"dsn" koanf:"dsn"`
	Environment      string  `json:"environment" koanf:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate" koanf:"traces_sample_rate"`
	Release          string  `json:"release" koanf:"release"`
	ServerName       string  `json:"server_name" koanf:"server_name"`
}

// Validate checks the sample rate.
func (c SentryConfig) Validate() error {
	if c.TracesSampleRate < 0 || c.TracesSampleRate > 1 {
		return fmt.Errorf("sentry.traces_sample_rate must be in [0,1]")
	}
	return nil
}
