// Package publish sends solved schedules to the chargers as power setpoints.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kilianp07/evsched/core/report"
)

// ErrAckTimeout is returned when a charger does not acknowledge a setpoint in time.
var ErrAckTimeout = errors.New("timeout waiting for ack")

// Setpoint is the payload sent for one schedule entry.
type Setpoint struct {
	CommandID string  `json:"command_id"`
	RunID     string  `json:"run_id"`
	VehicleID int     `json:"vehicle_id"`
	ChargerID int     `json:"charger_id"`
	Interval  int     `json:"interval"`
	StartHour float64 `json:"start_hour"`
	PowerKW   float64 `json:"power_kw"`
}

// NewSetpoint builds the payload for entry.
func NewSetpoint(commandID, runID string, e report.Entry) Setpoint {
	return Setpoint{
		CommandID: commandID,
		RunID:     runID,
		VehicleID: e.VehicleID,
		ChargerID: e.ChargerID,
		Interval:  e.Interval,
		StartHour: e.StartHour,
		PowerKW:   e.PowerKW,
	}
}

// Topic returns the setpoint topic of a charger.
func Topic(prefix string, chargerID int) string {
	if prefix == "" {
		prefix = "evsched"
	}
	return fmt.Sprintf("%s/%d/setpoint", prefix, chargerID)
}

// Publisher delivers a run's schedule.
type Publisher interface {
	PublishSchedule(ctx context.Context, runID string, entries []report.Entry) error
}

// Nop drops every schedule.
type Nop struct{}

func (Nop) PublishSchedule(context.Context, string, []report.Entry) error { return nil }

// MockPublisher records published setpoints. Entries whose charger id is in
// FailChargers fail.
type MockPublisher struct {
	mu           sync.Mutex
	Setpoints    []Setpoint
	FailChargers map[int]bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailChargers: make(map[int]bool)}
}

func (m *MockPublisher) PublishSchedule(ctx context.Context, runID string, entries []report.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if m.FailChargers[e.ChargerID] {
			errs = append(errs, fmt.Errorf("charger %d: publish failed", e.ChargerID))
			continue
		}
		m.Setpoints = append(m.Setpoints, NewSetpoint(fmt.Sprintf("cmd-%s-%d", runID, i), runID, e))
	}
	return errors.Join(errs...)
}

// Published returns a copy of the recorded setpoints.
func (m *MockPublisher) Published() []Setpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Setpoint(nil), m.Setpoints...)
}
