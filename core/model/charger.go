package model

import (
	"fmt"
	"strings"
)

// ChargerType distinguishes AC and DC chargers.
type ChargerType string

const (
	ChargerAC ChargerType = "AC"
	ChargerDC ChargerType = "DC"
)

// Valid reports whether the type is one of the known charger types.
func (t ChargerType) Valid() bool {
	return t == ChargerAC || t == ChargerDC
}

// ParseChargerType parses a case-insensitive charger type.
func ParseChargerType(s string) (ChargerType, error) {
	t := ChargerType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown charger type %q", s)
	}
	return t, nil
}

// Charger is a physical charging point of the facility.
type Charger struct {
	ID                 int         `json:"charger_id" yaml:"charger_id"`
	Type               ChargerType `json:"type" yaml:"type"`
	Power              float64     `json:"power" yaml:"power"` // rated kW
	OperationCostHour  float64     `json:"operation_cost_per_hour" yaml:"operation_cost_per_hour"`
	Efficiency         float64     `json:"efficiency" yaml:"efficiency"`
	CompatibleVehicles []string    `json:"compatible_vehicles" yaml:"compatible_vehicles"`
}

// Validate checks the charger record.
func (c Charger) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("charger %d: unknown type %q", c.ID, c.Type)
	}
	if c.Power < 0 {
		return fmt.Errorf("charger %d: power must not be negative", c.ID)
	}
	if c.Efficiency < 0 || c.Efficiency > 1 {
		return fmt.Errorf("charger %d: efficiency %v out of [0,1]", c.ID, c.Efficiency)
	}
	return nil
}
