package model

import (
	"fmt"
	"strings"
)

// Vehicle is an electric vehicle arriving at the parking facility with a
// charging demand. Times are expressed in hours on the facility horizon.
type Vehicle struct {
	ID               int     `json:"id" yaml:"id"`
	Brand            string  `json:"brand" yaml:"brand"`
	ArrivalTime      float64 `json:"arrival_time" yaml:"arrival_time"`
	DepartureTime    float64 `json:"departure_time" yaml:"departure_time"`
	RequiredEnergy   float64 `json:"required_energy" yaml:"required_energy"` // kWh
	Priority         int     `json:"priority" yaml:"priority"`               // raw tier 1..3
	Efficiency       float64 `json:"efficiency" yaml:"efficiency"`           // round-trip, 0..1
	ACChargeRate     float64 `json:"ac_charge_rate" yaml:"ac_charge_rate"`   // kW
	DCChargeRate     float64 `json:"dc_charge_rate" yaml:"dc_charge_rate"`   // kW
	MinChargeRate    float64 `json:"min_charge_rate" yaml:"min_charge_rate"` // kW
	WillingnessToPay float64 `json:"willingness_to_pay" yaml:"willingness_to_pay"`
	BatteryCapacity  float64 `json:"battery_capacity,omitempty" yaml:"battery_capacity,omitempty"`
}

// StayDuration returns the declared parking time in hours. It may be zero or
// negative for malformed arrivals; callers must guard divisions.
func (v Vehicle) StayDuration() float64 {
	return v.DepartureTime - v.ArrivalTime
}

// MaxRateFor returns the vehicle side charge rate limit for a charger type.
func (v Vehicle) MaxRateFor(t ChargerType) float64 {
	if t == ChargerAC {
		return v.ACChargeRate
	}
	return v.DCChargeRate
}

// BrandPrefix returns the first two words of the brand, or the whole trimmed
// brand when it has fewer than two words.
func (v Vehicle) BrandPrefix() string {
	words := strings.Fields(v.Brand)
	if len(words) < 2 {
		return strings.TrimSpace(v.Brand)
	}
	return words[0] + " " + words[1]
}

// Validate checks that the vehicle record is usable by the model.
func (v Vehicle) Validate() error {
	if v.RequiredEnergy < 0 {
		return fmt.Errorf("vehicle %d: required energy must not be negative", v.ID)
	}
	if v.Efficiency < 0 || v.Efficiency > 1 {
		return fmt.Errorf("vehicle %d: efficiency %v out of [0,1]", v.ID, v.Efficiency)
	}
	if v.ACChargeRate < 0 || v.DCChargeRate < 0 || v.MinChargeRate < 0 {
		return fmt.Errorf("vehicle %d: charge rates must not be negative", v.ID)
	}
	return nil
}
