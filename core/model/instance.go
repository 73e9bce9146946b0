package model

import (
	"errors"
	"fmt"
)

// GridConstraints are the electrical limits of the shared feed. Voltage drop
// and power factor are informational and not enforced by the model.
type GridConstraints struct {
	MaxPowerPerPhase float64 `json:"max_power_per_phase" yaml:"max_power_per_phase"`
	VoltageDropLimit float64 `json:"voltage_drop_limit" yaml:"voltage_drop_limit"`
	PowerFactorLimit float64 `json:"power_factor_limit" yaml:"power_factor_limit"`
}

// ParkingConfig describes the facility and its chargers.
type ParkingConfig struct {
	TransformerLimit float64         `json:"transformer_limit" yaml:"transformer_limit"`
	Spots            int             `json:"n_spots" yaml:"n_spots"`
	Efficiency       float64         `json:"efficiency" yaml:"efficiency"`
	Grid             GridConstraints `json:"grid_constraints" yaml:"grid_constraints"`
	Chargers         []Charger       `json:"chargers" yaml:"chargers"`
}

// PriceSlot is the energy price at the start of an interval, in cents per kWh.
type PriceSlot struct {
	Time  float64 `json:"time" yaml:"time"`
	Price float64 `json:"price" yaml:"price"`
}

// CarBrand and ChargerTypeInfo are reference metadata shipped with instances.
type CarBrand struct {
	Brand        string  `json:"brand" yaml:"brand"`
	BatteryKWh   float64 `json:"battery_capacity,omitempty" yaml:"battery_capacity,omitempty"`
	ACChargeRate float64 `json:"ac_charge_rate,omitempty" yaml:"ac_charge_rate,omitempty"`
	DCChargeRate float64 `json:"dc_charge_rate,omitempty" yaml:"dc_charge_rate,omitempty"`
}

type ChargerTypeInfo struct {
	Type        string  `json:"type" yaml:"type"`
	Power       float64 `json:"power,omitempty" yaml:"power,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}

// Instance is one charging problem: the facility, the price curve and the
// arrivals to serve.
type Instance struct {
	Parking      ParkingConfig     `json:"parking_config" yaml:"parking_config"`
	Prices       []PriceSlot       `json:"energy_prices" yaml:"energy_prices"`
	Arrivals     []Vehicle         `json:"arrivals" yaml:"arrivals"`
	CarBrands    []CarBrand        `json:"car_brands,omitempty" yaml:"car_brands,omitempty"`
	ChargerTypes []ChargerTypeInfo `json:"charger_types,omitempty" yaml:"charger_types,omitempty"`
}

var (
	ErrNoIntervals = errors.New("instance has no price intervals")
	ErrNoChargers  = errors.New("instance has no chargers")
	// ErrInstanceNotFound is returned by instance sources for missing inputs.
	ErrInstanceNotFound = errors.New("instance file not found")
)

// Validate checks structural soundness. Vehicles with odd windows are allowed;
// the derivation step guards their numeric edge cases.
func (in *Instance) Validate() error {
	if len(in.Prices) == 0 {
		return ErrNoIntervals
	}
	if len(in.Parking.Chargers) == 0 {
		return ErrNoChargers
	}
	if in.Parking.Spots < 0 {
		return fmt.Errorf("n_spots must not be negative")
	}
	for _, c := range in.Parking.Chargers {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, v := range in.Arrivals {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Horizon returns the last price slot start time, in hours.
func (in *Instance) Horizon() float64 {
	var h float64
	for _, p := range in.Prices {
		if p.Time > h {
			h = p.Time
		}
	}
	return h
}
