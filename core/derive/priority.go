package derive

import (
	"math"

	"github.com/kilianp07/evsched/core/model"
)

const (
	minPriority      = 1.0
	maxPriority      = 10.0
	maxPressureBonus = 2.0
	maxDelayHours    = 2.0
	delayStayRatio   = 0.15
)

// baseTier maps the raw priority class onto the normalized scale.
func baseTier(p int) float64 {
	switch {
	case p <= 1:
		return 2
	case p == 2:
		return 5
	default:
		return 8
	}
}

// Pressure is the energy requested per hour of stay. A non-positive stay
// yields 1.0.
func Pressure(v model.Vehicle) float64 {
	stay := v.StayDuration()
	if stay <= 0 {
		return 1.0
	}
	return v.RequiredEnergy / stay
}

// Priority returns the normalized priority of v in [1, 10].
func Priority(v model.Vehicle) float64 {
	p := baseTier(v.Priority) + math.Min(maxPressureBonus, Pressure(v)/10)
	return math.Max(minPriority, math.Min(maxPriority, p))
}

// MaxDelay returns how long past departure a vehicle may still be charged,
// in hours. Stays that are zero or negative yield 0.
func MaxDelay(v model.Vehicle) float64 {
	d := math.Min(maxDelayHours, delayStayRatio*v.StayDuration())
	if d < 0 {
		return 0
	}
	return d
}
