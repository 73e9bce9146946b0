package derive

import (
	"math"

	"github.com/kilianp07/evsched/core/model"
)

const minChargeFloor = 1.0

// PowerBounds returns the effective power range in kW for vehicle v on
// charger c. The upper bound may be below the lower bound, in which case the
// pair can only stay idle.
func PowerBounds(v model.Vehicle, c model.Charger) (upper, lower float64) {
	upper = math.Min(c.Power, v.MaxRateFor(c.Type))
	lower = math.Max(minChargeFloor, v.MinChargeRate)
	return upper, lower
}

// Derived holds every preprocessed attribute of an instance. Slices are
// indexed by vehicle position, then charger position.
type Derived struct {
	Priority []float64
	MaxDelay []float64
	Compat   Compatibility
	Upper    [][]float64
	Lower    [][]float64
}

// Derive computes the derived attributes for inst. A nil matcher selects the
// heuristic one.
func Derive(inst *model.Instance, matcher BrandMatcher) (*Derived, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	vehicles := inst.Arrivals
	chargers := inst.Parking.Chargers

	d := &Derived{
		Priority: make([]float64, len(vehicles)),
		MaxDelay: make([]float64, len(vehicles)),
		Compat:   BuildCompatibility(vehicles, chargers, matcher),
		Upper:    make([][]float64, len(vehicles)),
		Lower:    make([][]float64, len(vehicles)),
	}
	for i, v := range vehicles {
		d.Priority[i] = Priority(v)
		d.MaxDelay[i] = MaxDelay(v)
		d.Upper[i] = make([]float64, len(chargers))
		d.Lower[i] = make([]float64, len(chargers))
		for c, ch := range chargers {
			d.Upper[i][c], d.Lower[i][c] = PowerBounds(v, ch)
		}
	}
	return d, nil
}

// CompatibleCount returns how many vehicles may use charger c.
func (d *Derived) CompatibleCount(c int) int {
	n := 0
	for i := range d.Compat {
		if d.Compat[i][c] {
			n++
		}
	}
	return n
}
