package composer

import "github.com/REAM-lab/CATEX/internal/pkg/solver"

// Result is the extracted primal solution and itemized cost breakdown
// of a solved Composer, keyed the same way as the submodel Bindings
// that produced each variable.
type Result struct {
	Cap  map[string]float64
	Gen  map[string]map[int]float64
	CapV map[string]map[string]float64
	GenV map[string]map[string]map[int]float64

	StoragePowerCap  map[string]float64
	StorageCharge    map[string]map[string]map[int]float64
	StorageDischarge map[string]map[string]map[int]float64
	StorageSOE       map[string]map[string]map[int]float64

	Theta map[string]map[string]map[int]float64

	CostPerTimepoint map[int]float64
	CostPerPeriod    float64
	TotalCost        float64
}

// extractResult reads back every variable binding and itemized cost
// term from the solved model. Only called once the solver has reported
// StatusOptimal.
func (c *Composer) extractResult() *Result {
	r := &Result{
		Cap:  make(map[string]float64, len(c.genBindings.Cap)),
		Gen:  make(map[string]map[int]float64, len(c.genBindings.Gen)),
		CapV: make(map[string]map[string]float64, len(c.genBindings.CapV)),
		GenV: make(map[string]map[string]map[int]float64, len(c.genBindings.GenV)),

		StoragePowerCap:  make(map[string]float64, len(c.stgBindings.PowerCap)),
		StorageCharge:    make(map[string]map[string]map[int]float64, len(c.stgBindings.Charge)),
		StorageDischarge: make(map[string]map[string]map[int]float64, len(c.stgBindings.Discharge)),
		StorageSOE:       make(map[string]map[string]map[int]float64, len(c.stgBindings.SOE)),

		Theta: make(map[string]map[string]map[int]float64, len(c.transBindings.Theta)),

		CostPerTimepoint: make(map[int]float64, len(c.sys.TimepointOrder)),
	}

	for name, v := range c.genBindings.Cap {
		r.Cap[name] = c.m.Value(v)
	}
	for name, byT := range c.genBindings.Gen {
		r.Gen[name] = valuesByInt(c.m, byT)
	}
	for name, byS := range c.genBindings.CapV {
		r.CapV[name] = valuesByString(c.m, byS)
	}
	for name, byS := range c.genBindings.GenV {
		r.GenV[name] = make(map[string]map[int]float64, len(byS))
		for scenario, byT := range byS {
			r.GenV[name][scenario] = valuesByInt(c.m, byT)
		}
	}

	for name, v := range c.stgBindings.PowerCap {
		r.StoragePowerCap[name] = c.m.Value(v)
	}
	for name, byS := range c.stgBindings.Charge {
		r.StorageCharge[name] = make(map[string]map[int]float64, len(byS))
		for scenario, byT := range byS {
			r.StorageCharge[name][scenario] = valuesByInt(c.m, byT)
		}
	}
	for name, byS := range c.stgBindings.Discharge {
		r.StorageDischarge[name] = make(map[string]map[int]float64, len(byS))
		for scenario, byT := range byS {
			r.StorageDischarge[name][scenario] = valuesByInt(c.m, byT)
		}
	}
	for name, byS := range c.stgBindings.SOE {
		r.StorageSOE[name] = make(map[string]map[int]float64, len(byS))
		for scenario, byT := range byS {
			r.StorageSOE[name][scenario] = valuesByInt(c.m, byT)
		}
	}

	for bus, byS := range c.transBindings.Theta {
		r.Theta[bus] = make(map[string]map[int]float64, len(byS))
		for scenario, byT := range byS {
			r.Theta[bus][scenario] = valuesByInt(c.m, byT)
		}
	}

	for _, t := range c.sys.TimepointOrder {
		r.CostPerTimepoint[t] = evalQuad(c.m, c.acc.TimepointCost(t))
	}
	r.CostPerPeriod = evalQuad(c.m, c.acc.PeriodCost())

	total := r.CostPerPeriod
	for _, t := range c.sys.TimepointOrder {
		total += c.sys.Timepoints[t].Weight * r.CostPerTimepoint[t]
	}
	r.TotalCost = total

	return r
}

func valuesByInt(m solver.Model, byT map[int]solver.VarRef) map[int]float64 {
	out := make(map[int]float64, len(byT))
	for t, v := range byT {
		out[t] = m.Value(v)
	}
	return out
}

func valuesByString(m solver.Model, byS map[string]solver.VarRef) map[string]float64 {
	out := make(map[string]float64, len(byS))
	for s, v := range byS {
		out[s] = m.Value(v)
	}
	return out
}
