package rules

import "math"

// Doctrine is the macro posture used once the build order has nothing
// reserved. Weights are 0.0–1.0; the compiler maps them to rule parameters.
// A build order may carry its own, logged with its Rationale when applied.
type Doctrine struct {
	Name            string  `json:"name" mapstructure:"name" yaml:"name"`
	Rationale       string  `json:"rationale" mapstructure:"rationale" yaml:"rationale"`
	EconomyPriority float64 `json:"economy_priority" mapstructure:"economy_priority" yaml:"economy_priority"`
	Aggression      float64 `json:"aggression" mapstructure:"aggression" yaml:"aggression"`

	// GasRatio is the mineral:vespene bank ratio above which another gas
	// mine is taken. WorkerGasRatio is the target mineral:vespene miner ratio.
	GasRatio       float64 `json:"gas_ratio" mapstructure:"gas_ratio" yaml:"gas_ratio"`
	WorkerGasRatio float64 `json:"worker_gas_ratio" mapstructure:"worker_gas_ratio" yaml:"worker_gas_ratio"`
	SupplyBuffer   int     `json:"supply_buffer" mapstructure:"supply_buffer" yaml:"supply_buffer"`
	// MuleEnergy is the orbital energy needed before a MULE is dropped.
	// Above 50 it banks energy for scans.
	MuleEnergy     float64 `json:"mule_energy" mapstructure:"mule_energy" yaml:"mule_energy"`
}

// DefaultDoctrine returns a balanced baseline doctrine.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:            "Balanced",
		Rationale:       "Default macro posture",
		EconomyPriority: 0.5,
		Aggression:      0.5,
		GasRatio:        2.4,
		WorkerGasRatio:  16.0 / 6.0,
		SupplyBuffer:    6,
		MuleEnergy:      50,
	}
}

// Validate clamps all weights to their valid ranges.
func (d *Doctrine) Validate() {
	d.EconomyPriority = clamp(d.EconomyPriority, 0, 1)
	d.Aggression = clamp(d.Aggression, 0, 1)
	if d.GasRatio <= 0 || math.IsNaN(d.GasRatio) {
		d.GasRatio = 2.4
	}
	d.GasRatio = clamp(d.GasRatio, 1, 8)
	if d.WorkerGasRatio <= 0 || math.IsNaN(d.WorkerGasRatio) {
		d.WorkerGasRatio = 16.0 / 6.0
	}
	d.WorkerGasRatio = clamp(d.WorkerGasRatio, 1, 32.0/6.0)
	d.SupplyBuffer = clampInt(d.SupplyBuffer, 2, 16)
	d.MuleEnergy = clamp(d.MuleEnergy, 50, 200)
}

// WorkerCap is how many workers the economy rules aim for.
func (d Doctrine) WorkerCap() int {
	return lerp(44, 80, d.EconomyPriority)
}

// SurplusMinerals is the bank above which minerals go into army.
func (d Doctrine) SurplusMinerals() int {
	return lerp(800, 300, d.Aggression)
}

// clampInt restricts v to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// lerp linearly interpolates between min and max by t (0–1), returning an int.
func lerp(min, max int, t float64) int {
	return min + int(math.Round(float64(max-min)*t))
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
