package rules

import "testing"

func TestLerp(t *testing.T) {
	tests := []struct {
		min, max int
		t        float64
		want     int
	}{
		{44, 80, 0.0, 44},
		{44, 80, 1.0, 80},
		{44, 80, 0.5, 62},
		{800, 300, 0.5, 550},
		{300, 500, 0.7, 440},
	}
	for _, tc := range tests {
		got := lerp(tc.min, tc.max, tc.t)
		if got != tc.want {
			t.Errorf("lerp(%d, %d, %.1f) = %d, want %d", tc.min, tc.max, tc.t, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-0.5, 0, 1, 0.0},
		{1.5, 0, 1, 1.0},
		{0.0, 0, 1, 0.0},
		{1.0, 0, 1, 1.0},
	}
	for _, tc := range tests {
		got := clamp(tc.v, tc.min, tc.max)
		if got != tc.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tc.v, tc.min, tc.max, got, tc.want)
		}
	}
}

func TestDefaultDoctrine(t *testing.T) {
	d := DefaultDoctrine()
	if d.Name != "Balanced" {
		t.Errorf("DefaultDoctrine().Name = %q, want %q", d.Name, "Balanced")
	}
	if d.GasRatio != 2.4 {
		t.Errorf("DefaultDoctrine().GasRatio = %f, want 2.4", d.GasRatio)
	}
	if d.SupplyBuffer != 6 {
		t.Errorf("DefaultDoctrine().SupplyBuffer = %d, want 6", d.SupplyBuffer)
	}
	if got := d.WorkerCap(); got != 62 {
		t.Errorf("WorkerCap() = %d, want 62", got)
	}
}

func TestValidate(t *testing.T) {
	d := Doctrine{
		EconomyPriority: 1.5,
		Aggression:      -0.5,
		SupplyBuffer:    0,
		MuleEnergy:      10,
	}
	d.Validate()

	if d.EconomyPriority != 1.0 {
		t.Errorf("EconomyPriority = %f, want 1.0 (clamped)", d.EconomyPriority)
	}
	if d.Aggression != 0.0 {
		t.Errorf("Aggression = %f, want 0.0 (clamped)", d.Aggression)
	}
	if d.GasRatio != 2.4 {
		t.Errorf("GasRatio = %f, want 2.4 (unset)", d.GasRatio)
	}
	if d.SupplyBuffer != 2 {
		t.Errorf("SupplyBuffer = %d, want 2 (clamped)", d.SupplyBuffer)
	}
	if d.MuleEnergy != 50 {
		t.Errorf("MuleEnergy = %f, want 50 (clamped)", d.MuleEnergy)
	}

	d2 := Doctrine{GasRatio: 20, WorkerGasRatio: 20, SupplyBuffer: 100}
	d2.Validate()
	if d2.GasRatio != 8 {
		t.Errorf("GasRatio = %f, want 8 (clamped)", d2.GasRatio)
	}
	if d2.WorkerGasRatio != 32.0/6.0 {
		t.Errorf("WorkerGasRatio = %f, want %f (clamped)", d2.WorkerGasRatio, 32.0/6.0)
	}
	if d2.SupplyBuffer != 16 {
		t.Errorf("SupplyBuffer = %d, want 16 (clamped)", d2.SupplyBuffer)
	}
}
