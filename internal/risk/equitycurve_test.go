package risk

import (
	"math"
	"testing"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
)

func tieredConfig(mode string) config.EquityCurveConfig {
	return config.EquityCurveConfig{
		Enabled: true,
		Tiers: []config.ExposureTier{
			{Drawdown: 0.05, Exposure: 0.7},
			{Drawdown: 0.10, Exposure: 0.4},
		},
		FastWindow:       2,
		SlowWindow:       3,
		TrendOffExposure: 0.5,
		RecoveryMode:     mode,
		RecoveryStep:     0.2,
		RecoveryDelay:    0,
		MinExposure:      0,
		MaxExposure:      1,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEquityCurveController_Disabled(t *testing.T) {
	c := NewEquityCurveController(config.EquityCurveConfig{Enabled: false}, testLogger())
	if got := c.Evaluate([]float64{1.0, 0.5}); got != 1.0 {
		t.Errorf("Evaluate() = %v, want 1.0 when disabled", got)
	}
}

func TestEquityCurveController_DrawdownTiers(t *testing.T) {
	tests := []struct {
		name string
		navs []float64
		want float64
	}{
		{"no drawdown", []float64{1.0, 1.02}, 1.0},
		{"first tier", []float64{1.0, 0.94}, 0.7},
		{"second tier and trend off", []float64{1.0, 0.94, 0.88}, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewEquityCurveController(tieredConfig("immediate"), testLogger())
			if got := c.Evaluate(tt.navs); !almostEqual(got, tt.want) {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEquityCurveController_TrendOff(t *testing.T) {
	c := NewEquityCurveController(tieredConfig("immediate"), testLogger())
	// shallow drawdown (under the first tier) but fast MA below slow MA
	got := c.Evaluate([]float64{1.00, 0.99, 0.98})
	if !almostEqual(got, 0.5) {
		t.Errorf("Evaluate() = %v, want 0.5 (trend-off exposure)", got)
	}
}

func TestEquityCurveController_GradualRecovery(t *testing.T) {
	c := NewEquityCurveController(tieredConfig("gradual"), testLogger())

	down := []float64{1.0, 0.94, 0.88}
	if got := c.Evaluate(down); !almostEqual(got, 0.4) {
		t.Fatalf("Evaluate() de-risk = %v, want 0.4", got)
	}

	// fully recovered curve: raw exposure is back to 1.0 but the applied
	// exposure climbs by one step per evaluation
	up := []float64{1.0, 0.94, 0.88, 1.00, 1.01}
	for i, want := range []float64{0.6, 0.8, 1.0} {
		if got := c.Evaluate(up); !almostEqual(got, want) {
			t.Errorf("Evaluate() recovery step %d = %v, want %v", i+1, got, want)
		}
	}
	// stable at the ceiling
	if got := c.Evaluate(up); !almostEqual(got, 1.0) {
		t.Errorf("Evaluate() after recovery = %v, want 1.0", got)
	}
}

func TestEquityCurveController_GradualRecoveryAbortsOnNewDrawdown(t *testing.T) {
	c := NewEquityCurveController(tieredConfig("gradual"), testLogger())

	c.Evaluate([]float64{1.0, 0.94, 0.88})             // de-risk to 0.4
	c.Evaluate([]float64{1.0, 0.94, 0.88, 1.00, 1.01}) // first recovery step

	// a fresh drawdown mid-recovery de-risks immediately
	got := c.Evaluate([]float64{1.0, 0.94, 0.88, 1.01, 0.89})
	if !almostEqual(got, 0.4) {
		t.Errorf("Evaluate() = %v, want immediate de-risk to 0.4", got)
	}
	if c.State().Recovering {
		t.Error("State().Recovering = true after a de-risk")
	}
}

func TestEquityCurveController_HoldsWhileDrawdownWorsens(t *testing.T) {
	c := NewEquityCurveController(tieredConfig("gradual"), testLogger())

	if got := c.Evaluate([]float64{1.0, 0.94, 0.88}); !almostEqual(got, 0.4) {
		t.Fatalf("Evaluate() de-risk = %v, want 0.4", got)
	}
	// partial rebound: drawdown back to 6%, trend still off, one step up
	if got := c.Evaluate([]float64{1.0, 0.94, 0.88, 0.94}); !almostEqual(got, 0.5) {
		t.Fatalf("Evaluate() rebound = %v, want 0.5", got)
	}
	// drawdown deepens to 8%: tier and trend would allow 0.7, exposure holds
	if got := c.Evaluate([]float64{1.0, 0.94, 0.88, 0.94, 0.92}); !almostEqual(got, 0.5) {
		t.Errorf("Evaluate() = %v, want hold at 0.5 while drawdown deepens", got)
	}
	// drawdown eases again: stepping resumes
	if got := c.Evaluate([]float64{1.0, 0.94, 0.88, 0.94, 0.92, 0.98}); !almostEqual(got, 0.7) {
		t.Errorf("Evaluate() = %v, want 0.7 once drawdown improves", got)
	}
}

func TestEquityCurveController_ImmediateRecovery(t *testing.T) {
	c := NewEquityCurveController(tieredConfig("immediate"), testLogger())
	c.Evaluate([]float64{1.0, 0.94, 0.88})
	got := c.Evaluate([]float64{1.0, 0.94, 0.88, 1.00, 1.01})
	if !almostEqual(got, 1.0) {
		t.Errorf("Evaluate() = %v, want 1.0 in immediate mode", got)
	}
}

func TestEquityCurveController_MinExposureClamp(t *testing.T) {
	cfg := tieredConfig("immediate")
	cfg.MinExposure = 0.45
	c := NewEquityCurveController(cfg, testLogger())
	if got := c.Evaluate([]float64{1.0, 0.94, 0.88}); !almostEqual(got, 0.45) {
		t.Errorf("Evaluate() = %v, want clamp at 0.45", got)
	}
}
