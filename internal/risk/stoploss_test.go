package risk

import (
	"testing"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

func testLogger() *utils.Logger {
	return utils.NewLogger("error")
}

func TestStopLossMonitor_Drawdown(t *testing.T) {
	m := NewStopLossMonitor(config.StopLossConfig{
		Enabled:     true,
		DrawdownPct: 0.08,
	}, testLogger())
	m.Track("AAA", 10.0)

	if _, fired := m.Update("AAA", 9.3, 10.0, false); fired {
		t.Error("Update() fired at 7% drawdown, threshold is 8%")
	}
	trigger, fired := m.Update("AAA", 9.1, 10.0, false)
	if !fired || trigger != domain.TriggerDrawdown {
		t.Errorf("Update() = %q, %v, want %q, true", trigger, fired, domain.TriggerDrawdown)
	}
}

func TestStopLossMonitor_SingleTrigger(t *testing.T) {
	m := NewStopLossMonitor(config.StopLossConfig{
		Enabled:     true,
		DrawdownPct: 0.08,
	}, testLogger())
	m.Track("AAA", 10.0)

	// price keeps falling for ten days; exactly one forced exit may fire
	fires := 0
	price := 9.0
	for i := 0; i < 10; i++ {
		if _, fired := m.Update("AAA", price, 10.0, false); fired {
			fires++
		}
		price -= 0.2
	}
	if fires != 1 {
		t.Errorf("Update() fired %d times over 10 down days, want 1", fires)
	}
}

func TestStopLossMonitor_Trailing(t *testing.T) {
	m := NewStopLossMonitor(config.StopLossConfig{
		Enabled:         true,
		DrawdownPct:     0.50, // out of reach
		TrailingEnabled: true,
		TrailingPct:     0.10,
	}, testLogger())
	m.Track("AAA", 10.0)

	if _, fired := m.Update("AAA", 12.0, 10.0, false); fired {
		t.Error("Update() fired while the price was rising")
	}
	// 10.7 is 10.83% off the 12.0 high water but up 7% from entry
	trigger, fired := m.Update("AAA", 10.7, 10.0, false)
	if !fired || trigger != domain.TriggerTrailing {
		t.Errorf("Update() = %q, %v, want %q, true", trigger, fired, domain.TriggerTrailing)
	}
}

func TestStopLossMonitor_LimitDownRun(t *testing.T) {
	m := NewStopLossMonitor(config.StopLossConfig{
		Enabled:          true,
		DrawdownPct:      0.50,
		MaxLimitDownDays: 2,
	}, testLogger())
	m.Track("AAA", 10.0)

	if _, fired := m.Update("AAA", 9.5, 10.0, true); fired {
		t.Error("Update() fired after one limit-down day, want two")
	}
	// a normal day resets the streak
	if _, fired := m.Update("AAA", 9.6, 10.0, false); fired {
		t.Error("Update() fired on a normal day")
	}
	m.Update("AAA", 9.4, 10.0, true)
	trigger, fired := m.Update("AAA", 9.2, 10.0, true)
	if !fired || trigger != domain.TriggerLimitDownRun {
		t.Errorf("Update() = %q, %v, want %q, true", trigger, fired, domain.TriggerLimitDownRun)
	}
}

func TestStopLossMonitor_Disabled(t *testing.T) {
	m := NewStopLossMonitor(config.StopLossConfig{Enabled: false}, testLogger())
	m.Track("AAA", 10.0)
	if _, fired := m.Update("AAA", 1.0, 10.0, true); fired {
		t.Error("Update() fired with the monitor disabled")
	}
	if len(m.States()) != 0 {
		t.Error("Track() stored state with the monitor disabled")
	}
}

func TestStopLossMonitor_Restore(t *testing.T) {
	m := NewStopLossMonitor(config.StopLossConfig{
		Enabled:     true,
		DrawdownPct: 0.08,
	}, testLogger())
	m.Restore([]domain.StopLossState{
		{Symbol: "AAA", HighWater: 12.0, Triggered: true},
		{Symbol: "BBB", HighWater: 8.0},
	})

	// a restored triggered state must stay silent while the exit is pending
	if _, fired := m.Update("AAA", 5.0, 10.0, false); fired {
		t.Error("Update() retriggered a restored triggered state")
	}
	if _, fired := m.Update("BBB", 7.0, 8.0, false); !fired {
		t.Error("Update() did not fire for a restored clean state past the threshold")
	}
}
