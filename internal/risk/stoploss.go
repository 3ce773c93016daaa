package risk

import (
	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

// StopLossMonitor tracks per-position high-water price and limit-down streaks
// and emits forced-exit triggers independent of the holding-period clock.
// A position triggers at most once; the flag stays set while the forced exit
// is pending so later days cannot retrigger.
type StopLossMonitor struct {
	cfg    config.StopLossConfig
	states map[string]*domain.StopLossState
	logger *utils.Logger
}

func NewStopLossMonitor(cfg config.StopLossConfig, logger *utils.Logger) *StopLossMonitor {
	return &StopLossMonitor{
		cfg:    cfg,
		states: make(map[string]*domain.StopLossState),
		logger: logger,
	}
}

// Track starts monitoring a freshly opened position.
func (m *StopLossMonitor) Track(symbol string, entryPrice float64) {
	if !m.cfg.Enabled {
		return
	}
	m.states[symbol] = &domain.StopLossState{
		Symbol:    symbol,
		HighWater: entryPrice,
	}
}

// Update advances the state machine for one held position on one date and
// returns the trigger kind when a forced exit fires. Triggers are evaluated
// in priority order: drawdown from entry, trailing from high water,
// consecutive limit-down days.
func (m *StopLossMonitor) Update(symbol string, execPrice, entryPrice float64, limitDown bool) (string, bool) {
	if !m.cfg.Enabled {
		return "", false
	}

	state, ok := m.states[symbol]
	if !ok {
		state = &domain.StopLossState{Symbol: symbol, HighWater: entryPrice}
		m.states[symbol] = state
	}
	if state.Triggered {
		return "", false
	}

	if execPrice > state.HighWater {
		state.HighWater = execPrice
	}
	if limitDown {
		state.LimitDownRun++
	} else {
		state.LimitDownRun = 0
	}

	if entryPrice > 0 {
		drawdown := (entryPrice - execPrice) / entryPrice
		if drawdown >= m.cfg.DrawdownPct {
			state.Triggered = true
			m.logger.Info("stop loss: %s drawdown %.2f%% from entry, forcing exit", symbol, drawdown*100)
			return domain.TriggerDrawdown, true
		}
	}

	if m.cfg.TrailingEnabled && state.HighWater > 0 {
		fromHigh := (state.HighWater - execPrice) / state.HighWater
		if fromHigh >= m.cfg.TrailingPct {
			state.Triggered = true
			m.logger.Info("stop loss: %s %.2f%% off high water, forcing exit", symbol, fromHigh*100)
			return domain.TriggerTrailing, true
		}
	}

	if m.cfg.MaxLimitDownDays > 0 && state.LimitDownRun >= m.cfg.MaxLimitDownDays {
		state.Triggered = true
		m.logger.Info("stop loss: %s hit down limit %d days running, forcing exit", symbol, state.LimitDownRun)
		return domain.TriggerLimitDownRun, true
	}

	return "", false
}

// Clear drops the state for a closed position.
func (m *StopLossMonitor) Clear(symbol string) {
	delete(m.states, symbol)
}

// States snapshots all tracked states for persistence.
func (m *StopLossMonitor) States() []domain.StopLossState {
	out := make([]domain.StopLossState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, *s)
	}
	return out
}

// Restore loads previously persisted states (paper-trading restart).
func (m *StopLossMonitor) Restore(states []domain.StopLossState) {
	for i := range states {
		s := states[i]
		m.states[s.Symbol] = &s
	}
}
