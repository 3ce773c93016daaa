package risk

import (
	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

// EquityCurveController maps the account's own NAV history into an exposure
// multiplier in [0,1]. De-risking applies immediately; recovery follows the
// configured policy (immediate, or gradual stepping after an optional delay).
type EquityCurveController struct {
	cfg    config.EquityCurveConfig
	state  domain.EquityCurveState
	logger *utils.Logger
}

func NewEquityCurveController(cfg config.EquityCurveConfig, logger *utils.Logger) *EquityCurveController {
	initial := cfg.MaxExposure
	if !cfg.Enabled {
		initial = 1.0
	}
	return &EquityCurveController{
		cfg:    cfg,
		state:  domain.EquityCurveState{LastExposure: initial},
		logger: logger,
	}
}

// Evaluate computes the applied exposure for the current rebalance given the
// full NAV history up to and including today.
func (c *EquityCurveController) Evaluate(navs []float64) float64 {
	if !c.cfg.Enabled || len(navs) == 0 {
		return c.state.LastExposure
	}

	drawdown := trailingDrawdown(navs)
	raw := c.rawExposure(navs, drawdown)
	applied := c.state.LastExposure

	switch {
	case raw < applied:
		// de-risking is never delayed
		applied = raw
		c.state.Recovering = false
		c.state.RecoveryPeriods = 0
	case raw > applied && drawdown > c.state.LastDrawdown:
		// exposure never steps up while the trailing drawdown is deepening,
		// even when the tier or the trend would allow more
	case raw > applied:
		if c.cfg.RecoveryMode == "immediate" {
			applied = raw
			c.state.Recovering = false
			c.state.RecoveryPeriods = 0
		} else {
			if !c.state.Recovering {
				c.state.Recovering = true
				c.state.RecoveryPeriods = 0
			}
			c.state.RecoveryPeriods++
			if c.state.RecoveryPeriods > c.cfg.RecoveryDelay {
				applied += c.cfg.RecoveryStep
				if applied > raw {
					applied = raw
				}
			}
			if applied >= raw {
				c.state.Recovering = false
				c.state.RecoveryPeriods = 0
			}
		}
	default:
		c.state.Recovering = false
		c.state.RecoveryPeriods = 0
	}

	if applied < c.cfg.MinExposure {
		applied = c.cfg.MinExposure
	}
	if applied > c.cfg.MaxExposure {
		applied = c.cfg.MaxExposure
	}

	if applied != c.state.LastExposure {
		c.logger.Info("equity curve: exposure %.2f -> %.2f (raw %.2f)", c.state.LastExposure, applied, raw)
	}
	c.state.LastExposure = applied
	c.state.LastDrawdown = drawdown
	return applied
}

// rawExposure is min(drawdown-tier exposure, trend exposure).
func (c *EquityCurveController) rawExposure(navs []float64, drawdown float64) float64 {
	tierExposure := 1.0
	for _, tier := range c.cfg.Tiers {
		if drawdown >= tier.Drawdown {
			tierExposure = tier.Exposure
		}
	}

	trendExposure := 1.0
	if len(navs) >= c.cfg.SlowWindow {
		fast := movingAverage(navs, c.cfg.FastWindow)
		slow := movingAverage(navs, c.cfg.SlowWindow)
		if fast < slow {
			trendExposure = c.cfg.TrendOffExposure
		}
	}

	if trendExposure < tierExposure {
		return trendExposure
	}
	return tierExposure
}

// State snapshots the controller for persistence.
func (c *EquityCurveController) State() domain.EquityCurveState {
	return c.state
}

// Restore loads previously persisted state (paper-trading restart).
func (c *EquityCurveController) Restore(state domain.EquityCurveState) {
	c.state = state
}

func trailingDrawdown(navs []float64) float64 {
	peak := navs[0]
	for _, v := range navs {
		if v > peak {
			peak = v
		}
	}
	if peak <= 0 {
		return 0
	}
	return 1 - navs[len(navs)-1]/peak
}

func movingAverage(values []float64, window int) float64 {
	if window <= 0 || len(values) < window {
		window = len(values)
	}
	sum := 0.0
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}
