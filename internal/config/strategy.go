package config

import (
	"fmt"
	"os"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"gopkg.in/yaml.v3"
)

// StrategyConfig holds all simulation parameters. Every knob the engine,
// ledger or risk overlays read comes from here; validation is fail-fast so a
// bad file never reaches the first simulation date.
type StrategyConfig struct {
	InitialCapital float64 `yaml:"initial_capital"`
	LotSize        int64   `yaml:"lot_size"`
	TopN           int     `yaml:"top_n"`
	HoldingPeriod  int     `yaml:"holding_period"`  // trading days
	RebalanceEvery int     `yaml:"rebalance_every"` // trading days

	Fees        FeeConfig         `yaml:"fees"`
	RiskBudget  RiskBudgetConfig  `yaml:"risk_budget"`
	StopLoss    StopLossConfig    `yaml:"stop_loss"`
	EquityCurve EquityCurveConfig `yaml:"equity_curve"`
	Pending     PendingConfig     `yaml:"pending"`
	Completion  CompletionConfig  `yaml:"completion"`
}

type FeeConfig struct {
	CommissionRate float64 `yaml:"commission_rate"`
	MinCommission  float64 `yaml:"min_commission"`
	StampTaxRate   float64 `yaml:"stamp_tax_rate"` // sells only
	SlippageRate   float64 `yaml:"slippage_rate"`  // per side
}

type RiskBudgetConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Window    int     `yaml:"window"` // trailing return window, trading days
	Annualize float64 `yaml:"annualize"`
	VolFloor  float64 `yaml:"vol_floor"`
}

type StopLossConfig struct {
	Enabled          bool    `yaml:"enabled"`
	DrawdownPct      float64 `yaml:"drawdown_pct"` // from entry
	TrailingEnabled  bool    `yaml:"trailing_enabled"`
	TrailingPct      float64 `yaml:"trailing_pct"` // from high water
	MaxLimitDownDays int     `yaml:"max_limit_down_days"`
}

type ExposureTier struct {
	Drawdown float64 `yaml:"drawdown"`
	Exposure float64 `yaml:"exposure"`
}

type EquityCurveConfig struct {
	Enabled          bool           `yaml:"enabled"`
	Tiers            []ExposureTier `yaml:"tiers"` // ascending drawdown thresholds
	FastWindow       int            `yaml:"fast_window"`
	SlowWindow       int            `yaml:"slow_window"`
	TrendOffExposure float64        `yaml:"trend_off_exposure"`
	RecoveryMode     string         `yaml:"recovery_mode"` // immediate | gradual
	RecoveryStep     float64        `yaml:"recovery_step"`
	RecoveryDelay    int            `yaml:"recovery_delay"` // evaluations before a gradual step
	MinExposure      float64        `yaml:"min_exposure"`
	MaxExposure      float64        `yaml:"max_exposure"`
}

type PendingConfig struct {
	MaxRetryCount int `yaml:"max_retry_count"`
	MaxRetryDays  int `yaml:"max_retry_days"` // calendar days since first block
}

type CompletionConfig struct {
	WindowDays int `yaml:"window_days"` // trading days after the entry date
}

// DefaultStrategy returns a runnable parameter set (A-share style fees, lot 100).
func DefaultStrategy() *StrategyConfig {
	return &StrategyConfig{
		InitialCapital: 1_000_000,
		LotSize:        100,
		TopN:           5,
		HoldingPeriod:  5,
		RebalanceEvery: 5,
		Fees: FeeConfig{
			CommissionRate: 0.0003,
			MinCommission:  5,
			StampTaxRate:   0.001,
			SlippageRate:   0,
		},
		RiskBudget: RiskBudgetConfig{
			Enabled:   true,
			Window:    20,
			Annualize: 252,
			VolFloor:  1e-4,
		},
		StopLoss: StopLossConfig{
			Enabled:          true,
			DrawdownPct:      0.08,
			TrailingEnabled:  true,
			TrailingPct:      0.10,
			MaxLimitDownDays: 2,
		},
		EquityCurve: EquityCurveConfig{
			Enabled: true,
			Tiers: []ExposureTier{
				{Drawdown: 0.05, Exposure: 0.7},
				{Drawdown: 0.10, Exposure: 0.4},
				{Drawdown: 0.15, Exposure: 0.2},
			},
			FastWindow:       5,
			SlowWindow:       20,
			TrendOffExposure: 0.5,
			RecoveryMode:     "gradual",
			RecoveryStep:     0.2,
			RecoveryDelay:    0,
			MinExposure:      0,
			MaxExposure:      1,
		},
		Pending: PendingConfig{
			MaxRetryCount: 3,
			MaxRetryDays:  5,
		},
		Completion: CompletionConfig{
			WindowDays: 3,
		},
	}
}

// LoadStrategy reads and validates a YAML strategy file.
func LoadStrategy(path string) (*StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy file: %w", err)
	}

	cfg := DefaultStrategy()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse strategy file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parameter set before any simulation date is processed.
func (c *StrategyConfig) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial_capital must be positive", domain.ErrInvalidConfig)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("%w: lot_size must be positive", domain.ErrInvalidConfig)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("%w: top_n must be positive", domain.ErrInvalidConfig)
	}
	if c.HoldingPeriod <= 0 {
		return fmt.Errorf("%w: holding_period must be positive", domain.ErrInvalidConfig)
	}
	if c.RebalanceEvery <= 0 {
		return fmt.Errorf("%w: rebalance_every must be positive", domain.ErrInvalidConfig)
	}
	if c.Fees.CommissionRate < 0 || c.Fees.StampTaxRate < 0 || c.Fees.SlippageRate < 0 {
		return fmt.Errorf("%w: fee rates must be non-negative", domain.ErrInvalidConfig)
	}
	if c.RiskBudget.Enabled {
		if c.RiskBudget.Window <= 1 {
			return fmt.Errorf("%w: risk_budget.window must be > 1", domain.ErrInvalidConfig)
		}
		if c.RiskBudget.VolFloor <= 0 {
			return fmt.Errorf("%w: risk_budget.vol_floor must be positive", domain.ErrInvalidConfig)
		}
	}
	if c.StopLoss.Enabled {
		if c.StopLoss.DrawdownPct <= 0 {
			return fmt.Errorf("%w: stop_loss.drawdown_pct must be positive", domain.ErrInvalidConfig)
		}
		if c.StopLoss.TrailingEnabled && c.StopLoss.TrailingPct <= 0 {
			return fmt.Errorf("%w: stop_loss.trailing_pct must be positive", domain.ErrInvalidConfig)
		}
	}
	if c.EquityCurve.Enabled {
		if err := c.validateEquityCurve(); err != nil {
			return err
		}
	}
	if c.Pending.MaxRetryCount < 0 || c.Pending.MaxRetryDays <= 0 {
		return fmt.Errorf("%w: pending retry ceilings must be positive", domain.ErrInvalidConfig)
	}
	if c.Completion.WindowDays < 0 {
		return fmt.Errorf("%w: completion.window_days must be non-negative", domain.ErrInvalidConfig)
	}
	return nil
}

func (c *StrategyConfig) validateEquityCurve() error {
	ec := c.EquityCurve
	if len(ec.Tiers) == 0 {
		return fmt.Errorf("%w: equity_curve.tiers must not be empty", domain.ErrInvalidConfig)
	}
	for i, tier := range ec.Tiers {
		if tier.Drawdown <= 0 || tier.Exposure < 0 || tier.Exposure > 1 {
			return fmt.Errorf("%w: equity_curve tier %d out of range", domain.ErrInvalidConfig, i)
		}
		if i > 0 {
			// deeper drawdown must map to strictly lower exposure
			if tier.Drawdown <= ec.Tiers[i-1].Drawdown {
				return fmt.Errorf("%w: equity_curve tiers must have ascending thresholds", domain.ErrInvalidConfig)
			}
			if tier.Exposure >= ec.Tiers[i-1].Exposure {
				return fmt.Errorf("%w: equity_curve tier exposures must be strictly decreasing", domain.ErrInvalidConfig)
			}
		}
	}
	if ec.FastWindow <= 0 || ec.SlowWindow <= ec.FastWindow {
		return fmt.Errorf("%w: equity_curve windows must satisfy 0 < fast < slow", domain.ErrInvalidConfig)
	}
	if ec.RecoveryMode != "immediate" && ec.RecoveryMode != "gradual" {
		return fmt.Errorf("%w: equity_curve.recovery_mode must be immediate or gradual", domain.ErrInvalidConfig)
	}
	if ec.RecoveryMode == "gradual" && ec.RecoveryStep <= 0 {
		return fmt.Errorf("%w: equity_curve.recovery_step must be positive", domain.ErrInvalidConfig)
	}
	if ec.MinExposure < 0 || ec.MaxExposure > 1 || ec.MinExposure > ec.MaxExposure {
		return fmt.Errorf("%w: equity_curve exposure clamp out of range", domain.ErrInvalidConfig)
	}
	return nil
}
