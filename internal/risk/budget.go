package risk

import (
	"math"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/internal/marketdata"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

// BudgetAdjuster rescales raw target weights inversely to trailing realized
// volatility and renormalizes them to sum 1.
type BudgetAdjuster struct {
	cfg    config.RiskBudgetConfig
	index  *marketdata.PriceIndex
	logger *utils.Logger
}

func NewBudgetAdjuster(cfg config.RiskBudgetConfig, index *marketdata.PriceIndex, logger *utils.Logger) *BudgetAdjuster {
	return &BudgetAdjuster{cfg: cfg, index: index, logger: logger}
}

// Adjust returns the volatility-scaled weight set for asOf. Volatility is the
// annualized standard deviation of the last window performance-price returns
// strictly before asOf. A degenerate total falls back to equal weighting.
func (a *BudgetAdjuster) Adjust(asOf string, weights []domain.TargetWeight) []domain.TargetWeight {
	if !a.cfg.Enabled || len(weights) == 0 {
		return weights
	}

	adjusted := make([]domain.TargetWeight, len(weights))
	copy(adjusted, weights)

	total := 0.0
	for i := range adjusted {
		vol := a.trailingVol(adjusted[i].Symbol, asOf)
		if vol < a.cfg.VolFloor {
			vol = a.cfg.VolFloor
		}
		adjusted[i].Weight = adjusted[i].Weight / vol
		total += adjusted[i].Weight
	}

	if total <= 0 {
		a.logger.Warn("risk budget: degenerate adjusted total on %s, using equal weights", asOf)
		w := 1.0 / float64(len(adjusted))
		for i := range adjusted {
			adjusted[i].Weight = w
		}
		return adjusted
	}

	for i := range adjusted {
		adjusted[i].Weight /= total
	}
	return adjusted
}

// trailingVol returns annualized volatility; zero when history is too short
// (the floor takes over).
func (a *BudgetAdjuster) trailingVol(symbol, asOf string) float64 {
	returns := a.index.PerfReturns(symbol, asOf, a.cfg.Window)
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(a.cfg.Annualize)
}
