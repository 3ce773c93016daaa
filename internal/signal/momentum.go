package signal

import (
	"fmt"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/internal/marketdata"
)

// Momentum is the built-in reference collaborator: it scores each symbol by
// its trailing performance-price return. Real deployments plug in their own
// Generator; this one keeps the binaries runnable end to end.
type Momentum struct {
	index  *marketdata.PriceIndex
	window int
}

func NewMomentum(index *marketdata.PriceIndex, window int) (*Momentum, error) {
	if window <= 1 {
		return nil, fmt.Errorf("%w: momentum window must be > 1", domain.ErrInvalidConfig)
	}
	return &Momentum{index: index, window: window}, nil
}

func (m *Momentum) Generate(date string, universe []string) ([]domain.TargetWeight, error) {
	var out []domain.TargetWeight
	for _, symbol := range universe {
		returns := m.index.PerfReturns(symbol, date, m.window)
		if len(returns) < m.window/2 {
			continue
		}
		score := 1.0
		for _, r := range returns {
			score *= 1 + r
		}
		score -= 1
		out = append(out, domain.TargetWeight{
			Symbol: symbol,
			Score:  score,
			Reason: fmt.Sprintf("momentum %.2f%%", score*100),
		})
	}
	return out, nil
}

func (m *Momentum) GenerateRanked(date string, universe []string) ([]domain.TargetWeight, error) {
	weights, err := m.Generate(date, universe)
	if err != nil {
		return nil, err
	}
	return SortByScore(weights), nil
}
