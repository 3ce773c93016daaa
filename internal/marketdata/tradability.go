package marketdata

import (
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

// TradabilityGate decides whether a buy or sell may proceed on a date.
// Suspension blocks both sides, limit-up blocks buys, limit-down blocks sells.
type TradabilityGate struct {
	index  *PriceIndex
	logger *utils.Logger
}

func NewTradabilityGate(index *PriceIndex, logger *utils.Logger) *TradabilityGate {
	return &TradabilityGate{index: index, logger: logger}
}

// CanTrade returns whether the action may proceed and, if not, the block
// reason. Missing status data is treated as tradable.
func (g *TradabilityGate) CanTrade(symbol, date, action string) (bool, string) {
	flags, ok := g.index.status[priceKey{date: date, symbol: symbol}]
	if !ok {
		g.logger.Debug("tradability: no status data for %s on %s, assuming tradable", symbol, date)
		return true, ""
	}

	if flags.suspended {
		return false, domain.BlockSuspended
	}
	if flags.limitUp && action == domain.ActionBuy {
		return false, domain.BlockLimitUp
	}
	if flags.limitDown && action == domain.ActionSell {
		return false, domain.BlockLimitDown
	}
	return true, ""
}

// IsLimitDown reports whether the symbol closed at the down limit on date.
// The stop-loss monitor uses it for the consecutive-limit-down counter.
func (g *TradabilityGate) IsLimitDown(symbol, date string) bool {
	flags, ok := g.index.status[priceKey{date: date, symbol: symbol}]
	return ok && flags.limitDown
}
