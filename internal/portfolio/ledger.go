package portfolio

import (
	"fmt"
	"sort"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

// PriceFunc resolves a symbol to its execution price for NAV marking.
type PriceFunc func(symbol string) (float64, bool)

// Ledger owns cash, open positions and the append-only fill log. Buys are
// lot-floored and shrink to the maximum affordable size; sells settle cash on
// the execution leg and realize P&L on the performance leg. Exactly one owner
// (the simulation loop) mutates it.
type Ledger struct {
	initialCapital float64
	lotSize        int64
	fees           FeeModel

	cash      float64
	positions map[string]*domain.Position
	fills     []domain.Fill

	logger *utils.Logger
}

func NewLedger(initialCapital float64, lotSize int64, feeCfg config.FeeConfig, logger *utils.Logger) *Ledger {
	return &Ledger{
		initialCapital: initialCapital,
		lotSize:        lotSize,
		fees:           NewFeeModel(feeCfg),
		cash:           initialCapital,
		positions:      make(map[string]*domain.Position),
		logger:         logger,
	}
}

func (l *Ledger) Cash() float64 {
	return l.cash
}

func (l *Ledger) InitialCapital() float64 {
	return l.initialCapital
}

// Position returns the open position for symbol, or nil.
func (l *Ledger) Position(symbol string) *domain.Position {
	return l.positions[symbol]
}

// Positions returns open positions sorted by symbol.
func (l *Ledger) Positions() []domain.Position {
	out := make([]domain.Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (l *Ledger) Holds(symbol string) bool {
	_, ok := l.positions[symbol]
	return ok
}

// Fills returns the trade log.
func (l *Ledger) Fills() []domain.Fill {
	return l.fills
}

// Buy opens or grows a position with at most targetCash. Shares are floored
// to a lot multiple and shrink lot by lot until cash covers shares plus fees;
// a zero-affordable buy returns ErrInsufficientFunds and changes nothing.
func (l *Ledger) Buy(date, symbol string, targetCash, execPrice, perfPrice float64, reason string) (*domain.Fill, error) {
	if execPrice <= 0 {
		return nil, fmt.Errorf("buy %s on %s: %w", symbol, date, domain.ErrPriceNotFound)
	}
	if targetCash > l.cash {
		targetCash = l.cash
	}

	lot := float64(l.lotSize)
	shares := int64(targetCash/execPrice/lot) * l.lotSize
	if shares <= 0 {
		return nil, domain.ErrInsufficientFunds
	}

	// shrink until shares + fees fit into cash
	gross := float64(shares) * execPrice
	commission, slippage, totalFees := l.fees.BuyFees(gross)
	for shares > 0 && gross+totalFees > l.cash {
		shares -= l.lotSize
		gross = float64(shares) * execPrice
		commission, slippage, totalFees = l.fees.BuyFees(gross)
	}
	if shares <= 0 {
		return nil, domain.ErrInsufficientFunds
	}

	totalCost := gross + totalFees
	l.cash -= totalCost

	if pos, ok := l.positions[symbol]; ok {
		// sequential buys average into a single cost basis
		newShares := pos.Shares + shares
		pos.EntryPrice = (pos.EntryPrice*float64(pos.Shares) + execPrice*float64(shares)) / float64(newShares)
		pos.EntryPerfPrice = (pos.EntryPerfPrice*float64(pos.Shares) + perfPrice*float64(shares)) / float64(newShares)
		pos.Shares = newShares
		pos.EntryCost += totalCost
	} else {
		l.positions[symbol] = &domain.Position{
			Symbol:         symbol,
			Shares:         shares,
			EntryPrice:     execPrice,
			EntryPerfPrice: perfPrice,
			EntryDate:      date,
			EntryCost:      totalCost,
			Status:         domain.StatusHeld,
		}
	}

	fill := domain.Fill{
		Date:        date,
		Symbol:      symbol,
		Action:      domain.ActionBuy,
		Shares:      shares,
		Price:       execPrice,
		PerfPrice:   perfPrice,
		GrossAmount: gross,
		Commission:  commission,
		Slippage:    slippage,
		TotalCost:   totalCost,
		Reason:      reason,
	}
	l.fills = append(l.fills, fill)
	l.logger.Debug("buy %s: %d @ %.3f cost %.2f (%s)", symbol, shares, execPrice, totalCost, reason)
	return &fill, nil
}

// Sell closes part of a position. Shares are floored to a lot multiple; the
// cash flow settles on the execution leg while realized P&L is computed on
// the performance leg, with both entry-side and exit-side fees subtracted.
func (l *Ledger) Sell(date, symbol string, shares int64, execPrice, perfPrice float64, reason string) (*domain.Fill, error) {
	pos, ok := l.positions[symbol]
	if !ok {
		return nil, fmt.Errorf("sell %s on %s: %w", symbol, date, domain.ErrInsufficientPosition)
	}
	if shares > pos.Shares {
		return nil, fmt.Errorf("sell %s on %s: %d > %d held: %w",
			symbol, date, shares, pos.Shares, domain.ErrInsufficientPosition)
	}

	if shares < pos.Shares {
		shares = shares / l.lotSize * l.lotSize
		if shares <= 0 {
			return nil, fmt.Errorf("sell %s on %s: below one lot: %w", symbol, date, domain.ErrInsufficientPosition)
		}
	} else if pos.Shares%l.lotSize != 0 && pos.Status != domain.StatusOddLotPending {
		// full liquidation must divide exactly; anything else means the books
		// are inconsistent upstream
		return nil, fmt.Errorf("liquidate %s on %s: %d shares, lot %d: %w",
			symbol, date, pos.Shares, l.lotSize, domain.ErrOddLotLiquidation)
	}

	gross := float64(shares) * execPrice
	commission, stampTax, slippage, totalFees := l.fees.SellFees(gross)
	proceeds := gross - totalFees
	l.cash += proceeds

	// prorate the entry-side fees over the shares being sold
	buyFees := pos.EntryCost - pos.EntryPrice*float64(pos.Shares)
	if buyFees < 0 {
		buyFees = 0
	}
	frac := float64(shares) / float64(pos.Shares)
	perfCost := pos.EntryPerfPrice*float64(shares) + buyFees*frac
	perfProceeds := perfPrice*float64(shares) - totalFees
	pnl := perfProceeds - perfCost
	pct := 0.0
	if perfCost > 0 {
		pct = pnl / perfCost * 100
	}

	fill := domain.Fill{
		Date:           date,
		Symbol:         symbol,
		Action:         domain.ActionSell,
		Shares:         shares,
		Price:          execPrice,
		PerfPrice:      perfPrice,
		GrossAmount:    gross,
		Commission:     commission,
		StampTax:       stampTax,
		Slippage:       slippage,
		TotalCost:      totalFees,
		EntryPrice:     pos.EntryPrice,
		EntryPerfPrice: pos.EntryPerfPrice,
		RealizedPnL:    pnl,
		RealizedPct:    pct,
		Reason:         reason,
	}
	l.fills = append(l.fills, fill)

	if shares == pos.Shares {
		delete(l.positions, symbol)
	} else {
		pos.Shares -= shares
		pos.EntryCost -= (pos.EntryPrice*float64(shares) + buyFees*frac)
		if pos.Shares%l.lotSize != 0 {
			pos.Status = domain.StatusOddLotPending
		}
	}

	l.logger.Debug("sell %s: %d @ %.3f pnl %.2f (%s)", symbol, shares, execPrice, pnl, reason)
	return &fill, nil
}

// Liquidate sells the whole position.
func (l *Ledger) Liquidate(date, symbol string, execPrice, perfPrice float64, reason string) (*domain.Fill, error) {
	pos, ok := l.positions[symbol]
	if !ok {
		return nil, fmt.Errorf("liquidate %s on %s: %w", symbol, date, domain.ErrInsufficientPosition)
	}
	return l.Sell(date, symbol, pos.Shares, execPrice, perfPrice, reason)
}

// MarketValue marks all open positions with execution prices. Positions with
// no price for the date are marked at their entry execution price.
func (l *Ledger) MarketValue(priceAt PriceFunc) float64 {
	total := 0.0
	for _, pos := range l.positions {
		price, ok := priceAt(pos.Symbol)
		if !ok {
			price = pos.EntryPrice
		}
		total += float64(pos.Shares) * price
	}
	return total
}

// Snapshot produces the NAV record for one simulated day.
func (l *Ledger) Snapshot(date string, priceAt PriceFunc) domain.NAVRecord {
	mv := l.MarketValue(priceAt)
	total := l.cash + mv
	return domain.NAVRecord{
		Date:        date,
		Cash:        l.cash,
		MarketValue: mv,
		TotalValue:  total,
		NAV:         total / l.initialCapital,
	}
}

// Restore replaces cash and positions wholesale (paper-trading restart).
func (l *Ledger) Restore(cash float64, positions []domain.Position) {
	l.cash = cash
	l.positions = make(map[string]*domain.Position, len(positions))
	for i := range positions {
		p := positions[i]
		l.positions[p.Symbol] = &p
	}
}
