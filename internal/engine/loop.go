package engine

import (
	"errors"
	"fmt"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/internal/marketdata"
	"github.com/deltree-y/LazyBull-sub000/internal/portfolio"
	"github.com/deltree-y/LazyBull-sub000/internal/risk"
	"github.com/deltree-y/LazyBull-sub000/internal/signal"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

// Outcome statuses for a single execution attempt. Blocked and skipped
// conditions are expected states, not errors.
const (
	OutcomeFilled  = "filled"
	OutcomeBlocked = "blocked"
	OutcomeSkipped = "skipped"
)

// Outcome is the result of one order attempt within a step.
type Outcome struct {
	Status string
	Reason string
	Fill   *domain.Fill
}

// Loop drives the deterministic per-day sequence over an ordered trading
// calendar: pending retries, stop-loss checks, rebalance signals, completion
// backfill, holding-period sells, T+1 buys, NAV snapshot. Strictly
// sequential; every mutation of the ledger, queue and overlays happens here.
type Loop struct {
	cfg       *config.StrategyConfig
	index     *marketdata.PriceIndex
	calendar  *marketdata.Calendar
	gate      *marketdata.TradabilityGate
	generator signal.Generator
	budget    *risk.BudgetAdjuster
	stops     *risk.StopLossMonitor
	exposure  *risk.EquityCurveController
	ledger    *portfolio.Ledger
	pending   *PendingQueue

	universe []string
	staged   *stagedEntry // active rebalance: entering today or in its completion window
	incoming *stagedEntry // staged this step, promoted after the entry phase

	navs     []domain.NAVRecord
	warnings []string

	logger *utils.Logger
}

// Deps bundles the loop's collaborators; New validates the required ones.
type Deps struct {
	Config    *config.StrategyConfig
	Index     *marketdata.PriceIndex
	Calendar  *marketdata.Calendar
	Gate      *marketdata.TradabilityGate
	Generator signal.Generator
	Budget    *risk.BudgetAdjuster
	Stops     *risk.StopLossMonitor
	Exposure  *risk.EquityCurveController
	Ledger    *portfolio.Ledger
	Pending   *PendingQueue
	Universe  []string
	Logger    *utils.Logger
}

func New(deps Deps) (*Loop, error) {
	if deps.Config == nil || deps.Index == nil || deps.Calendar == nil || deps.Generator == nil {
		return nil, fmt.Errorf("%w: loop requires config, index, calendar and generator", domain.ErrInvalidConfig)
	}
	if deps.Ledger == nil || deps.Gate == nil || deps.Pending == nil {
		return nil, fmt.Errorf("%w: loop requires ledger, gate and pending queue", domain.ErrInvalidConfig)
	}
	return &Loop{
		cfg:       deps.Config,
		index:     deps.Index,
		calendar:  deps.Calendar,
		gate:      deps.Gate,
		generator: deps.Generator,
		budget:    deps.Budget,
		stops:     deps.Stops,
		exposure:  deps.Exposure,
		ledger:    deps.Ledger,
		pending:   deps.Pending,
		universe:  deps.Universe,
		logger:    deps.Logger,
	}, nil
}

// Run walks every calendar date in order. A fatal error (odd-lot violation)
// aborts with the partial result; everything else is absorbed into warnings.
func (l *Loop) Run() (*Result, error) {
	for i := 0; i < l.calendar.Len(); i++ {
		if err := l.Step(l.calendar.At(i), i); err != nil {
			return l.result(), err
		}
	}
	return l.result(), nil
}

// Step processes one trading day.
func (l *Loop) Step(date string, dayIndex int) error {
	// 1. retry deferred orders
	if err := l.processPending(date); err != nil {
		return err
	}

	// 2. stop-loss checks, forced exits bypass the holding-period clock
	if err := l.checkStopLosses(date); err != nil {
		return err
	}

	// 3. rebalance: collect signals, risk-adjust, stage T+1 entry
	if l.isRebalanceDay(dayIndex) {
		l.stageRebalance(date, dayIndex)
	}

	// 4. backfill a prior entry's shortfall while its window is open
	if err := l.completeShortfall(date); err != nil {
		return err
	}

	// 5. holding-period exits, always before same-day buys
	if err := l.sellExpired(date); err != nil {
		return err
	}

	// 6. T+1 entries staged by the previous rebalance
	if err := l.executeEntry(date); err != nil {
		return err
	}

	// a rebalance staged today becomes active only after today's entry ran,
	// so a same-day entry from the prior rebalance is never lost
	if l.incoming != nil {
		l.staged = l.incoming
		l.incoming = nil
	}

	// 7. NAV snapshot at execution prices
	l.navs = append(l.navs, l.ledger.Snapshot(date, l.priceFunc(date)))
	return nil
}

func (l *Loop) isRebalanceDay(dayIndex int) bool {
	return dayIndex%l.cfg.RebalanceEvery == 0
}

func (l *Loop) priceFunc(date string) portfolio.PriceFunc {
	return func(symbol string) (float64, bool) {
		return l.index.Price(symbol, date)
	}
}

// processPending retries queue entries due today. Still-blocked orders are
// re-inserted (bumping the retry count); stale sells are dropped.
func (l *Loop) processPending(date string) error {
	for _, o := range l.pending.Due(date) {
		switch o.Action {
		case domain.ActionSell:
			if !l.ledger.Holds(o.Symbol) {
				l.pending.Drop(o.Symbol, o.Action)
				continue
			}
			out, err := l.trySell(date, o.Symbol, o.SignalDate, domain.ReasonPendingRetry)
			if err != nil {
				return err
			}
			if out.Status == OutcomeFilled {
				l.pending.Succeed(o.Symbol, o.Action)
				if l.stops != nil {
					l.stops.Clear(o.Symbol)
				}
			}
		case domain.ActionBuy:
			if l.ledger.Holds(o.Symbol) {
				l.pending.Drop(o.Symbol, o.Action)
				continue
			}
			out, err := l.tryBuy(date, o.Symbol, o.TargetCash, o.SignalDate, domain.ReasonPendingRetry)
			if err != nil {
				return err
			}
			switch out.Status {
			case OutcomeFilled:
				l.pending.Succeed(o.Symbol, o.Action)
				l.noteStagedFill(o.Symbol)
			case OutcomeSkipped:
				// unaffordable or unpriced today; keep for a later retry
			}
		}
	}
	return nil
}

// checkStopLosses updates the monitor for every held position and executes
// forced exits.
func (l *Loop) checkStopLosses(date string) error {
	if l.stops == nil {
		return nil
	}
	for _, pos := range l.ledger.Positions() {
		price, ok := l.index.Price(pos.Symbol, date)
		if !ok {
			continue
		}
		trigger, fired := l.stops.Update(pos.Symbol, price, pos.EntryPrice, l.gate.IsLimitDown(pos.Symbol, date))
		if !fired {
			continue
		}
		out, err := l.trySell(date, pos.Symbol, date, domain.ReasonStopLoss+":"+trigger)
		if err != nil {
			return err
		}
		if out.Status == OutcomeFilled {
			l.stops.Clear(pos.Symbol)
		}
	}
	return nil
}

// stageRebalance asks the signal collaborator for ranked candidates and
// stages the risk-adjusted top-N for entry on the next trading day. A signal
// failure skips the date; one bad day must not abort the run.
func (l *Loop) stageRebalance(date string, dayIndex int) {
	ranked, err := l.generator.GenerateRanked(date, l.universe)
	if err != nil {
		l.warnf("signal generation failed on %s: %v", date, err)
		return
	}
	if len(ranked) == 0 {
		l.warnf("signal generation returned no candidates on %s", date)
		return
	}
	if dayIndex+1 >= l.calendar.Len() {
		return
	}

	targets := signal.TopN(ranked, l.cfg.TopN)
	if l.budget != nil {
		targets = l.budget.Adjust(date, targets)
	}

	l.incoming = &stagedEntry{
		signalDate: date,
		entryDate:  l.calendar.At(dayIndex + 1),
		ranked:     ranked,
		targets:    targets,
		attempted:  make(map[string]bool),
		windowLeft: l.cfg.Completion.WindowDays,
	}
}

// executeEntry runs the T+1 buys staged by the previous rebalance, after
// applying the account-level exposure multiplier.
func (l *Loop) executeEntry(date string) error {
	st := l.staged
	if st == nil || st.entryDate != date || st.entered {
		return nil
	}
	st.entered = true

	mult := 1.0
	if l.exposure != nil {
		mult = l.exposure.Evaluate(l.navValues())
	}
	budget := (l.ledger.Cash() + l.ledger.MarketValue(l.priceFunc(date))) * mult
	st.slotCash = budget / float64(len(st.targets))

	for _, target := range st.targets {
		st.attempted[target.Symbol] = true
		if l.ledger.Holds(target.Symbol) {
			st.filled++
			continue
		}
		out, err := l.tryBuy(date, target.Symbol, budget*target.Weight, st.signalDate, target.Reason)
		if err != nil {
			return err
		}
		if out.Status == OutcomeFilled {
			st.filled++
		}
	}

	if st.filled < len(st.targets) {
		l.logger.Info("entry %s: %d/%d filled, completion window %d days",
			date, st.filled, len(st.targets), st.windowLeft)
	}
	return nil
}

// sellExpired liquidates positions whose holding period has elapsed.
func (l *Loop) sellExpired(date string) error {
	for _, pos := range l.ledger.Positions() {
		held, ok := l.calendar.TradingDaysBetween(pos.EntryDate, date)
		if !ok || held < l.cfg.HoldingPeriod {
			continue
		}
		out, err := l.trySell(date, pos.Symbol, date, domain.ReasonHoldingPeriod)
		if err != nil {
			return err
		}
		if out.Status == OutcomeFilled && l.stops != nil {
			l.stops.Clear(pos.Symbol)
		}
	}
	return nil
}

// tryBuy attempts one buy through the tradability gate and the ledger.
// Blocked buys join the pending queue; missing prices and unaffordable sizes
// are skips.
func (l *Loop) tryBuy(date, symbol string, targetCash float64, signalDate, reason string) (Outcome, error) {
	if ok, blockReason := l.gate.CanTrade(symbol, date, domain.ActionBuy); !ok {
		l.pending.Block(symbol, domain.ActionBuy, signalDate, date, blockReason, targetCash)
		return Outcome{Status: OutcomeBlocked, Reason: blockReason}, nil
	}

	price, ok := l.index.Price(symbol, date)
	if !ok {
		l.warnf("no execution price for %s on %s, buy skipped", symbol, date)
		return Outcome{Status: OutcomeSkipped, Reason: "missing price"}, nil
	}
	perfPrice, ok := l.index.PerfPrice(symbol, date)
	if !ok {
		perfPrice = price
		l.warnf("no performance price for %s on %s, using execution price", symbol, date)
	}

	isNew := !l.ledger.Holds(symbol)
	fill, err := l.ledger.Buy(date, symbol, targetCash, price, perfPrice, reason)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return Outcome{Status: OutcomeSkipped, Reason: "insufficient funds"}, nil
		}
		return Outcome{}, err
	}
	if isNew && l.stops != nil {
		l.stops.Track(symbol, fill.Price)
	}
	return Outcome{Status: OutcomeFilled, Fill: fill}, nil
}

// trySell attempts a full liquidation through the gate and the ledger.
// Blocked sells join the pending queue; the odd-lot violation is fatal and
// propagates.
func (l *Loop) trySell(date, symbol, signalDate, reason string) (Outcome, error) {
	if ok, blockReason := l.gate.CanTrade(symbol, date, domain.ActionSell); !ok {
		l.pending.Block(symbol, domain.ActionSell, signalDate, date, blockReason, 0)
		return Outcome{Status: OutcomeBlocked, Reason: blockReason}, nil
	}

	price, ok := l.index.Price(symbol, date)
	if !ok {
		l.warnf("no execution price for %s on %s, sell skipped", symbol, date)
		return Outcome{Status: OutcomeSkipped, Reason: "missing price"}, nil
	}
	perfPrice, ok := l.index.PerfPrice(symbol, date)
	if !ok {
		perfPrice = price
	}

	fill, err := l.ledger.Liquidate(date, symbol, price, perfPrice, reason)
	if err != nil {
		if errors.Is(err, domain.ErrOddLotLiquidation) {
			return Outcome{}, err
		}
		if errors.Is(err, domain.ErrInsufficientPosition) {
			l.warnf("sell rejected for %s on %s: %v", symbol, date, err)
			return Outcome{Status: OutcomeSkipped, Reason: "insufficient position"}, nil
		}
		return Outcome{}, err
	}
	return Outcome{Status: OutcomeFilled, Fill: fill}, nil
}

// noteStagedFill credits a late pending fill against the active rebalance,
// so the completion engine does not backfill a slot that just filled.
func (l *Loop) noteStagedFill(symbol string) {
	st := l.staged
	if st == nil || !st.entered || st.shortfall() <= 0 {
		return
	}
	for _, t := range st.targets {
		if t.Symbol == symbol {
			st.filled++
			return
		}
	}
}

func (l *Loop) navValues() []float64 {
	out := make([]float64, len(l.navs))
	for i, r := range l.navs {
		out[i] = r.NAV
	}
	return out
}

func (l *Loop) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.warnings = append(l.warnings, msg)
	l.logger.Warn("%s", msg)
}

// NAVs returns the snapshots taken so far.
func (l *Loop) NAVs() []domain.NAVRecord {
	return l.navs
}

// Warnings returns the accumulated warning summary.
func (l *Loop) Warnings() []string {
	return l.warnings
}
