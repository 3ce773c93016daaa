package paper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/internal/engine"
	"github.com/deltree-y/LazyBull-sub000/internal/marketdata"
	"github.com/deltree-y/LazyBull-sub000/internal/notify"
	"github.com/deltree-y/LazyBull-sub000/internal/portfolio"
	"github.com/deltree-y/LazyBull-sub000/internal/risk"
	"github.com/deltree-y/LazyBull-sub000/internal/signal"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

// Store is the durable state surface the runner needs. The Postgres facade
// satisfies it.
type Store interface {
	GetCash() (float64, error)
	SetCash(cash float64) error
	GetPositions() ([]domain.Position, error)
	UpsertPosition(p *domain.Position) error
	DeletePosition(symbol string) error

	GetPendingOrders() ([]domain.PendingOrder, error)
	UpsertPendingOrder(o *domain.PendingOrder) error
	DeletePendingOrder(symbol, action string) error

	GetStopLossStates() ([]domain.StopLossState, error)
	UpsertStopLossState(s *domain.StopLossState) error
	DeleteStopLossState(symbol string) error

	SaveFill(f *domain.Fill) error
	SaveNAV(r *domain.NAVRecord) error
	GetNAVHistory() ([]domain.NAVRecord, error)

	MarkExists(date, phase string) (bool, error)
	SetMark(date, phase string) error
}

// Runner drives the same daily state machine as the backtest loop, once per
// external invocation, with every mutation persisted before returning.
// Re-invocation for an already-processed date is a no-op.
type Runner struct {
	cfg       *config.StrategyConfig
	store     Store
	index     *marketdata.PriceIndex
	calendar  *marketdata.Calendar
	generator signal.Generator
	notifier  notify.Notifier
	logger    *utils.Logger
}

func NewRunner(cfg *config.StrategyConfig, store Store, index *marketdata.PriceIndex,
	calendar *marketdata.Calendar, generator signal.Generator,
	notifier notify.Notifier, logger *utils.Logger) (*Runner, error) {
	if cfg == nil || store == nil || index == nil || calendar == nil || generator == nil {
		return nil, fmt.Errorf("%w: runner requires config, store, index, calendar and generator", domain.ErrInvalidConfig)
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Runner{
		cfg:       cfg,
		store:     store,
		index:     index,
		calendar:  calendar,
		generator: generator,
		notifier:  notifier,
		logger:    logger,
	}, nil
}

// RunDay processes one trading date end to end.
func (r *Runner) RunDay(date string) error {
	done, err := r.store.MarkExists(date, domain.PhaseExecute)
	if err != nil {
		return fmt.Errorf("failed to check idempotency mark: %w", err)
	}
	if done {
		r.logger.Info("paper: %s already processed, nothing to do", date)
		return nil
	}

	loop, ledger, pending, stops, prev, err := r.buildLoop()
	if err != nil {
		return err
	}

	if err := loop.PaperStep(date); err != nil {
		return err
	}

	if err := r.persist(date, loop, ledger, pending, stops, prev); err != nil {
		return err
	}

	r.notifySummary(date, loop, ledger)
	return nil
}

// restored holds the pre-step snapshot used to diff deletions on persist.
type restored struct {
	positions []domain.Position
	pendings  []domain.PendingOrder
	stops     []domain.StopLossState
}

func (r *Runner) buildLoop() (*engine.Loop, *portfolio.Ledger, *engine.PendingQueue, *risk.StopLossMonitor, *restored, error) {
	ledger := portfolio.NewLedger(r.cfg.InitialCapital, r.cfg.LotSize, r.cfg.Fees, r.logger)

	cash, err := r.store.GetCash()
	if errors.Is(err, domain.ErrNotFound) {
		cash = r.cfg.InitialCapital
		r.logger.Info("paper: no persisted account, starting with %.2f", cash)
	} else if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load cash: %w", err)
	}

	positions, err := r.store.GetPositions()
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load positions: %w", err)
	}
	ledger.Restore(cash, positions)

	pending := engine.NewPendingQueue(r.cfg.Pending, r.logger)
	pendings, err := r.store.GetPendingOrders()
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load pending orders: %w", err)
	}
	pending.Restore(pendings)

	stops := risk.NewStopLossMonitor(r.cfg.StopLoss, r.logger)
	stopStates, err := r.store.GetStopLossStates()
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load stop-loss states: %w", err)
	}
	stops.Restore(stopStates)

	navs, err := r.store.GetNAVHistory()
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("failed to load NAV history: %w", err)
	}

	gate := marketdata.NewTradabilityGate(r.index, r.logger)
	loop, err := engine.New(engine.Deps{
		Config:    r.cfg,
		Index:     r.index,
		Calendar:  r.calendar,
		Gate:      gate,
		Generator: r.generator,
		Budget:    risk.NewBudgetAdjuster(r.cfg.RiskBudget, r.index, r.logger),
		Stops:     stops,
		Exposure:  risk.NewEquityCurveController(r.cfg.EquityCurve, r.logger),
		Ledger:    ledger,
		Pending:   pending,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	loop.SeedNAVs(navs)

	prev := &restored{positions: positions, pendings: pendings, stops: stopStates}
	return loop, ledger, pending, stops, prev, nil
}

// persist writes every mutation durably, then sets the idempotency marks.
// Fills are guarded by the signal-phase mark so a crash between phases never
// duplicates rows.
func (r *Runner) persist(date string, loop *engine.Loop, ledger *portfolio.Ledger,
	pending *engine.PendingQueue, stops *risk.StopLossMonitor, prev *restored) error {

	signalDone, err := r.store.MarkExists(date, domain.PhaseSignal)
	if err != nil {
		return fmt.Errorf("failed to check signal mark: %w", err)
	}
	if !signalDone {
		for i := range ledger.Fills() {
			f := ledger.Fills()[i]
			if err := r.store.SaveFill(&f); err != nil {
				return fmt.Errorf("failed to save fill: %w", err)
			}
		}
		if err := r.store.SetMark(date, domain.PhaseSignal); err != nil {
			return fmt.Errorf("failed to set signal mark: %w", err)
		}
	}

	if err := r.store.SetCash(ledger.Cash()); err != nil {
		return fmt.Errorf("failed to save cash: %w", err)
	}
	if err := syncPositions(r.store, prev.positions, ledger.Positions()); err != nil {
		return err
	}
	if err := syncPending(r.store, prev.pendings, pending.All()); err != nil {
		return err
	}
	if err := syncStops(r.store, prev.stops, stops.States()); err != nil {
		return err
	}

	navs := loop.NAVs()
	if len(navs) > 0 {
		last := navs[len(navs)-1]
		if err := r.store.SaveNAV(&last); err != nil {
			return fmt.Errorf("failed to save NAV: %w", err)
		}
	}

	if err := r.store.SetMark(date, domain.PhaseExecute); err != nil {
		return fmt.Errorf("failed to set execute mark: %w", err)
	}
	return nil
}

func syncPositions(store Store, before, after []domain.Position) error {
	current := make(map[string]bool, len(after))
	for i := range after {
		p := after[i]
		current[p.Symbol] = true
		if err := store.UpsertPosition(&p); err != nil {
			return fmt.Errorf("failed to save position %s: %w", p.Symbol, err)
		}
	}
	for _, p := range before {
		if !current[p.Symbol] {
			if err := store.DeletePosition(p.Symbol); err != nil {
				return fmt.Errorf("failed to delete position %s: %w", p.Symbol, err)
			}
		}
	}
	return nil
}

func syncPending(store Store, before, after []domain.PendingOrder) error {
	current := make(map[string]bool, len(after))
	for i := range after {
		o := after[i]
		current[o.Symbol+"|"+o.Action] = true
		if err := store.UpsertPendingOrder(&o); err != nil {
			return fmt.Errorf("failed to save pending order %s %s: %w", o.Action, o.Symbol, err)
		}
	}
	for _, o := range before {
		if !current[o.Symbol+"|"+o.Action] {
			if err := store.DeletePendingOrder(o.Symbol, o.Action); err != nil {
				return fmt.Errorf("failed to delete pending order %s %s: %w", o.Action, o.Symbol, err)
			}
		}
	}
	return nil
}

func syncStops(store Store, before, after []domain.StopLossState) error {
	current := make(map[string]bool, len(after))
	for i := range after {
		s := after[i]
		current[s.Symbol] = true
		if err := store.UpsertStopLossState(&s); err != nil {
			return fmt.Errorf("failed to save stop-loss state %s: %w", s.Symbol, err)
		}
	}
	for _, s := range before {
		if !current[s.Symbol] {
			if err := store.DeleteStopLossState(s.Symbol); err != nil {
				return fmt.Errorf("failed to delete stop-loss state %s: %w", s.Symbol, err)
			}
		}
	}
	return nil
}

func (r *Runner) notifySummary(date string, loop *engine.Loop, ledger *portfolio.Ledger) {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Paper run %s\n", date)

	fills := ledger.Fills()
	if len(fills) == 0 {
		b.WriteString("No trades.\n")
	}
	for _, f := range fills {
		if f.Action == domain.ActionSell {
			fmt.Fprintf(&b, "%s %s %d @ %.3f | P&L %.2f (%.2f%%)\n",
				f.Action, f.Symbol, f.Shares, f.Price, f.RealizedPnL, f.RealizedPct)
		} else {
			fmt.Fprintf(&b, "%s %s %d @ %.3f\n", f.Action, f.Symbol, f.Shares, f.Price)
		}
	}

	navs := loop.NAVs()
	if len(navs) > 0 {
		last := navs[len(navs)-1]
		fmt.Fprintf(&b, "NAV %.4f | cash %.2f | positions %d",
			last.NAV, last.Cash, len(ledger.Positions()))
	}
	if warnings := loop.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d warning(s)", len(warnings))
	}

	if err := r.notifier.SendText(b.String()); err != nil {
		r.logger.Warn("failed to send paper summary: %v", err)
	}
}
