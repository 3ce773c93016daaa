package engine

import "github.com/deltree-y/LazyBull-sub000/internal/domain"

// stagedEntry tracks one rebalance from signal date through T+1 entry and the
// completion window that follows it.
type stagedEntry struct {
	signalDate string
	entryDate  string
	ranked     []domain.TargetWeight // full ranked candidate list
	targets    []domain.TargetWeight // risk-adjusted top-N
	attempted  map[string]bool
	filled     int
	entered    bool
	windowLeft int     // trading days of backfill remaining
	slotCash   float64 // per-slot budget fixed at entry time
}

func (st *stagedEntry) shortfall() int {
	return len(st.targets) - st.filled
}

// completeShortfall pulls replacement candidates for entry slots that stayed
// unfilled on the entry date. It walks the full ranked list in order,
// skipping symbols already held or already attempted, for as many trading
// days as the completion window allows.
func (l *Loop) completeShortfall(date string) error {
	st := l.staged
	if st == nil || !st.entered || st.entryDate == date {
		return nil
	}
	if st.shortfall() <= 0 {
		return nil
	}
	if st.windowLeft <= 0 {
		l.warnf("completion window elapsed for %s rebalance, %d slot(s) abandoned",
			st.signalDate, st.shortfall())
		l.staged = nil
		return nil
	}
	st.windowLeft--

	for _, cand := range st.ranked {
		if st.shortfall() <= 0 {
			break
		}
		if st.attempted[cand.Symbol] || l.ledger.Holds(cand.Symbol) {
			continue
		}
		if ok, _ := l.gate.CanTrade(cand.Symbol, date, domain.ActionBuy); !ok {
			// untradable candidates stay eligible for later window days
			continue
		}

		st.attempted[cand.Symbol] = true
		out, err := l.tryBuy(date, cand.Symbol, st.slotCash, st.signalDate, "completion:"+cand.Reason)
		if err != nil {
			return err
		}
		if out.Status == OutcomeFilled {
			st.filled++
			l.dropSupersededBuy(st)
			l.logger.Info("completion: backfilled %s on %s for %s rebalance",
				cand.Symbol, date, st.signalDate)
		}
	}
	return nil
}

// dropSupersededBuy removes the queued retry of one original target whose
// slot a backfill just took over; otherwise the retry could fill later and
// push the book past top-N.
func (l *Loop) dropSupersededBuy(st *stagedEntry) {
	for _, t := range st.targets {
		if l.ledger.Holds(t.Symbol) {
			continue
		}
		if l.pending.Has(t.Symbol, domain.ActionBuy) {
			l.pending.Drop(t.Symbol, domain.ActionBuy)
			l.logger.Info("completion: dropped queued buy for %s, slot backfilled", t.Symbol)
			return
		}
	}
}
