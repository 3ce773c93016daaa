package engine

import (
	"fmt"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// SeedNAVs preloads the persisted NAV history so the equity-curve controller
// sees the full series on a paper-trading restart.
func (l *Loop) SeedNAVs(navs []domain.NAVRecord) {
	l.navs = navs
}

// PaperStep runs the daily sequence for one externally driven invocation.
// Rebalance staging is not persisted between invocations; it is
// reconstructed from the calendar and the signal collaborator, which must be
// deterministic for past dates.
func (l *Loop) PaperStep(date string) error {
	idx, ok := l.calendar.Index(date)
	if !ok {
		return fmt.Errorf("paper step: %s is not a trading date: %w", date, domain.ErrNotFound)
	}
	l.reconstructStaging(idx)
	return l.Step(date, idx)
}

// reconstructStaging rebuilds the active stagedEntry: the latest rebalance
// day strictly before today whose entry day is today or whose completion
// window still covers today.
func (l *Loop) reconstructStaging(idx int) {
	for r := idx - 1; r >= 0; r-- {
		entryIdx := r + 1
		if idx-entryIdx > l.cfg.Completion.WindowDays {
			return
		}
		if !l.isRebalanceDay(r) {
			continue
		}

		l.stageRebalance(l.calendar.At(r), r)
		if l.incoming == nil {
			return
		}
		l.staged = l.incoming
		l.incoming = nil

		st := l.staged
		if entryIdx == idx {
			return
		}

		// the entry day was processed by an earlier invocation; only the rest
		// of the completion window remains. Filled slots are recovered from
		// the positions entered on or after the entry date.
		entryDate := l.calendar.At(entryIdx)
		st.entered = true
		st.windowLeft = l.cfg.Completion.WindowDays - (idx - entryIdx - 1)
		for _, t := range st.targets {
			st.attempted[t.Symbol] = true
			if l.ledger.Holds(t.Symbol) {
				st.filled++
			}
		}
		for _, c := range st.ranked {
			if st.attempted[c.Symbol] {
				continue
			}
			if p := l.ledger.Position(c.Symbol); p != nil && p.EntryDate >= entryDate {
				st.attempted[c.Symbol] = true
				st.filled++
			}
		}
		st.slotCash = (l.ledger.Cash() + l.ledger.MarketValue(l.priceFunc(entryDate))) /
			float64(len(st.targets))
		return
	}
}
