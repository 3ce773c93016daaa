package engine

import (
	"math"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// Result is the output of a completed (or aborted) run: the trade ledger,
// the NAV series and summary statistics. Backtests that hit warnings still
// complete with partial results.
type Result struct {
	NAVs     []domain.NAVRecord
	Fills    []domain.Fill
	Warnings []string

	TotalReturn      float64
	AnnualizedReturn float64
	MaxDrawdown      float64
	WinRate          float64
	TradeCount       int
	SellCount        int
	PendingSucceeded int
	PendingAbandoned int
}

func (l *Loop) result() *Result {
	r := &Result{
		NAVs:     l.navs,
		Fills:    l.ledger.Fills(),
		Warnings: l.warnings,
	}
	r.PendingSucceeded, r.PendingAbandoned = l.pending.Stats()
	r.TradeCount = len(r.Fills)

	wins := 0
	for _, f := range r.Fills {
		if f.Action != domain.ActionSell {
			continue
		}
		r.SellCount++
		if f.RealizedPnL > 0 {
			wins++
		}
	}
	if r.SellCount > 0 {
		r.WinRate = float64(wins) / float64(r.SellCount)
	}

	if n := len(r.NAVs); n > 0 {
		last := r.NAVs[n-1].NAV
		r.TotalReturn = last - 1
		if n > 1 && last > 0 {
			years := float64(n) / 252.0
			r.AnnualizedReturn = math.Pow(last, 1/years) - 1
		}

		peak := r.NAVs[0].NAV
		for _, rec := range r.NAVs {
			if rec.NAV > peak {
				peak = rec.NAV
			}
			if peak > 0 {
				dd := 1 - rec.NAV/peak
				if dd > r.MaxDrawdown {
					r.MaxDrawdown = dd
				}
			}
		}
	}
	return r
}
