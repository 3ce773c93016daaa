package marketdata

import (
	"sort"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

type priceKey struct {
	date   string
	symbol string
}

// statusFlags keeps the per-day trading status used by the gate.
type statusFlags struct {
	suspended bool
	limitUp   bool
	limitDown bool
}

// PriceIndex is the dual (date, symbol) lookup: an execution price for cash
// flow and a performance price for return accounting. A missing key is a miss,
// never a zero.
type PriceIndex struct {
	exec     map[priceKey]float64
	perf     map[priceKey]float64
	status   map[priceKey]statusFlags
	dates    []string
	degraded bool // no performance prices anywhere: perf falls back to exec
	logger   *utils.Logger
}

// NewPriceIndex builds the lookups from the raw price table.
func NewPriceIndex(records []domain.PriceRecord, logger *utils.Logger) *PriceIndex {
	idx := &PriceIndex{
		exec:   make(map[priceKey]float64, len(records)),
		perf:   make(map[priceKey]float64, len(records)),
		status: make(map[priceKey]statusFlags, len(records)),
		logger: logger,
	}

	dateSet := make(map[string]struct{})
	hasPerf := false
	for _, rec := range records {
		k := priceKey{date: rec.Date, symbol: rec.Symbol}
		idx.exec[k] = rec.Price
		if rec.PerfPrice != nil {
			idx.perf[k] = *rec.PerfPrice
			hasPerf = true
		}
		idx.status[k] = statusFlags{
			suspended: rec.Suspended,
			limitUp:   rec.LimitUp,
			limitDown: rec.LimitDown,
		}
		dateSet[rec.Date] = struct{}{}
	}

	idx.dates = make([]string, 0, len(dateSet))
	for d := range dateSet {
		idx.dates = append(idx.dates, d)
	}
	sort.Strings(idx.dates)

	if !hasPerf {
		idx.degraded = true
		logger.Warn("price index: no performance prices in dataset, falling back to execution prices")
	}
	return idx
}

// Price returns the execution price for symbol on date.
func (idx *PriceIndex) Price(symbol, date string) (float64, bool) {
	p, ok := idx.exec[priceKey{date: date, symbol: symbol}]
	return p, ok
}

// PerfPrice returns the performance price for symbol on date, falling back to
// the execution price when the performance leg is absent.
func (idx *PriceIndex) PerfPrice(symbol, date string) (float64, bool) {
	k := priceKey{date: date, symbol: symbol}
	if p, ok := idx.perf[k]; ok {
		return p, true
	}
	p, ok := idx.exec[k]
	return p, ok
}

// Degraded reports whether the whole dataset lacked performance prices.
func (idx *PriceIndex) Degraded() bool {
	return idx.degraded
}

// Dates returns the ordered list of trading dates present in the table.
func (idx *PriceIndex) Dates() []string {
	return idx.dates
}

// PerfReturns returns up to window daily performance-price returns for symbol,
// computed from dates strictly before asOf. Used by the risk-budget adjuster.
func (idx *PriceIndex) PerfReturns(symbol, asOf string, window int) []float64 {
	var prices []float64
	for _, d := range idx.dates {
		if d >= asOf {
			break
		}
		if p, ok := idx.PerfPrice(symbol, d); ok {
			prices = append(prices, p)
		}
	}
	if len(prices) > window+1 {
		prices = prices[len(prices)-window-1:]
	}
	if len(prices) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns
}
