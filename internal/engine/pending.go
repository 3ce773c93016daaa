package engine

import (
	"sort"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/internal/marketdata"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

type pendingKey struct {
	symbol string
	action string
}

// PendingQueue holds orders deferred by the tradability gate. At most one
// entry per (symbol, action); re-insertion bumps the retry count and
// overwrites the block reason instead of duplicating.
type PendingQueue struct {
	cfg    config.PendingConfig
	orders map[pendingKey]*domain.PendingOrder

	succeeded int
	abandoned int

	logger *utils.Logger
}

func NewPendingQueue(cfg config.PendingConfig, logger *utils.Logger) *PendingQueue {
	return &PendingQueue{
		cfg:    cfg,
		orders: make(map[pendingKey]*domain.PendingOrder),
		logger: logger,
	}
}

// Block records a blocked order, or bumps the retry count of an existing one.
func (q *PendingQueue) Block(symbol, action, signalDate, blockedDate, reason string, targetCash float64) {
	k := pendingKey{symbol: symbol, action: action}
	if o, ok := q.orders[k]; ok {
		o.RetryCount++
		o.BlockReason = reason
		return
	}
	q.orders[k] = &domain.PendingOrder{
		Symbol:      symbol,
		Action:      action,
		TargetCash:  targetCash,
		SignalDate:  signalDate,
		BlockedDate: blockedDate,
		BlockReason: reason,
	}
}

// Due returns orders to retry on date, expiring entries past the retry-count
// or elapsed-day ceilings. Expired entries are dropped and counted as
// abandoned. Sells sort before buys so freed cash is available.
func (q *PendingQueue) Due(date string) []domain.PendingOrder {
	var due []domain.PendingOrder
	for k, o := range q.orders {
		expired := o.RetryCount > q.cfg.MaxRetryCount
		if !expired {
			days, err := marketdata.CalendarDaysBetween(o.BlockedDate, date)
			if err == nil && days > q.cfg.MaxRetryDays {
				expired = true
			}
		}
		if expired {
			q.logger.Warn("pending order abandoned: %s %s blocked since %s (%d retries, %s)",
				o.Action, o.Symbol, o.BlockedDate, o.RetryCount, o.BlockReason)
			delete(q.orders, k)
			q.abandoned++
			continue
		}
		due = append(due, *o)
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Action != due[j].Action {
			return due[i].Action == domain.ActionSell
		}
		return due[i].Symbol < due[j].Symbol
	})
	return due
}

// Succeed removes an entry after successful execution.
func (q *PendingQueue) Succeed(symbol, action string) {
	k := pendingKey{symbol: symbol, action: action}
	if _, ok := q.orders[k]; ok {
		delete(q.orders, k)
		q.succeeded++
	}
}

// Drop removes an entry without counting it either way (e.g. the position it
// was meant to sell no longer exists).
func (q *PendingQueue) Drop(symbol, action string) {
	delete(q.orders, pendingKey{symbol: symbol, action: action})
}

func (q *PendingQueue) Has(symbol, action string) bool {
	_, ok := q.orders[pendingKey{symbol: symbol, action: action}]
	return ok
}

func (q *PendingQueue) Len() int {
	return len(q.orders)
}

// Stats returns (succeeded, abandoned) counters.
func (q *PendingQueue) Stats() (int, int) {
	return q.succeeded, q.abandoned
}

// All snapshots the queue for persistence.
func (q *PendingQueue) All() []domain.PendingOrder {
	out := make([]domain.PendingOrder, 0, len(q.orders))
	for _, o := range q.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Restore loads persisted entries (paper-trading restart).
func (q *PendingQueue) Restore(orders []domain.PendingOrder) {
	for i := range orders {
		o := orders[i]
		q.orders[pendingKey{symbol: o.Symbol, action: o.Action}] = &o
	}
}
