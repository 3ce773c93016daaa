package repository

import (
	"database/sql"
	"time"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// PendingOrderRepository persists the deferred-order queue.
type PendingOrderRepository struct {
	db *sql.DB
}

func NewPendingOrderRepository(db *sql.DB) *PendingOrderRepository {
	return &PendingOrderRepository{db: db}
}

// GetAll returns every queued order.
func (r *PendingOrderRepository) GetAll() ([]domain.PendingOrder, error) {
	query := `
		SELECT symbol, action, target_cash, signal_date, blocked_date, retry_count, block_reason, updated_at
		FROM paper_pending_orders
		ORDER BY symbol, action
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.PendingOrder
	for rows.Next() {
		var o domain.PendingOrder
		err := rows.Scan(
			&o.Symbol,
			&o.Action,
			&o.TargetCash,
			&o.SignalDate,
			&o.BlockedDate,
			&o.RetryCount,
			&o.BlockReason,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// Upsert writes one order keyed by (symbol, action).
func (r *PendingOrderRepository) Upsert(o *domain.PendingOrder) error {
	query := `
		INSERT INTO paper_pending_orders (symbol, action, target_cash, signal_date, blocked_date, retry_count, block_reason, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, action) DO UPDATE SET
			target_cash = EXCLUDED.target_cash,
			signal_date = EXCLUDED.signal_date,
			blocked_date = EXCLUDED.blocked_date,
			retry_count = EXCLUDED.retry_count,
			block_reason = EXCLUDED.block_reason,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(query,
		o.Symbol, o.Action, o.TargetCash, o.SignalDate,
		o.BlockedDate, o.RetryCount, o.BlockReason, time.Now())
	return err
}

// Delete removes one order.
func (r *PendingOrderRepository) Delete(symbol, action string) error {
	_, err := r.db.Exec(
		`DELETE FROM paper_pending_orders WHERE symbol = $1 AND action = $2`,
		symbol, action)
	return err
}
