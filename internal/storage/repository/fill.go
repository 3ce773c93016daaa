package repository

import (
	"database/sql"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// FillRepository is the append-only trade log.
type FillRepository struct {
	db *sql.DB
}

func NewFillRepository(db *sql.DB) *FillRepository {
	return &FillRepository{db: db}
}

// Save appends one fill.
func (r *FillRepository) Save(f *domain.Fill) error {
	query := `
		INSERT INTO fills (date, symbol, action, shares, price, perf_price, gross_amount,
			commission, stamp_tax, slippage, total_cost, entry_price, entry_perf_price,
			realized_pnl, realized_pct, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	return r.db.QueryRow(query,
		f.Date, f.Symbol, f.Action, f.Shares, f.Price, f.PerfPrice, f.GrossAmount,
		f.Commission, f.StampTax, f.Slippage, f.TotalCost, f.EntryPrice, f.EntryPerfPrice,
		f.RealizedPnL, f.RealizedPct, f.Reason,
	).Scan(&f.ID)
}

// GetByDate returns all fills executed on a date.
func (r *FillRepository) GetByDate(date string) ([]domain.Fill, error) {
	query := `
		SELECT id, date, symbol, action, shares, price, perf_price, gross_amount,
			commission, stamp_tax, slippage, total_cost, entry_price, entry_perf_price,
			realized_pnl, realized_pct, reason
		FROM fills
		WHERE date = $1
		ORDER BY id
	`
	rows, err := r.db.Query(query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFills(rows)
}

// GetRecent returns the latest fills.
func (r *FillRepository) GetRecent(limit int) ([]domain.Fill, error) {
	query := `
		SELECT id, date, symbol, action, shares, price, perf_price, gross_amount,
			commission, stamp_tax, slippage, total_cost, entry_price, entry_perf_price,
			realized_pnl, realized_pct, reason
		FROM fills
		ORDER BY id DESC
		LIMIT $1
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFills(rows)
}

func scanFills(rows *sql.Rows) ([]domain.Fill, error) {
	var fills []domain.Fill
	for rows.Next() {
		var f domain.Fill
		err := rows.Scan(
			&f.ID, &f.Date, &f.Symbol, &f.Action, &f.Shares, &f.Price, &f.PerfPrice,
			&f.GrossAmount, &f.Commission, &f.StampTax, &f.Slippage, &f.TotalCost,
			&f.EntryPrice, &f.EntryPerfPrice, &f.RealizedPnL, &f.RealizedPct, &f.Reason,
		)
		if err != nil {
			return nil, err
		}
		fills = append(fills, f)
	}
	return fills, rows.Err()
}
