package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// AccountRepository persists the paper account: one cash row plus positions.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetCash returns the persisted cash balance.
func (r *AccountRepository) GetCash() (float64, error) {
	var cash float64
	err := r.db.QueryRow(`SELECT cash FROM paper_account WHERE id = 1`).Scan(&cash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	return cash, err
}

// SetCash writes the cash balance (insert-or-update, single row).
func (r *AccountRepository) SetCash(cash float64) error {
	query := `
		INSERT INTO paper_account (id, cash, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET cash = EXCLUDED.cash, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(query, cash, time.Now())
	return err
}

// GetPositions returns all open positions.
func (r *AccountRepository) GetPositions() ([]domain.Position, error) {
	query := `
		SELECT symbol, shares, entry_price, entry_perf_price, entry_date, entry_cost, status, note, updated_at
		FROM paper_positions
		ORDER BY symbol
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		err := rows.Scan(
			&p.Symbol,
			&p.Shares,
			&p.EntryPrice,
			&p.EntryPerfPrice,
			&p.EntryDate,
			&p.EntryCost,
			&p.Status,
			&p.Note,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	return positions, rows.Err()
}

// UpsertPosition writes one position keyed by symbol.
func (r *AccountRepository) UpsertPosition(p *domain.Position) error {
	query := `
		INSERT INTO paper_positions (symbol, shares, entry_price, entry_perf_price, entry_date, entry_cost, status, note, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol) DO UPDATE SET
			shares = EXCLUDED.shares,
			entry_price = EXCLUDED.entry_price,
			entry_perf_price = EXCLUDED.entry_perf_price,
			entry_date = EXCLUDED.entry_date,
			entry_cost = EXCLUDED.entry_cost,
			status = EXCLUDED.status,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(query,
		p.Symbol, p.Shares, p.EntryPrice, p.EntryPerfPrice,
		p.EntryDate, p.EntryCost, p.Status, p.Note, time.Now())
	return err
}

// DeletePosition removes a closed position.
func (r *AccountRepository) DeletePosition(symbol string) error {
	_, err := r.db.Exec(`DELETE FROM paper_positions WHERE symbol = $1`, symbol)
	return err
}
