package repository

import (
	"database/sql"
	"time"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// StopLossRepository persists per-symbol stop-loss monitor state.
type StopLossRepository struct {
	db *sql.DB
}

func NewStopLossRepository(db *sql.DB) *StopLossRepository {
	return &StopLossRepository{db: db}
}

func (r *StopLossRepository) GetAll() ([]domain.StopLossState, error) {
	query := `
		SELECT symbol, high_water, limit_down_run, triggered, updated_at
		FROM paper_stoploss
		ORDER BY symbol
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []domain.StopLossState
	for rows.Next() {
		var s domain.StopLossState
		err := rows.Scan(&s.Symbol, &s.HighWater, &s.LimitDownRun, &s.Triggered, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}

	return states, rows.Err()
}

func (r *StopLossRepository) Upsert(s *domain.StopLossState) error {
	query := `
		INSERT INTO paper_stoploss (symbol, high_water, limit_down_run, triggered, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol) DO UPDATE SET
			high_water = EXCLUDED.high_water,
			limit_down_run = EXCLUDED.limit_down_run,
			triggered = EXCLUDED.triggered,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(query, s.Symbol, s.HighWater, s.LimitDownRun, s.Triggered, time.Now())
	return err
}

func (r *StopLossRepository) Delete(symbol string) error {
	_, err := r.db.Exec(`DELETE FROM paper_stoploss WHERE symbol = $1`, symbol)
	return err
}
