package repository

import (
	"database/sql"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// NAVRepository is the append-only NAV series, one row per simulated day.
type NAVRepository struct {
	db *sql.DB
}

func NewNAVRepository(db *sql.DB) *NAVRepository {
	return &NAVRepository{db: db}
}

// Save writes the day's snapshot; re-running a day overwrites its row so the
// series stays one-per-date.
func (r *NAVRepository) Save(rec *domain.NAVRecord) error {
	query := `
		INSERT INTO nav_history (date, cash, market_value, total_value, nav)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date) DO UPDATE SET
			cash = EXCLUDED.cash,
			market_value = EXCLUDED.market_value,
			total_value = EXCLUDED.total_value,
			nav = EXCLUDED.nav
	`
	_, err := r.db.Exec(query, rec.Date, rec.Cash, rec.MarketValue, rec.TotalValue, rec.NAV)
	return err
}

// GetAll returns the series in date order.
func (r *NAVRepository) GetAll() ([]domain.NAVRecord, error) {
	query := `
		SELECT date, cash, market_value, total_value, nav
		FROM nav_history
		ORDER BY date
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.NAVRecord
	for rows.Next() {
		var rec domain.NAVRecord
		if err := rows.Scan(&rec.Date, &rec.Cash, &rec.MarketValue, &rec.TotalValue, &rec.NAV); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
