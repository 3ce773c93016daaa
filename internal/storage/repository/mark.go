package repository

import "database/sql"

// MarkRepository records per-date idempotency marks keyed by (date, phase).
// Re-invoking the paper runner for an already-marked date and phase is a
// no-op.
type MarkRepository struct {
	db *sql.DB
}

func NewMarkRepository(db *sql.DB) *MarkRepository {
	return &MarkRepository{db: db}
}

func (r *MarkRepository) Exists(date, phase string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM paper_marks WHERE date = $1 AND phase = $2)`,
		date, phase,
	).Scan(&exists)
	return exists, err
}

func (r *MarkRepository) Set(date, phase string) error {
	_, err := r.db.Exec(
		`INSERT INTO paper_marks (date, phase) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		date, phase)
	return err
}
