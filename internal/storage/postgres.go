package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/internal/storage/repository"
	_ "github.com/lib/pq"
)

// PostgresStorage is the facade over the per-entity repositories used by the
// paper-trading runner. Each daily invocation reads and writes state
// wholesale through it.
type PostgresStorage struct {
	db       *sql.DB
	account  *repository.AccountRepository
	pending  *repository.PendingOrderRepository
	stoploss *repository.StopLossRepository
	fills    *repository.FillRepository
	navs     *repository.NAVRepository
	marks    *repository.MarkRepository
}

func NewPostgresStorage(host string, port int, user, password, dbname, sslmode string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*PostgresStorage, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	storage := &PostgresStorage{
		db:       db,
		account:  repository.NewAccountRepository(db),
		pending:  repository.NewPendingOrderRepository(db),
		stoploss: repository.NewStopLossRepository(db),
		fills:    repository.NewFillRepository(db),
		navs:     repository.NewNAVRepository(db),
		marks:    repository.NewMarkRepository(db),
	}

	if err := storage.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	migrations := []string{
		// single-row account: cash only, positions live in their own table
		`CREATE TABLE IF NOT EXISTS paper_account (
			id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			cash DECIMAL(20, 4) NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS paper_positions (
			symbol VARCHAR(20) PRIMARY KEY,
			shares BIGINT NOT NULL,
			entry_price DECIMAL(20, 4) NOT NULL,
			entry_perf_price DECIMAL(20, 4) NOT NULL,
			entry_date VARCHAR(10) NOT NULL,
			entry_cost DECIMAL(20, 4) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'HELD',
			note TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS paper_pending_orders (
			symbol VARCHAR(20) NOT NULL,
			action VARCHAR(10) NOT NULL,
			target_cash DECIMAL(20, 4) NOT NULL DEFAULT 0,
			signal_date VARCHAR(10) NOT NULL,
			blocked_date VARCHAR(10) NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			block_reason VARCHAR(50) NOT NULL DEFAULT '',
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (symbol, action)
		)`,
		`CREATE TABLE IF NOT EXISTS paper_stoploss (
			symbol VARCHAR(20) PRIMARY KEY,
			high_water DECIMAL(20, 4) NOT NULL,
			limit_down_run INTEGER NOT NULL DEFAULT 0,
			triggered BOOLEAN NOT NULL DEFAULT false,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS fills (
			id SERIAL PRIMARY KEY,
			date VARCHAR(10) NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			action VARCHAR(10) NOT NULL,
			shares BIGINT NOT NULL,
			price DECIMAL(20, 4) NOT NULL,
			perf_price DECIMAL(20, 4) NOT NULL,
			gross_amount DECIMAL(20, 4) NOT NULL,
			commission DECIMAL(20, 4) NOT NULL,
			stamp_tax DECIMAL(20, 4) NOT NULL DEFAULT 0,
			slippage DECIMAL(20, 4) NOT NULL DEFAULT 0,
			total_cost DECIMAL(20, 4) NOT NULL,
			entry_price DECIMAL(20, 4) NOT NULL DEFAULT 0,
			entry_perf_price DECIMAL(20, 4) NOT NULL DEFAULT 0,
			realized_pnl DECIMAL(20, 4) NOT NULL DEFAULT 0,
			realized_pct DECIMAL(10, 4) NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS nav_history (
			date VARCHAR(10) PRIMARY KEY,
			cash DECIMAL(20, 4) NOT NULL,
			market_value DECIMAL(20, 4) NOT NULL,
			total_value DECIMAL(20, 4) NOT NULL,
			nav DECIMAL(12, 6) NOT NULL
		)`,
		// per-date idempotency marks, one row per workflow phase
		`CREATE TABLE IF NOT EXISTS paper_marks (
			date VARCHAR(10) NOT NULL,
			phase VARCHAR(20) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (date, phase)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_date ON fills(date)`,
		`CREATE INDEX IF NOT EXISTS idx_fills_symbol ON fills(symbol)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// ==================== ACCOUNT ====================

func (s *PostgresStorage) GetCash() (float64, error) {
	return s.account.GetCash()
}

func (s *PostgresStorage) SetCash(cash float64) error {
	return s.account.SetCash(cash)
}

func (s *PostgresStorage) GetPositions() ([]domain.Position, error) {
	return s.account.GetPositions()
}

func (s *PostgresStorage) UpsertPosition(p *domain.Position) error {
	return s.account.UpsertPosition(p)
}

func (s *PostgresStorage) DeletePosition(symbol string) error {
	return s.account.DeletePosition(symbol)
}

// ==================== PENDING ORDERS ====================

func (s *PostgresStorage) GetPendingOrders() ([]domain.PendingOrder, error) {
	return s.pending.GetAll()
}

func (s *PostgresStorage) UpsertPendingOrder(o *domain.PendingOrder) error {
	return s.pending.Upsert(o)
}

func (s *PostgresStorage) DeletePendingOrder(symbol, action string) error {
	return s.pending.Delete(symbol, action)
}

// ==================== STOP LOSS ====================

func (s *PostgresStorage) GetStopLossStates() ([]domain.StopLossState, error) {
	return s.stoploss.GetAll()
}

func (s *PostgresStorage) UpsertStopLossState(st *domain.StopLossState) error {
	return s.stoploss.Upsert(st)
}

func (s *PostgresStorage) DeleteStopLossState(symbol string) error {
	return s.stoploss.Delete(symbol)
}

// ==================== FILLS ====================

func (s *PostgresStorage) SaveFill(f *domain.Fill) error {
	return s.fills.Save(f)
}

func (s *PostgresStorage) GetFillsByDate(date string) ([]domain.Fill, error) {
	return s.fills.GetByDate(date)
}

func (s *PostgresStorage) GetRecentFills(limit int) ([]domain.Fill, error) {
	return s.fills.GetRecent(limit)
}

// ==================== NAV ====================

func (s *PostgresStorage) SaveNAV(r *domain.NAVRecord) error {
	return s.navs.Save(r)
}

func (s *PostgresStorage) GetNAVHistory() ([]domain.NAVRecord, error) {
	return s.navs.GetAll()
}

// ==================== IDEMPOTENCY MARKS ====================

func (s *PostgresStorage) MarkExists(date, phase string) (bool, error) {
	return s.marks.Exists(date, phase)
}

func (s *PostgresStorage) SetMark(date, phase string) error {
	return s.marks.Set(date, phase)
}

// Close closes the database connection.
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad hoc queries.
func (s *PostgresStorage) DB() *sql.DB {
	return s.db
}
