package domain

// AccountRepository persists the paper-trading account (cash + positions).
type AccountRepository interface {
	GetCash() (float64, error)
	SetCash(cash float64) error
	GetPositions() ([]Position, error)
	UpsertPosition(p *Position) error
	DeletePosition(symbol string) error
}

// PendingOrderRepository persists the deferred-order queue.
type PendingOrderRepository interface {
	GetAll() ([]PendingOrder, error)
	Upsert(o *PendingOrder) error
	Delete(symbol, action string) error
}

// StopLossRepository persists per-symbol stop-loss state.
type StopLossRepository interface {
	GetAll() ([]StopLossState, error)
	Upsert(s *StopLossState) error
	Delete(symbol string) error
}

// FillRepository is the append-only trade log.
type FillRepository interface {
	Save(f *Fill) error
	GetByDate(date string) ([]Fill, error)
	GetRecent(limit int) ([]Fill, error)
}

// NAVRepository is the append-only NAV series.
type NAVRepository interface {
	Save(r *NAVRecord) error
	GetAll() ([]NAVRecord, error)
}

// MarkRepository records per-date idempotency marks, keyed by date + phase.
type MarkRepository interface {
	Exists(date, phase string) (bool, error)
	Set(date, phase string) error
}
