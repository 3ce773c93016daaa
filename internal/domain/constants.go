package domain

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Position statuses
const (
	StatusHeld          = "HELD"
	StatusOddLotPending = "ODD_LOT_PENDING"
)

// Block reasons reported by the tradability gate
const (
	BlockSuspended = "suspended"
	BlockLimitUp   = "limit-up"
	BlockLimitDown = "limit-down"
)

// Stop-loss trigger kinds, in evaluation priority order
const (
	TriggerDrawdown     = "drawdown"
	TriggerTrailing     = "trailing"
	TriggerLimitDownRun = "consecutive-limit-down"
)

// Sell reasons recorded on fills
const (
	ReasonHoldingPeriod = "holding-period"
	ReasonStopLoss      = "stop-loss"
	ReasonPendingRetry  = "pending-retry"
)

// Paper-run idempotency phases
const (
	PhaseSignal  = "signal"
	PhaseExecute = "execute"
)

const DateLayout = "2006-01-02"
