package domain

import "time"

// Dates are trading dates formatted "2006-01-02". All share counts are in
// shares, normally lot-size multiples.

// Position is an open holding. One weighted-average cost basis per symbol:
// sequential buys into the same symbol average into a single entry.
type Position struct {
	Symbol          string    `db:"symbol" json:"symbol"`
	Shares          int64     `db:"shares" json:"shares"`
	EntryPrice      float64   `db:"entry_price" json:"entry_price"`           // execution leg
	EntryPerfPrice  float64   `db:"entry_perf_price" json:"entry_perf_price"` // performance leg
	EntryDate       string    `db:"entry_date" json:"entry_date"`
	EntryCost       float64   `db:"entry_cost" json:"entry_cost"` // price*shares + fees
	Status          string    `db:"status" json:"status"`         // StatusHeld | StatusOddLotPending
	Note            string    `db:"note" json:"note"`
	UpdatedAt       time.Time `db:"updated_at" json:"-"`
}

// PendingOrder is an order deferred because the symbol was untradable.
type PendingOrder struct {
	Symbol       string    `db:"symbol" json:"symbol"`
	Action       string    `db:"action" json:"action"` // ActionBuy | ActionSell
	TargetCash   float64   `db:"target_cash" json:"target_cash"` // buys only
	SignalDate   string    `db:"signal_date" json:"signal_date"`
	BlockedDate  string    `db:"blocked_date" json:"blocked_date"` // first block
	RetryCount   int       `db:"retry_count" json:"retry_count"`
	BlockReason  string    `db:"block_reason" json:"block_reason"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// Order is a single-step execution request; it never outlives the day that
// produced it.
type Order struct {
	Symbol        string
	Action        string
	Shares        int64
	RefPrice      float64
	TargetWeight  float64
	CurrentWeight float64
	Reason        string
}

// Fill is one executed trade, append-only.
type Fill struct {
	ID             int64   `db:"id" json:"-"`
	Date           string  `db:"date" json:"date"`
	Symbol         string  `db:"symbol" json:"symbol"`
	Action         string  `db:"action" json:"action"`
	Shares         int64   `db:"shares" json:"shares"`
	Price          float64 `db:"price" json:"price"` // execution leg
	GrossAmount    float64 `db:"gross_amount" json:"gross_amount"`
	Commission     float64 `db:"commission" json:"commission"`
	StampTax       float64 `db:"stamp_tax" json:"stamp_tax"` // sells only
	Slippage       float64 `db:"slippage" json:"slippage"`
	TotalCost      float64 `db:"total_cost" json:"total_cost"`
	EntryPrice     float64 `db:"entry_price" json:"entry_price"`           // sells: matched execution entry
	EntryPerfPrice float64 `db:"entry_perf_price" json:"entry_perf_price"` // sells: matched performance entry
	PerfPrice      float64 `db:"perf_price" json:"perf_price"`             // performance leg of this fill
	RealizedPnL    float64 `db:"realized_pnl" json:"realized_pnl"`         // sells only
	RealizedPct    float64 `db:"realized_pct" json:"realized_pct"`
	Reason         string  `db:"reason" json:"reason"`
}

// TargetWeight is one entry of a rebalance target set.
type TargetWeight struct {
	Symbol string
	Weight float64 // [0,1]
	Score  float64
	Reason string
}

// NAVRecord is one row of the net-asset-value series.
type NAVRecord struct {
	Date        string  `db:"date" json:"date"`
	Cash        float64 `db:"cash" json:"cash"`
	MarketValue float64 `db:"market_value" json:"market_value"`
	TotalValue  float64 `db:"total_value" json:"total_value"`
	NAV         float64 `db:"nav" json:"nav"` // total / initial capital
}

// StopLossState tracks the per-symbol stop-loss machine.
type StopLossState struct {
	Symbol        string    `db:"symbol" json:"symbol"`
	HighWater     float64   `db:"high_water" json:"high_water"` // execution price
	LimitDownRun  int       `db:"limit_down_run" json:"limit_down_run"`
	Triggered     bool      `db:"triggered" json:"triggered"` // set once; no retrigger while exit pending
	UpdatedAt     time.Time `db:"updated_at" json:"-"`
}

// EquityCurveState is the stateful part of the exposure controller.
type EquityCurveState struct {
	Recovering      bool    `json:"recovering"`
	LastExposure    float64 `json:"last_exposure"`
	LastDrawdown    float64 `json:"last_drawdown"`
	RecoveryPeriods int     `json:"recovery_periods"`
}

// PriceRecord is one row of the input price table.
type PriceRecord struct {
	Symbol    string
	Date      string
	Price     float64  // execution price
	PerfPrice *float64 // performance price, optional
	Suspended bool
	LimitUp   bool
	LimitDown bool
}
