package portfolio

import (
	"errors"
	"math"
	"testing"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

func testLogger() *utils.Logger {
	return utils.NewLogger("error")
}

func testFees() config.FeeConfig {
	return config.FeeConfig{
		CommissionRate: 0.002,
		StampTaxRate:   0.001,
		SlippageRate:   0.001,
	}
}

func noFees() config.FeeConfig {
	return config.FeeConfig{}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	l := NewLedger(1_000_000, 100, testFees(), testLogger())

	// buy 1000 shares at 10: gross 10000 + commission 20 + slippage 10
	fill, err := l.Buy("2024-01-02", "AAA", 10_000, 10.0, 10.0, "signal")
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if fill.Shares != 1000 {
		t.Fatalf("Buy() shares = %d, want 1000", fill.Shares)
	}
	approx(t, "Buy() total cost", fill.TotalCost, 10_030)
	approx(t, "cash after buy", l.Cash(), 1_000_000-10_030)

	// sell at 12: gross 12000 - commission 24 - stamp 12 - slippage 12
	sell, err := l.Liquidate("2024-01-09", "AAA", 12.0, 12.0, "holding_period")
	if err != nil {
		t.Fatalf("Liquidate() error = %v", err)
	}
	approx(t, "Liquidate() fees", sell.TotalCost, 48)
	approx(t, "Liquidate() pnl", sell.RealizedPnL, 1_922)
	approx(t, "Liquidate() pct", sell.RealizedPct, 1_922.0/10_030.0*100)
	approx(t, "cash after sell", l.Cash(), 1_000_000-10_030+11_952)
	if l.Holds("AAA") {
		t.Error("Holds() = true after full liquidation")
	}
}

func TestLedger_BuyLotFloor(t *testing.T) {
	l := NewLedger(1_000_000, 100, noFees(), testLogger())
	fill, err := l.Buy("2024-01-02", "AAA", 10_550, 10.0, 10.0, "signal")
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if fill.Shares != 1000 {
		t.Errorf("Buy() shares = %d, want lot-floored 1000", fill.Shares)
	}
}

func TestLedger_BuyShrinksForFees(t *testing.T) {
	// 10000 cash can price 1000 shares but not their fees; shrink by one lot
	l := NewLedger(10_000, 100, testFees(), testLogger())
	fill, err := l.Buy("2024-01-02", "AAA", 10_000, 10.0, 10.0, "signal")
	if err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if fill.Shares != 900 {
		t.Errorf("Buy() shares = %d, want 900 after fee shrink", fill.Shares)
	}
	if l.Cash() < 0 {
		t.Errorf("cash went negative: %v", l.Cash())
	}
}

func TestLedger_BuyInsufficientFunds(t *testing.T) {
	l := NewLedger(500, 100, noFees(), testLogger())
	_, err := l.Buy("2024-01-02", "AAA", 500, 10.0, 10.0, "signal")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("Buy() error = %v, want ErrInsufficientFunds", err)
	}
	if l.Cash() != 500 {
		t.Errorf("cash = %v after failed buy, want 500 unchanged", l.Cash())
	}
	if len(l.Fills()) != 0 {
		t.Error("failed buy produced a fill")
	}
}

func TestLedger_BuyAveragesBasis(t *testing.T) {
	l := NewLedger(1_000_000, 100, noFees(), testLogger())
	if _, err := l.Buy("2024-01-02", "AAA", 10_000, 10.0, 10.0, "signal"); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	if _, err := l.Buy("2024-01-03", "AAA", 12_000, 12.0, 12.0, "signal"); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}

	pos := l.Position("AAA")
	if pos == nil {
		t.Fatal("Position() = nil")
	}
	if pos.Shares != 2000 {
		t.Fatalf("Shares = %d, want 2000", pos.Shares)
	}
	approx(t, "averaged entry price", pos.EntryPrice, 11.0)
	if pos.EntryDate != "2024-01-02" {
		t.Errorf("EntryDate = %s, want the first buy's date", pos.EntryDate)
	}
}

func TestLedger_DualPriceLegs(t *testing.T) {
	l := NewLedger(1_000_000, 100, noFees(), testLogger())

	// execution leg flat at 10, performance leg moves 10 -> 15
	if _, err := l.Buy("2024-01-02", "AAA", 10_000, 10.0, 10.0, "signal"); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	sell, err := l.Liquidate("2024-01-09", "AAA", 10.0, 15.0, "holding_period")
	if err != nil {
		t.Fatalf("Liquidate() error = %v", err)
	}

	// cash settles on the execution leg: full round trip, no fees
	approx(t, "cash", l.Cash(), 1_000_000)
	// P&L realizes on the performance leg
	approx(t, "RealizedPnL", sell.RealizedPnL, 5_000)
	approx(t, "RealizedPct", sell.RealizedPct, 50)
}

func TestLedger_OddLotLiquidationFatal(t *testing.T) {
	l := NewLedger(1_000_000, 100, noFees(), testLogger())
	l.Restore(100_000, []domain.Position{{
		Symbol: "AAA", Shares: 1050, EntryPrice: 10, EntryPerfPrice: 10,
		EntryDate: "2024-01-02", EntryCost: 10_500, Status: domain.StatusHeld,
	}})

	_, err := l.Liquidate("2024-01-09", "AAA", 10.0, 10.0, "holding_period")
	if !errors.Is(err, domain.ErrOddLotLiquidation) {
		t.Errorf("Liquidate() error = %v, want ErrOddLotLiquidation", err)
	}
}

func TestLedger_OddLotPendingMayLiquidate(t *testing.T) {
	l := NewLedger(1_000_000, 100, noFees(), testLogger())
	l.Restore(100_000, []domain.Position{{
		Symbol: "AAA", Shares: 50, EntryPrice: 10, EntryPerfPrice: 10,
		EntryDate: "2024-01-02", EntryCost: 500, Status: domain.StatusOddLotPending,
	}})

	fill, err := l.Liquidate("2024-01-09", "AAA", 10.0, 10.0, "cleanup")
	if err != nil {
		t.Fatalf("Liquidate() error = %v", err)
	}
	if fill.Shares != 50 {
		t.Errorf("Liquidate() shares = %d, want 50", fill.Shares)
	}
}

func TestLedger_PartialSellMarksOddRemainder(t *testing.T) {
	l := NewLedger(1_000_000, 100, noFees(), testLogger())
	l.Restore(100_000, []domain.Position{{
		Symbol: "AAA", Shares: 1050, EntryPrice: 10, EntryPerfPrice: 10,
		EntryDate: "2024-01-02", EntryCost: 10_500, Status: domain.StatusHeld,
	}})

	if _, err := l.Sell("2024-01-09", "AAA", 1000, 10.0, 10.0, "trim"); err != nil {
		t.Fatalf("Sell() error = %v", err)
	}
	pos := l.Position("AAA")
	if pos == nil || pos.Shares != 50 {
		t.Fatalf("remainder = %+v, want 50 shares", pos)
	}
	if pos.Status != domain.StatusOddLotPending {
		t.Errorf("Status = %s, want %s", pos.Status, domain.StatusOddLotPending)
	}
}

func TestLedger_SellMoreThanHeld(t *testing.T) {
	l := NewLedger(1_000_000, 100, noFees(), testLogger())
	if _, err := l.Buy("2024-01-02", "AAA", 10_000, 10.0, 10.0, "signal"); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}
	_, err := l.Sell("2024-01-09", "AAA", 2000, 10.0, 10.0, "trim")
	if !errors.Is(err, domain.ErrInsufficientPosition) {
		t.Errorf("Sell() error = %v, want ErrInsufficientPosition", err)
	}
}

func TestLedger_Snapshot(t *testing.T) {
	l := NewLedger(100_000, 100, noFees(), testLogger())
	if _, err := l.Buy("2024-01-02", "AAA", 50_000, 10.0, 10.0, "signal"); err != nil {
		t.Fatalf("Buy() error = %v", err)
	}

	rec := l.Snapshot("2024-01-02", func(string) (float64, bool) { return 11.0, true })
	approx(t, "MarketValue", rec.MarketValue, 55_000)
	approx(t, "TotalValue", rec.TotalValue, 105_000)
	approx(t, "NAV", rec.NAV, 1.05)

	// a missing mark price falls back to the entry execution price
	rec = l.Snapshot("2024-01-03", func(string) (float64, bool) { return 0, false })
	approx(t, "NAV at entry mark", rec.NAV, 1.0)
}
