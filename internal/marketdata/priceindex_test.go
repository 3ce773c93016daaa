package marketdata

import (
	"math"
	"testing"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

func testLogger() *utils.Logger {
	return utils.NewLogger("error")
}

func pf(v float64) *float64 { return &v }

func TestPriceIndex_Price(t *testing.T) {
	idx := NewPriceIndex([]domain.PriceRecord{
		{Symbol: "AAA", Date: "2024-01-02", Price: 10.5},
		{Symbol: "BBB", Date: "2024-01-02", Price: 20.0},
	}, testLogger())

	tests := []struct {
		name   string
		symbol string
		date   string
		want   float64
		wantOK bool
	}{
		{"present", "AAA", "2024-01-02", 10.5, true},
		{"other symbol", "BBB", "2024-01-02", 20.0, true},
		{"missing date", "AAA", "2024-01-03", 0, false},
		{"missing symbol", "CCC", "2024-01-02", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Price(tt.symbol, tt.date)
			if ok != tt.wantOK {
				t.Errorf("Price() ok = %v, want %v", ok, tt.wantOK)
				return
			}
			if ok && got != tt.want {
				t.Errorf("Price() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriceIndex_PerfPriceFallback(t *testing.T) {
	idx := NewPriceIndex([]domain.PriceRecord{
		{Symbol: "AAA", Date: "2024-01-02", Price: 10.0, PerfPrice: pf(12.0)},
		{Symbol: "BBB", Date: "2024-01-02", Price: 20.0},
	}, testLogger())

	if got, ok := idx.PerfPrice("AAA", "2024-01-02"); !ok || got != 12.0 {
		t.Errorf("PerfPrice() = %v, %v, want 12.0, true", got, ok)
	}
	// missing performance leg falls back to the execution price
	if got, ok := idx.PerfPrice("BBB", "2024-01-02"); !ok || got != 20.0 {
		t.Errorf("PerfPrice() fallback = %v, %v, want 20.0, true", got, ok)
	}
	if _, ok := idx.PerfPrice("BBB", "2024-01-03"); ok {
		t.Error("PerfPrice() should miss when neither leg exists")
	}
	if idx.Degraded() {
		t.Error("Degraded() = true with performance prices present")
	}
}

func TestPriceIndex_Degraded(t *testing.T) {
	idx := NewPriceIndex([]domain.PriceRecord{
		{Symbol: "AAA", Date: "2024-01-02", Price: 10.0},
	}, testLogger())
	if !idx.Degraded() {
		t.Error("Degraded() = false for a dataset without performance prices")
	}
}

func TestPriceIndex_PerfReturns(t *testing.T) {
	recs := []domain.PriceRecord{
		{Symbol: "AAA", Date: "2024-01-01", Price: 100, PerfPrice: pf(100)},
		{Symbol: "AAA", Date: "2024-01-02", Price: 110, PerfPrice: pf(110)},
		{Symbol: "AAA", Date: "2024-01-03", Price: 99, PerfPrice: pf(99)},
		{Symbol: "AAA", Date: "2024-01-04", Price: 120, PerfPrice: pf(120)},
	}
	idx := NewPriceIndex(recs, testLogger())

	// returns strictly before asOf: the 2024-01-04 price must not leak in
	got := idx.PerfReturns("AAA", "2024-01-04", 10)
	want := []float64{0.10, -0.10}
	if len(got) != len(want) {
		t.Fatalf("PerfReturns() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("PerfReturns()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// window trims to the most recent returns
	got = idx.PerfReturns("AAA", "2024-01-04", 1)
	if len(got) != 1 || math.Abs(got[0]+0.10) > 1e-9 {
		t.Errorf("PerfReturns(window=1) = %v, want [-0.10]", got)
	}

	if got := idx.PerfReturns("AAA", "2024-01-02", 10); got != nil {
		t.Errorf("PerfReturns() with one prior price = %v, want nil", got)
	}
}
