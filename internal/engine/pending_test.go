package engine

import (
	"testing"

	"github.com/deltree-y/LazyBull-sub000/internal/config"
	"github.com/deltree-y/LazyBull-sub000/internal/domain"
	"github.com/deltree-y/LazyBull-sub000/pkg/utils"
)

func testLogger() *utils.Logger {
	return utils.NewLogger("error")
}

func testPendingConfig() config.PendingConfig {
	return config.PendingConfig{MaxRetryCount: 2, MaxRetryDays: 5}
}

func TestPendingQueue_BlockDeduplicates(t *testing.T) {
	q := NewPendingQueue(testPendingConfig(), testLogger())
	q.Block("AAA", domain.ActionBuy, "2024-01-02", "2024-01-03", domain.BlockLimitUp, 10_000)
	q.Block("AAA", domain.ActionBuy, "2024-01-02", "2024-01-04", domain.BlockSuspended, 10_000)

	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after re-blocking the same order", q.Len())
	}
	o := q.All()[0]
	if o.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1 after one re-block", o.RetryCount)
	}
	if o.BlockReason != domain.BlockSuspended {
		t.Errorf("BlockReason = %s, want the latest reason", o.BlockReason)
	}
	if o.BlockedDate != "2024-01-03" {
		t.Errorf("BlockedDate = %s, want the first block date kept", o.BlockedDate)
	}
}

func TestPendingQueue_SellsBeforeBuys(t *testing.T) {
	q := NewPendingQueue(testPendingConfig(), testLogger())
	q.Block("AAA", domain.ActionBuy, "2024-01-02", "2024-01-03", domain.BlockLimitUp, 10_000)
	q.Block("BBB", domain.ActionSell, "2024-01-02", "2024-01-03", domain.BlockLimitDown, 0)
	q.Block("CCC", domain.ActionBuy, "2024-01-02", "2024-01-03", domain.BlockSuspended, 10_000)

	due := q.Due("2024-01-04")
	if len(due) != 3 {
		t.Fatalf("Due() = %d orders, want 3", len(due))
	}
	if due[0].Action != domain.ActionSell {
		t.Errorf("Due()[0].Action = %s, sells must come first", due[0].Action)
	}
	if due[1].Symbol != "AAA" || due[2].Symbol != "CCC" {
		t.Errorf("Due() buys not sorted by symbol: %s, %s", due[1].Symbol, due[2].Symbol)
	}
}

func TestPendingQueue_ExpiresByRetryCount(t *testing.T) {
	q := NewPendingQueue(testPendingConfig(), testLogger())
	q.Block("AAA", domain.ActionBuy, "2024-01-02", "2024-01-03", domain.BlockLimitUp, 10_000)
	for i := 0; i < 3; i++ { // retry count climbs past the ceiling of 2
		q.Block("AAA", domain.ActionBuy, "2024-01-02", "2024-01-03", domain.BlockLimitUp, 10_000)
	}

	if due := q.Due("2024-01-04"); len(due) != 0 {
		t.Errorf("Due() = %d orders, want 0 after retry-count expiry", len(due))
	}
	if _, abandoned := q.Stats(); abandoned != 1 {
		t.Errorf("Stats() abandoned = %d, want 1", abandoned)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after expiry", q.Len())
	}
}

func TestPendingQueue_ExpiresByCalendarDays(t *testing.T) {
	q := NewPendingQueue(testPendingConfig(), testLogger())
	q.Block("AAA", domain.ActionBuy, "2024-01-02", "2024-01-03", domain.BlockLimitUp, 10_000)

	// 5 elapsed calendar days is still within the ceiling
	if due := q.Due("2024-01-08"); len(due) != 1 {
		t.Fatalf("Due() = %d orders at the ceiling, want 1", len(due))
	}
	if due := q.Due("2024-01-09"); len(due) != 0 {
		t.Errorf("Due() = %d orders past the ceiling, want 0", len(due))
	}
	if _, abandoned := q.Stats(); abandoned != 1 {
		t.Errorf("Stats() abandoned = %d, want 1", abandoned)
	}
}

func TestPendingQueue_SucceedAndDrop(t *testing.T) {
	q := NewPendingQueue(testPendingConfig(), testLogger())
	q.Block("AAA", domain.ActionBuy, "2024-01-02", "2024-01-03", domain.BlockLimitUp, 10_000)
	q.Block("BBB", domain.ActionSell, "2024-01-02", "2024-01-03", domain.BlockLimitDown, 0)

	q.Succeed("AAA", domain.ActionBuy)
	q.Drop("BBB", domain.ActionSell)

	succeeded, abandoned := q.Stats()
	if succeeded != 1 || abandoned != 0 {
		t.Errorf("Stats() = %d, %d, want 1, 0", succeeded, abandoned)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestPendingQueue_Restore(t *testing.T) {
	q := NewPendingQueue(testPendingConfig(), testLogger())
	q.Restore([]domain.PendingOrder{
		{Symbol: "AAA", Action: domain.ActionBuy, SignalDate: "2024-01-02", BlockedDate: "2024-01-03", TargetCash: 10_000},
	})
	if !q.Has("AAA", domain.ActionBuy) {
		t.Error("Has() = false after Restore()")
	}
}
