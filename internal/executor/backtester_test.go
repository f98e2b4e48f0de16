package executor

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuyThenSellScenario(t *testing.T) {
	b := NewBacktester(10000, zap.NewNop())
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if !b.ExecuteTrade(model.SideBuy, 3000, 0.1, ts) {
		t.Fatal("BUY should be accepted")
	}
	if !almostEqual(b.Balance(), 9700.0) || !almostEqual(b.Position(), 0.1) {
		t.Errorf("after BUY: balance=%v position=%v, want 9700.0/0.1", b.Balance(), b.Position())
	}

	if !b.ExecuteTrade(model.SideSell, 3100, 0.1, ts.Add(time.Minute)) {
		t.Fatal("SELL should be accepted")
	}
	if !almostEqual(b.Balance(), 10010.0) || !almostEqual(b.Position(), 0.0) {
		t.Errorf("after SELL: balance=%v position=%v, want 10010.0/0.0", b.Balance(), b.Position())
	}

	perf := b.PerformanceReport(3100)
	if !almostEqual(perf.PnL, 10.0) {
		t.Errorf("PnL = %v, want 10.0", perf.PnL)
	}
	if !almostEqual(perf.PnLPct, 0.1) {
		t.Errorf("PnLPct = %v, want 0.1", perf.PnLPct)
	}
	if perf.TotalTrades != 2 {
		t.Errorf("TotalTrades = %d, want 2", perf.TotalTrades)
	}
}

func TestBuyRejectedOnInsufficientBalance(t *testing.T) {
	b := NewBacktester(10000, zap.NewNop())

	if b.ExecuteTrade(model.SideBuy, 3000, 5, time.Time{}) { // 需要 15000
		t.Fatal("BUY should be rejected")
	}
	if b.Balance() != 10000 || b.Position() != 0 {
		t.Errorf("rejected BUY must not change state: balance=%v position=%v", b.Balance(), b.Position())
	}
	if len(b.TradeHistory()) != 0 {
		t.Error("rejected BUY must not append a trade record")
	}
}

func TestSellRejectedOnInsufficientPosition(t *testing.T) {
	b := NewBacktester(10000, zap.NewNop())

	if b.ExecuteTrade(model.SideSell, 3000, 0.1, time.Time{}) {
		t.Fatal("SELL without position should be rejected")
	}
	if b.Balance() != 10000 || b.Position() != 0 {
		t.Errorf("rejected SELL must not change state: balance=%v position=%v", b.Balance(), b.Position())
	}
}

func TestInvalidSideRejected(t *testing.T) {
	b := NewBacktester(10000, zap.NewNop())

	if b.ExecuteTrade(model.SideHold, 3000, 0.1, time.Time{}) {
		t.Fatal("HOLD is not an executable side")
	}
	if b.ExecuteTrade(model.Side("SHORT"), 3000, 0.1, time.Time{}) {
		t.Fatal("unknown side should be rejected")
	}
	if len(b.TradeHistory()) != 0 {
		t.Error("invalid sides must not produce trade records")
	}
}

func TestPerformanceReportIdempotent(t *testing.T) {
	b := NewBacktester(10000, zap.NewNop())
	b.ExecuteTrade(model.SideBuy, 3000, 0.1, time.Time{})

	first := b.PerformanceReport(3100)
	second := b.PerformanceReport(3100)
	if first != second {
		t.Errorf("reports differ: %+v vs %+v", first, second)
	}
}

func TestTimeframeSentinelWithoutTrades(t *testing.T) {
	b := NewBacktester(10000, zap.NewNop())

	perf := b.PerformanceReport(3000)
	if perf.Timeframe != "N/A" {
		t.Errorf("Timeframe = %q, want N/A", perf.Timeframe)
	}
	if perf.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", perf.TotalTrades)
	}
}

func TestZeroInitialBalancePct(t *testing.T) {
	b := NewBacktester(0, zap.NewNop())

	perf := b.PerformanceReport(3000)
	if perf.PnLPct != 0 {
		t.Errorf("PnLPct = %v, want 0 when initial balance is 0", perf.PnLPct)
	}
}

func TestTradeRecordFields(t *testing.T) {
	b := NewBacktester(10000, zap.NewNop())
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.ExecuteTrade(model.SideBuy, 3000, 0.1, ts)

	records := b.TradeHistory()
	if len(records) != 1 {
		t.Fatalf("history length = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.ID == "" {
		t.Error("record ID should be set")
	}
	if rec.Timestamp != "2025-06-01T12:00:00Z" {
		t.Errorf("Timestamp = %q, want second-precision ISO-8601", rec.Timestamp)
	}
	if rec.Side != model.SideBuy || rec.Price != 3000 || rec.Quantity != 0.1 {
		t.Errorf("record = %+v", rec)
	}
}
