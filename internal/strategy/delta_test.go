package strategy

import (
	"testing"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
)

func testBook() *model.OrderBook {
	return &model.OrderBook{
		Symbol: "ETHUSDT",
		Bids:   []model.Level{{Price: 3000.0, Quantity: 2.0}},
		Asks:   []model.Level{{Price: 3000.5, Quantity: 1.0}},
	}
}

func TestDeltaThresholds(t *testing.T) {
	s := NewDeltaStrategy(0.1, 0.1, zap.NewNop())

	cases := []struct {
		delta float64
		want  model.Side
	}{
		{0.2, model.SideBuy},
		{-0.2, model.SideSell},
		{0.05, model.SideHold},
		{-0.05, model.SideHold},
		{0.1, model.SideHold},  // 严格大于才触发
		{-0.1, model.SideHold}, // 严格小于才触发
	}
	for _, tc := range cases {
		got := s.Evaluate(Tick{Book: testBook(), Delta: tc.delta})
		if got.Side != tc.want {
			t.Errorf("Evaluate(delta=%v).Side = %s, want %s", tc.delta, got.Side, tc.want)
		}
	}
}

func TestDeltaDecisionUsesMidPriceAndQuantity(t *testing.T) {
	s := NewDeltaStrategy(0.1, 0.25, zap.NewNop())

	got := s.Evaluate(Tick{Book: testBook(), Delta: 0.5})
	if got.Side != model.SideBuy {
		t.Fatalf("Side = %s, want BUY", got.Side)
	}
	if got.Price != 3000.25 {
		t.Errorf("Price = %v, want mid-price 3000.25", got.Price)
	}
	if got.Quantity != 0.25 {
		t.Errorf("Quantity = %v, want configured 0.25", got.Quantity)
	}
}

func TestDeltaHoldsOnNilBook(t *testing.T) {
	s := NewDeltaStrategy(0.1, 0.1, zap.NewNop())
	if got := s.Evaluate(Tick{Book: nil, Delta: 99}); got.Side != model.SideHold {
		t.Errorf("Side = %s, want HOLD for nil book", got.Side)
	}
}

func TestRegistryResolvesKnownStrategies(t *testing.T) {
	cfg := testStrategyConfig()

	for _, name := range []string{"delta", "ma_cross"} {
		s, err := New(name, cfg, zap.NewNop())
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Name() = %s, want %s", s.Name(), name)
		}
	}

	if _, err := New("martingale", cfg, zap.NewNop()); err == nil {
		t.Error("unknown strategy name should fail")
	}
}
