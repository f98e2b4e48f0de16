package strategy

import (
	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
	"orderbook-delta-bot/pkg/ta"
)

// MACrossStrategy 均线交叉策略
// 每个周期把中间价追加进历史；样本达到长窗口之前一律 HOLD (预热期)
// 短均线在长均线之上 → BUY (按最优卖价)，之下 → SELL (按最优买价)，相等 → HOLD
type MACrossStrategy struct {
	shortWindow int
	longWindow  int
	quantity    float64
	calc        *ta.Calculator
	logger      *zap.Logger
}

func NewMACrossStrategy(shortWindow, longWindow int, quantity float64, logger *zap.Logger) *MACrossStrategy {
	logger.Info("MA cross strategy initialized",
		zap.Int("short", shortWindow), zap.Int("long", longWindow))
	return &MACrossStrategy{
		shortWindow: shortWindow,
		longWindow:  longWindow,
		quantity:    quantity,
		calc:        ta.NewCalculator(),
		logger:      logger,
	}
}

func (s *MACrossStrategy) Name() string {
	return "ma_cross"
}

// Evaluate 任一侧最优档位缺失或为零时不产生决策，也不记入历史
func (s *MACrossStrategy) Evaluate(tick Tick) Decision {
	book := tick.Book
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return Hold()
	}
	bestBid := book.Bids[0].Price
	bestAsk := book.Asks[0].Price
	if bestBid == 0 || bestAsk == 0 {
		return Hold()
	}

	s.calc.Append((bestBid + bestAsk) / 2)

	if s.calc.Len() < s.longWindow {
		return Hold()
	}

	maShort := s.calc.SMA(s.shortWindow)
	maLong := s.calc.SMA(s.longWindow)

	switch {
	case maShort > maLong:
		return Decision{Side: model.SideBuy, Price: bestAsk, Quantity: s.quantity}
	case maShort < maLong:
		return Decision{Side: model.SideSell, Price: bestBid, Quantity: s.quantity}
	default:
		return Hold()
	}
}
