package strategy

import (
	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
)

// DeltaStrategy 基于订单簿流动性失衡增量的阈值策略
// delta >  threshold → BUY
// delta < -threshold → SELL
// 其余情况 → HOLD
// 除固定阈值外不携带跨周期状态
type DeltaStrategy struct {
	threshold float64
	quantity  float64
	logger    *zap.Logger
}

func NewDeltaStrategy(threshold, quantity float64, logger *zap.Logger) *DeltaStrategy {
	logger.Info("Delta strategy initialized", zap.Float64("threshold", threshold))
	return &DeltaStrategy{
		threshold: threshold,
		quantity:  quantity,
		logger:    logger,
	}
}

func (s *DeltaStrategy) Name() string {
	return "delta"
}

// Evaluate 以中间价作为期望成交价
func (s *DeltaStrategy) Evaluate(tick Tick) Decision {
	if tick.Book == nil {
		return Hold()
	}

	switch {
	case tick.Delta > s.threshold:
		return Decision{Side: model.SideBuy, Price: tick.Book.MidPrice(), Quantity: s.quantity}
	case tick.Delta < -s.threshold:
		return Decision{Side: model.SideSell, Price: tick.Book.MidPrice(), Quantity: s.quantity}
	default:
		return Hold()
	}
}
