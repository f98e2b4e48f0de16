package strategy

import (
	"fmt"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
	"orderbook-delta-bot/internal/service"
)

// Tick 是策略评估的输入：最新快照和流动性失衡增量
type Tick struct {
	Book  *model.OrderBook
	Delta float64
}

// Decision 是策略输出的交易指令
// Side 为 HOLD 时本周期不做任何操作
type Decision struct {
	Side     model.Side
	Price    float64
	Quantity float64
}

func (d Decision) String() string {
	return fmt.Sprintf("DECISION [%s] %.6f @ %.2f", d.Side, d.Quantity, d.Price)
}

// Hold 是"本周期不操作"的决策
func Hold() Decision {
	return Decision{Side: model.SideHold}
}

// Strategy 是所有策略的统一能力接口
type Strategy interface {
	Name() string
	Evaluate(tick Tick) Decision
}

// New 按名称解析策略，候选集合是封闭的
func New(name string, cfg *service.StrategyConfig, logger *zap.Logger) (Strategy, error) {
	switch name {
	case "delta":
		return NewDeltaStrategy(cfg.DeltaThreshold, cfg.TradeQuantity, logger), nil
	case "ma_cross":
		return NewMACrossStrategy(cfg.ShortWindow, cfg.LongWindow, cfg.TradeQuantity, logger), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
