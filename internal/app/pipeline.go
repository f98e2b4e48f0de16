package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
	"orderbook-delta-bot/internal/strategy"
)

// Command 是管线中一次可校验的操作输入
type Command interface {
	Name() string
	Validate() error
}

// HandlerFunc 执行具体操作
type HandlerFunc func(ctx context.Context, cmd Command) (interface{}, error)

// Middleware 环绕 HandlerFunc 的前后置钩子
type Middleware func(next HandlerFunc) HandlerFunc

// Chain 按声明顺序组合中间件，第一个最先执行
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LoggingMiddleware 记录每个操作的耗时与错误
func LoggingMiddleware(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (interface{}, error) {
			start := time.Now()
			result, err := next(ctx, cmd)
			if err != nil {
				logger.Error("Operation failed",
					zap.String("op", cmd.Name()), zap.Error(err))
				return nil, err
			}
			logger.Debug("Operation handled",
				zap.String("op", cmd.Name()), zap.Duration("took", time.Since(start)))
			return result, nil
		}
	}
}

// ValidationMiddleware 在执行前校验命令
// 校验失败只中止本次操作
func ValidationMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, cmd Command) (interface{}, error) {
			if err := cmd.Validate(); err != nil {
				return nil, fmt.Errorf("validate %s: %w", cmd.Name(), err)
			}
			return next(ctx, cmd)
		}
	}
}

// FetchOrderBookCommand 读取最新订单簿快照
type FetchOrderBookCommand struct {
	Symbol string
	Depth  int
}

func (c *FetchOrderBookCommand) Name() string { return "FetchOrderBook" }

func (c *FetchOrderBookCommand) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}
	if c.Depth <= 0 {
		return errors.New("depth must be positive")
	}
	return nil
}

// CalculateDeltaCommand 读取最近一次的流动性失衡增量
type CalculateDeltaCommand struct{}

func (c *CalculateDeltaCommand) Name() string    { return "CalculateDelta" }
func (c *CalculateDeltaCommand) Validate() error { return nil }

// EvaluateStrategyCommand 让策略对当前信号给出决策
type EvaluateStrategyCommand struct {
	Tick strategy.Tick
}

func (c *EvaluateStrategyCommand) Name() string    { return "EvaluateStrategy" }
func (c *EvaluateStrategyCommand) Validate() error { return nil }

// ExecuteTradeCommand 向虚拟账户提交一笔交易
type ExecuteTradeCommand struct {
	Side      model.Side
	Price     float64
	Quantity  float64
	Timestamp time.Time
}

func (c *ExecuteTradeCommand) Name() string { return "ExecuteTrade" }

func (c *ExecuteTradeCommand) Validate() error {
	if c.Side != model.SideBuy && c.Side != model.SideSell {
		return fmt.Errorf("invalid trade side %q", c.Side)
	}
	if c.Price <= 0 {
		return errors.New("price must be positive")
	}
	if c.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	return nil
}

// GenerateReportCommand 输出最终报告产物
type GenerateReportCommand struct {
	Symbol      string
	Trades      []*model.TradeRecord
	Performance model.PerformanceReport
}

func (c *GenerateReportCommand) Name() string { return "GenerateReport" }

func (c *GenerateReportCommand) Validate() error {
	if c.Symbol == "" {
		return errors.New("symbol is required")
	}
	return nil
}
