package executor

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
)

// Backtester 是模拟交易的虚拟账户/台账
// 不变式：balance >= 0 且 position >= 0，靠交易前的准入检查保证，
// 绝不在事后截断
type Backtester struct {
	mu             sync.RWMutex
	initialBalance float64
	balance        float64 // 计价货币余额
	position       float64 // 基础货币持仓
	startTime      time.Time
	endTime        time.Time
	trades         []*model.TradeRecord
	logger         *zap.SugaredLogger
}

// NewBacktester 构造虚拟账户
func NewBacktester(initialBalance float64, logger *zap.Logger) *Backtester {
	return &Backtester{
		initialBalance: initialBalance,
		balance:        initialBalance,
		logger:         logger.Sugar(),
	}
}

// ExecuteTrade 按准入规则执行一笔模拟交易
// 准入失败 (余额/持仓不足、非法方向) 时静默丢弃：只记日志，
// 不产生记录也不报错；返回值表示是否被接纳
func (b *Backtester) ExecuteTrade(side model.Side, price, qty float64, ts time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	switch side {
	case model.SideBuy:
		required := price * qty
		if b.balance < required {
			b.logger.Warnf("Insufficient balance for BUY: need %.2f, have %.2f", required, b.balance)
			return false
		}
		b.balance -= required
		b.position += qty

	case model.SideSell:
		if b.position < qty {
			b.logger.Warnf("Insufficient position for SELL: need %.6f, have %.6f", qty, b.position)
			return false
		}
		b.balance += price * qty
		b.position -= qty

	default:
		b.logger.Errorf("Unsupported trade side: %s", side)
		return false
	}

	// 记录首笔和末笔成交的时间
	if b.startTime.IsZero() {
		b.startTime = ts
	}
	b.endTime = ts

	b.trades = append(b.trades, &model.TradeRecord{
		ID:        uuid.NewString(),
		Timestamp: ts.UTC().Format(time.RFC3339),
		Side:      side,
		Price:     price,
		Quantity:  qty,
	})
	return true
}

// PerformanceReport 基于当前账户状态生成绩效指标
// 纯读取，不修改任何状态；同一 lastPrice 下重复调用结果一致
func (b *Backtester) PerformanceReport(lastPrice float64) model.PerformanceReport {
	b.mu.RLock()
	defer b.mu.RUnlock()

	posValue := b.position * lastPrice
	totalValue := b.balance + posValue
	pnl := totalValue - b.initialBalance

	pnlPct := 0.0
	if b.initialBalance != 0 {
		pnlPct = pnl / b.initialBalance * 100
	}

	timeframe := "N/A"
	if !b.startTime.IsZero() && !b.endTime.IsZero() {
		timeframe = fmt.Sprintf("%s - %s",
			b.startTime.UTC().Format(time.RFC3339),
			b.endTime.UTC().Format(time.RFC3339))
	}

	return model.PerformanceReport{
		InitialBalance: b.initialBalance,
		FinalBalance:   b.balance,
		Position:       b.position,
		PositionValue:  posValue,
		TotalValue:     totalValue,
		PnL:            pnl,
		PnLPct:         pnlPct,
		TotalTrades:    len(b.trades),
		Timeframe:      timeframe,
	}
}

// TradeHistory 返回成交记录的副本，防止外部修改
func (b *Backtester) TradeHistory() []*model.TradeRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	records := make([]*model.TradeRecord, len(b.trades))
	copy(records, b.trades)
	return records
}

// Balance 返回当前计价货币余额
func (b *Backtester) Balance() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balance
}

// Position 返回当前基础货币持仓
func (b *Backtester) Position() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.position
}
