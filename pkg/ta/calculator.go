package ta

import (
	"sync"

	"github.com/markcheno/go-talib"
)

// Calculator 维护价格历史并计算简单移动平均
// 历史只增不减，由均线交叉策略逐笔追加中间价
type Calculator struct {
	mu      sync.RWMutex
	history []float64
}

// NewCalculator 初始化指标计算器
func NewCalculator() *Calculator {
	return &Calculator{
		history: make([]float64, 0, 128),
	}
}

// Append 追加一个价格样本
func (c *Calculator) Append(price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, price)
}

// Len 返回已观测的样本数
func (c *Calculator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history)
}

// SMA 返回最近 period 个样本的简单移动平均
// 样本不足或 period 非法时返回 0
func (c *Calculator) SMA(period int) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if period <= 0 || len(c.history) < period {
		return 0.0
	}

	window := c.history[len(c.history)-period:]
	result := talib.Sma(window, period)
	return result[len(result)-1]
}
