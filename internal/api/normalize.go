package api

import (
	"bytes"
	"fmt"
	"strconv"

	"orderbook-delta-bot/internal/model"
)

// flexFloat 兼容字符串 ("3000.5") 和数字 (3000.5) 两种写法的 JSON 浮点数
// Bybit v5 的档位是字符串数组，旧格式则是数字数组
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

// flexMillis 兼容字符串和数字写法的毫秒时间戳
type flexMillis int64

func (m *flexMillis) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	*m = flexMillis(v)
	return nil
}

// rawLevel 是线上的一个档位，约定为 [price, quantity]
// 长度不做解码期校验，由 ParseOrderBook 统一判定并报错
type rawLevel []flexFloat

// RawSnapshot 对应交易所返回的原始订单簿负载
// 同时声明两套字段命名 (b/a/t 与 bids/asks/ts)，短键优先
type RawSnapshot struct {
	B    []rawLevel `json:"b"`
	A    []rawLevel `json:"a"`
	Bids []rawLevel `json:"bids"`
	Asks []rawLevel `json:"asks"`
	T    flexMillis `json:"t"`
	TS   flexMillis `json:"ts"`
}

// NewRawSnapshot 从价格/数量对构造原始快照，供 WS 打时间戳和测试使用
func NewRawSnapshot(bids, asks [][2]float64, tsMillis int64) RawSnapshot {
	conv := func(pairs [][2]float64) []rawLevel {
		levels := make([]rawLevel, 0, len(pairs))
		for _, p := range pairs {
			levels = append(levels, rawLevel{flexFloat(p[0]), flexFloat(p[1])})
		}
		return levels
	}
	return RawSnapshot{B: conv(bids), A: conv(asks), T: flexMillis(tsMillis)}
}

func (r RawSnapshot) bidLevels() []rawLevel {
	if len(r.B) > 0 {
		return r.B
	}
	return r.Bids
}

func (r RawSnapshot) askLevels() []rawLevel {
	if len(r.A) > 0 {
		return r.A
	}
	return r.Asks
}

func (r RawSnapshot) timestampMillis() int64 {
	if r.T != 0 {
		return int64(r.T)
	}
	return int64(r.TS)
}

// IsEmpty 判断负载是否为空快照 (两侧均无档位)
func (r RawSnapshot) IsEmpty() bool {
	return len(r.bidLevels()) == 0 && len(r.askLevels()) == 0
}

// imbalance 计算单帧的流动性失衡 ∑bid_qty − ∑ask_qty
// 任一侧为空的帧按约定贡献 0
func (r RawSnapshot) imbalance() float64 {
	bids := r.bidLevels()
	asks := r.askLevels()
	if len(bids) == 0 || len(asks) == 0 {
		return 0.0
	}
	var bidQty, askQty float64
	for _, lvl := range bids {
		if len(lvl) >= 2 {
			bidQty += float64(lvl[1])
		}
	}
	for _, lvl := range asks {
		if len(lvl) >= 2 {
			askQty += float64(lvl[1])
		}
	}
	return bidQty - askQty
}

// Delta 计算两帧之间的流动性失衡变化
// Δ = (∑bid_qty − ∑ask_qty) 新帧 − 前一帧
func Delta(prev, curr RawSnapshot) float64 {
	return curr.imbalance() - prev.imbalance()
}

// ParseOrderBook 把原始负载转换为领域模型
// 毫秒时间戳转为秒；畸形档位直接报错，不做静默丢弃
func ParseOrderBook(symbol string, raw RawSnapshot) (*model.OrderBook, error) {
	bids, err := convertLevels(raw.bidLevels())
	if err != nil {
		return nil, fmt.Errorf("parse bids: %w", err)
	}
	asks, err := convertLevels(raw.askLevels())
	if err != nil {
		return nil, fmt.Errorf("parse asks: %w", err)
	}
	return &model.OrderBook{
		Symbol:    symbol,
		Timestamp: float64(raw.timestampMillis()) / 1_000,
		Bids:      bids,
		Asks:      asks,
	}, nil
}

func convertLevels(levels []rawLevel) ([]model.Level, error) {
	out := make([]model.Level, 0, len(levels))
	for i, lvl := range levels {
		if len(lvl) != 2 {
			return nil, fmt.Errorf("malformed level at index %d: expected [price, quantity], got %d elements", i, len(lvl))
		}
		out = append(out, model.Level{Price: float64(lvl[0]), Quantity: float64(lvl[1])})
	}
	return out, nil
}
