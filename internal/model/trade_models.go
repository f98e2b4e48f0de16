package model

// Side 表示交易方向 (策略决策中的 HOLD 表示本周期不操作)
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
	SideHold Side = "HOLD"
)

func (s Side) String() string {
	return string(s)
}

// TradeRecord 记录一笔已被台账接纳的模拟成交
// 追加到交易列表后不再修改
type TradeRecord struct {
	ID        string // 成交记录标识
	Timestamp string // ISO-8601 秒级精度
	Side      Side
	Price     float64
	Quantity  float64
}

// PerformanceReport 是一次研究运行的绩效指标快照
type PerformanceReport struct {
	InitialBalance float64
	FinalBalance   float64
	Position       float64
	PositionValue  float64
	TotalValue     float64
	PnL            float64
	PnLPct         float64
	TotalTrades    int
	Timeframe      string // "start - end"，无成交时为 "N/A"
	Iterations     int    // 由编排器在收尾时填入
}
