package model

// Level 代表订单簿中的一个价格档位 (价格, 数量)
type Level struct {
	Price    float64
	Quantity float64
}

// OrderBook 代表某一时刻的订单簿快照
// 每个轮询周期从原始负载重新构建，构建后不再修改；
// 上一帧只保留一个周期用于计算增量
type OrderBook struct {
	Symbol    string
	Timestamp float64 // epoch 秒
	Bids      []Level // 按最优价在前排序 (降序)
	Asks      []Level // 按最优价在前排序 (升序)
}

// Spread 计算最优买价和最优卖价之间的价差
// 任一侧为空时返回 0 (允许交叉盘口，调用方自行容忍)
func (ob *OrderBook) Spread() float64 {
	if len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return 0.0
	}
	return ob.Asks[0].Price - ob.Bids[0].Price
}

// MidPrice 计算最优买卖价的中间价，任一侧为空时返回 0
func (ob *OrderBook) MidPrice() float64 {
	if len(ob.Bids) == 0 || len(ob.Asks) == 0 {
		return 0.0
	}
	return (ob.Bids[0].Price + ob.Asks[0].Price) / 2
}

// BidVolume 返回买方全部档位的数量之和
func (ob *OrderBook) BidVolume() float64 {
	var total float64
	for _, lvl := range ob.Bids {
		total += lvl.Quantity
	}
	return total
}

// AskVolume 返回卖方全部档位的数量之和
func (ob *OrderBook) AskVolume() float64 {
	var total float64
	for _, lvl := range ob.Asks {
		total += lvl.Quantity
	}
	return total
}
