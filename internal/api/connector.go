package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	mainnetWSURL = "wss://stream.bybit.com/realtime"
	testnetWSURL = "wss://stream-testnet.bybit.com/realtime"

	// 每帧读取的超时上限
	readTimeout = 10 * time.Second

	// 重连退避分级：读超时 1s，对端异常断开 5s，其他错误 10s
	timeoutBackoff = 1 * time.Second
	closedBackoff  = 5 * time.Second
	failureBackoff = 10 * time.Second
)

// wsFrame 是订单簿频道推送的通用帧结构
type wsFrame struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
	Event string          `json:"event"`
}

// Connector 通过 WebSocket 订阅订单簿数据流
// 断线后按错误类型分级退避并自动重连，直到被显式停止
type Connector struct {
	wsURL     string
	symbol    string
	logger    *zap.Logger
	snapshots chan RawSnapshot

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewConnector 构造流式适配器
// wsURL 留空时根据 testnet 标志选择默认地址
func NewConnector(testnet bool, wsURL, symbol string, logger *zap.Logger) *Connector {
	if wsURL == "" {
		if testnet {
			wsURL = testnetWSURL
		} else {
			wsURL = mainnetWSURL
		}
	}
	return &Connector{
		wsURL:     wsURL,
		symbol:    symbol,
		logger:    logger,
		snapshots: make(chan RawSnapshot, 256),
		stopCh:    make(chan struct{}),
	}
}

// Snapshots 返回原始快照输出通道，供数据引擎消费
func (c *Connector) Snapshots() <-chan RawSnapshot {
	return c.snapshots
}

// Start 启动连接和读取 Goroutine
func (c *Connector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

// Stop 通知读取循环退出并等待其结束，幂等
func (c *Connector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
}

func (c *Connector) stopped(ctx context.Context) bool {
	select {
	case <-c.stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// run 是外层拨号循环：每次连接断开后按 readLoop 返回的退避等级暂停再重连
func (c *Connector) run(ctx context.Context) {
	c.logger.Info("Connecting to orderbook WebSocket", zap.String("URL", c.wsURL))

	for {
		if c.stopped(ctx) {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsURL, nil)
		if err != nil {
			if c.stopped(ctx) {
				return
			}
			c.logger.Error("WebSocket connection failed", zap.Error(err))
			c.sleep(ctx, failureBackoff)
			continue
		}

		backoff := c.readLoop(ctx, conn)
		conn.Close()

		if c.stopped(ctx) {
			return
		}
		c.sleep(ctx, backoff)
	}
}

// readLoop 订阅频道并持续读取帧，返回断开后应采用的退避时长
func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn) time.Duration {
	subscribeMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": []string{fmt.Sprintf("orderBookL2_25.%s", c.symbol)},
	}
	if err := conn.WriteJSON(subscribeMsg); err != nil {
		c.logger.Error("Failed to send WS subscription", zap.Error(err))
		return failureBackoff
	}
	c.logger.Info("Subscribed to orderbook stream", zap.String("Symbol", c.symbol))

	for {
		if c.stopped(ctx) {
			return 0
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				c.logger.Warn("WebSocket read timeout, reconnecting...")
				return timeoutBackoff
			case websocket.IsUnexpectedCloseError(err):
				c.logger.Warn("WebSocket connection closed unexpectedly", zap.Error(err))
				return closedBackoff
			default:
				c.logger.Error("Error reading WS message", zap.Error(err))
				return failureBackoff
			}
		}

		var frame wsFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.logger.Error("WS frame decode error", zap.Error(err))
			continue
		}

		// 订阅确认等事件帧不携带数据，直接跳过
		if frame.Event != "" || len(frame.Data) == 0 {
			continue
		}

		var raw RawSnapshot
		if err := json.Unmarshal(frame.Data, &raw); err != nil {
			c.logger.Error("Snapshot decode error", zap.Error(err))
			continue
		}
		if raw.timestampMillis() == 0 {
			raw.TS = flexMillis(time.Now().UnixMilli())
		}

		// 使用 select/default 防止阻塞读循环
		select {
		case c.snapshots <- raw:
		default:
			c.logger.Warn("Snapshot channel full! Dropping frame", zap.String("Symbol", c.symbol))
		}
	}
}

func (c *Connector) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-c.stopCh:
	case <-ctx.Done():
	}
}
