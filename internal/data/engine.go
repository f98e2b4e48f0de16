package data

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/api"
	"orderbook-delta-bot/internal/model"
	"orderbook-delta-bot/internal/service"
)

// 单个周期失败后的重试退避
const defaultErrorBackoff = 5 * time.Second

// SnapshotFetcher 抽象 REST 快照来源
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, symbol string, depth int) (api.RawSnapshot, error)
	Close()
}

// streamSource 抽象 WS 推送来源
type streamSource interface {
	Start(ctx context.Context)
	Stop()
	Snapshots() <-chan api.RawSnapshot
}

// Engine 维护滚动的订单簿快照和流动性失衡增量
// 同一时刻只有一个 fetch-parse-diff 周期在执行；
// 编排器读取到的快照最多落后一个轮询周期
type Engine struct {
	symbol       string
	depth        int
	interval     time.Duration
	errorBackoff time.Duration
	logger       *zap.Logger

	fetcher SnapshotFetcher // REST 模式
	stream  streamSource    // WS 模式

	mu        sync.RWMutex
	running   bool
	latest    *model.OrderBook
	previous  *model.OrderBook
	latestRaw api.RawSnapshot
	delta     float64

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewEngine 根据配置选择 REST 轮询或 WS 推送来源
func NewEngine(cfg *service.Config, logger *zap.Logger) *Engine {
	if cfg.Exchange.UseWebsocket {
		e := newEngine(cfg.Research.Symbol, cfg.Research.Depth, cfg.Research.PollInterval, logger)
		e.stream = api.NewConnector(cfg.Exchange.Testnet, cfg.Exchange.WSURL, cfg.Research.Symbol, logger)
		return e
	}
	client := api.NewClient(cfg.Exchange.Testnet, cfg.Exchange.RESTURL, logger)
	return NewPollingEngine(client, cfg.Research.Symbol, cfg.Research.Depth, cfg.Research.PollInterval, logger)
}

// NewPollingEngine 用给定的快照来源构造 REST 轮询引擎
func NewPollingEngine(fetcher SnapshotFetcher, symbol string, depth int, interval time.Duration, logger *zap.Logger) *Engine {
	e := newEngine(symbol, depth, interval, logger)
	e.fetcher = fetcher
	return e
}

func newEngine(symbol string, depth int, interval time.Duration, logger *zap.Logger) *Engine {
	return &Engine{
		symbol:       symbol,
		depth:        depth,
		interval:     interval,
		errorBackoff: defaultErrorBackoff,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}
}

// Run 执行数据采集主循环，直到 Stop 或 ctx 取消
// 取消属于预期的终止方式，返回 nil；重复调用直接返回
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.logger.Info("Starting orderbook polling", zap.String("Symbol", e.symbol))

	if e.stream != nil {
		return e.runStreaming(ctx)
	}
	return e.runPolling(ctx)
}

// runPolling 周期性执行 fetch → parse → shift → delta → sleep
// 单个周期的任何错误只记日志并退避，绝不终止循环
func (e *Engine) runPolling(ctx context.Context) error {
	for {
		select {
		case <-e.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		raw, err := e.fetcher.FetchSnapshot(ctx, e.symbol, e.depth)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			e.logger.Error("Polling error", zap.Error(err))
			e.sleep(ctx, e.errorBackoff)
			continue
		}

		if raw.IsEmpty() {
			e.logger.Warn("Empty snapshot, skip")
			e.sleep(ctx, e.interval)
			continue
		}

		if err := e.apply(raw); err != nil {
			e.logger.Error("Polling error", zap.Error(err))
			e.sleep(ctx, e.errorBackoff)
			continue
		}

		e.sleep(ctx, e.interval)
	}
}

// runStreaming 消费 WS 连接器推送的快照，走同一条 shift/delta 路径
func (e *Engine) runStreaming(ctx context.Context) error {
	e.stream.Start(ctx)
	for {
		select {
		case <-e.stopCh:
			return nil
		case <-ctx.Done():
			return nil
		case raw := <-e.stream.Snapshots():
			if raw.IsEmpty() {
				continue
			}
			if err := e.apply(raw); err != nil {
				e.logger.Error("Stream snapshot error", zap.Error(err))
			}
		}
	}
}

// apply 解析原始快照并推进 previous/latest，前一帧存在时计算增量
func (e *Engine) apply(raw api.RawSnapshot) error {
	book, err := api.ParseOrderBook(e.symbol, raw)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prevRaw := e.latestRaw
	e.previous = e.latest
	e.latest = book
	e.latestRaw = raw

	if e.previous != nil {
		e.delta = api.Delta(prevRaw, raw)
	}
	return nil
}

// Stop 通知采集循环退出并释放数据源，幂等
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
	if e.stream != nil {
		e.stream.Stop()
	}
	if e.fetcher != nil {
		e.fetcher.Close()
	}
}

// Latest 返回最新的订单簿快照，尚未收到数据时为 nil
func (e *Engine) Latest() *model.OrderBook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// Delta 返回最近一次计算的流动性失衡增量，没有前一帧时按约定为 0.0
func (e *Engine) Delta() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.delta
}

func (e *Engine) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-e.stopCh:
	case <-ctx.Done():
	}
}
