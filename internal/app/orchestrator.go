package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"orderbook-delta-bot/internal/data"
	"orderbook-delta-bot/internal/executor"
	"orderbook-delta-bot/internal/model"
	"orderbook-delta-bot/internal/report"
	"orderbook-delta-bot/internal/service"
	"orderbook-delta-bot/internal/strategy"
)

// Runner 把数据引擎、策略、虚拟账户和报告器串成一次研究运行
type Runner struct {
	cfg        *service.Config
	engine     *data.Engine
	strategy   strategy.Strategy
	backtester *executor.Backtester
	reporter   *report.Generator
	logger     *zap.Logger
	handle     HandlerFunc
}

func NewRunner(
	cfg *service.Config,
	engine *data.Engine,
	strat strategy.Strategy,
	backtester *executor.Backtester,
	reporter *report.Generator,
	logger *zap.Logger,
) *Runner {
	r := &Runner{
		cfg:        cfg,
		engine:     engine,
		strategy:   strat,
		backtester: backtester,
		reporter:   reporter,
		logger:     logger,
	}
	// 每个操作都经过同一条 日志 → 校验 → 执行 的管线
	r.handle = Chain(r.dispatch, LoggingMiddleware(logger), ValidationMiddleware())
	return r
}

// dispatch 是命令到执行逻辑的封闭映射
func (r *Runner) dispatch(ctx context.Context, cmd Command) (interface{}, error) {
	switch c := cmd.(type) {
	case *FetchOrderBookCommand:
		return r.engine.Latest(), nil
	case *CalculateDeltaCommand:
		return r.engine.Delta(), nil
	case *EvaluateStrategyCommand:
		return r.strategy.Evaluate(c.Tick), nil
	case *ExecuteTradeCommand:
		accepted := r.backtester.ExecuteTrade(c.Side, c.Price, c.Quantity, c.Timestamp)
		if accepted {
			r.logger.Info("Trade executed",
				zap.String("side", c.Side.String()),
				zap.Float64("quantity", c.Quantity),
				zap.Float64("price", c.Price))
		}
		return accepted, nil
	case *GenerateReportCommand:
		return nil, r.reporter.Generate(c.Symbol, c.Trades, c.Performance)
	default:
		return nil, fmt.Errorf("no handler for command %s", cmd.Name())
	}
}

// Run 执行固定迭代数 (可选再加时长上限) 的回测主循环
// 无论正常结束、出错还是被中断，收尾 (停止引擎 + 输出报告) 都会执行
func (r *Runner) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.engine.Run(gctx)
	})

	iterations := 0
	defer func() {
		r.engine.Stop()
		if err := g.Wait(); err != nil {
			r.logger.Warn("Data engine exited with error", zap.Error(err))
		}
		r.finalize(iterations)
	}()

	research := r.cfg.Research
	var deadline time.Time
	if research.Duration > 0 {
		deadline = time.Now().Add(research.Duration)
	}

	r.logger.Info("Starting backtesting simulation",
		zap.String("Symbol", research.Symbol),
		zap.String("Strategy", r.strategy.Name()),
		zap.Int("MaxIterations", research.MaxIterations))

	for iterations < research.MaxIterations {
		select {
		case <-ctx.Done():
			r.logger.Info("Run interrupted")
			return nil
		default:
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			r.logger.Info("Duration bound reached")
			return nil
		}

		// 跳过的周期同样计入迭代数
		iterations++

		if err := r.iterate(ctx); err != nil {
			return fmt.Errorf("iteration %d: %w", iterations, err)
		}

		r.sleep(ctx, research.PollInterval)
	}
	return nil
}

// iterate 执行一个 快照 → 增量 → 决策 → 成交 周期
func (r *Runner) iterate(ctx context.Context) error {
	bookAny, err := r.handle(ctx, &FetchOrderBookCommand{
		Symbol: r.cfg.Research.Symbol,
		Depth:  r.cfg.Research.Depth,
	})
	if err != nil {
		return err
	}
	book, _ := bookAny.(*model.OrderBook)
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil
	}

	deltaAny, err := r.handle(ctx, &CalculateDeltaCommand{})
	if err != nil {
		return err
	}
	delta, _ := deltaAny.(float64)

	decisionAny, err := r.handle(ctx, &EvaluateStrategyCommand{
		Tick: strategy.Tick{Book: book, Delta: delta},
	})
	if err != nil {
		return err
	}
	decision, _ := decisionAny.(strategy.Decision)

	if decision.Side == model.SideHold {
		return nil
	}

	var ts time.Time
	if book.Timestamp > 0 {
		ts = time.Unix(int64(book.Timestamp), 0).UTC()
	}

	// 校验失败只作用于本次指令，不中断整个运行
	if _, err := r.handle(ctx, &ExecuteTradeCommand{
		Side:      decision.Side,
		Price:     decision.Price,
		Quantity:  decision.Quantity,
		Timestamp: ts,
	}); err != nil {
		r.logger.Warn("Trade command rejected", zap.Error(err))
	}
	return nil
}

// finalize 无条件收尾：用最后已知中间价生成绩效报告并落盘
func (r *Runner) finalize(iterations int) {
	r.logger.Info("Generating performance report")

	lastPrice := 0.0
	if book := r.engine.Latest(); book != nil {
		lastPrice = book.MidPrice()
	}

	perf := r.backtester.PerformanceReport(lastPrice)
	perf.Iterations = iterations

	if _, err := r.handle(context.Background(), &GenerateReportCommand{
		Symbol:      r.cfg.Research.Symbol,
		Trades:      r.backtester.TradeHistory(),
		Performance: perf,
	}); err != nil {
		r.logger.Error("Report generation failed", zap.Error(err))
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
