package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/api"
	"orderbook-delta-bot/internal/data"
	"orderbook-delta-bot/internal/executor"
	"orderbook-delta-bot/internal/report"
	"orderbook-delta-bot/internal/service"
	"orderbook-delta-bot/internal/strategy"
)

// rampFetcher 每次返回买方挂量递增的快照，保证增量恒为正
type rampFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *rampFetcher) FetchSnapshot(ctx context.Context, symbol string, depth int) (api.RawSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return api.NewRawSnapshot(
		[][2]float64{{3000, float64(f.calls) * 2}},
		[][2]float64{{3001, 1}},
		int64(f.calls)*1000,
	), nil
}

func (f *rampFetcher) Close() {}

func testRunner(t *testing.T, fetcher data.SnapshotFetcher, maxIterations int) (*Runner, *executor.Backtester, string, string) {
	t.Helper()
	dir := t.TempDir()
	textPath := filepath.Join(dir, "research_report.txt")
	csvPath := filepath.Join(dir, "trades_report.csv")

	cfg := &service.Config{
		Research: service.ResearchConfig{
			Symbol:        "ETHUSDT",
			Depth:         25,
			PollInterval:  5 * time.Millisecond,
			MaxIterations: maxIterations,
		},
		Strategy: service.StrategyConfig{
			Name:           "delta",
			DeltaThreshold: 0.5,
			TradeQuantity:  0.1,
		},
		Backtest: service.BacktestConfig{InitialBalance: 10000},
	}

	logger := zap.NewNop()
	engine := data.NewPollingEngine(fetcher, cfg.Research.Symbol, cfg.Research.Depth, time.Millisecond, logger)
	strat := strategy.NewDeltaStrategy(cfg.Strategy.DeltaThreshold, cfg.Strategy.TradeQuantity, logger)
	backtester := executor.NewBacktester(cfg.Backtest.InitialBalance, logger)
	reporter := report.NewGenerator(textPath, csvPath, logger)

	return NewRunner(cfg, engine, strat, backtester, reporter, logger), backtester, textPath, csvPath
}

func TestRunnerExecutesTradesAndReports(t *testing.T) {
	runner, backtester, textPath, csvPath := testRunner(t, &rampFetcher{}, 20)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 增量持续为正，至少要成交一笔买单
	trades := backtester.TradeHistory()
	if len(trades) == 0 {
		t.Fatal("no trades executed despite a persistently positive delta")
	}
	if backtester.Balance() >= 10000 {
		t.Errorf("balance = %v, buys must reduce the cash balance", backtester.Balance())
	}
	if _, err := os.Stat(textPath); err != nil {
		t.Error("text report not written after run")
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Error("csv report not written despite executed trades")
	}
}

func TestRunnerFinalizesWhenCancelled(t *testing.T) {
	runner, backtester, textPath, csvPath := testRunner(t, &rampFetcher{}, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runner.Run(ctx); err != nil {
		t.Fatalf("Run returned %v, cancellation must not be an error", err)
	}

	// 没有成交也要落盘文字报告，但跳过 CSV
	if len(backtester.TradeHistory()) != 0 {
		t.Errorf("trades = %d, want none before the first tick", len(backtester.TradeHistory()))
	}
	if _, err := os.Stat(textPath); err != nil {
		t.Error("text report must be written even on an interrupted run")
	}
	if _, err := os.Stat(csvPath); !os.IsNotExist(err) {
		t.Error("csv must be skipped when no trades were executed")
	}
}
