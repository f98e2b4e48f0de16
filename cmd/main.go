package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/app"
	"orderbook-delta-bot/internal/data"
	"orderbook-delta-bot/internal/executor"
	"orderbook-delta-bot/internal/report"
	"orderbook-delta-bot/internal/service"
	"orderbook-delta-bot/internal/strategy"
)

func main() {
	service.InitLogger()
	defer service.Logger.Sync()

	configPath := "config"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		service.Logger.Fatal("Configuration directory 'config/' not found. Please create it.")
	}
	cfg := service.LoadConfig(configPath)

	logger := service.Logger
	logger.Info("Starting Delta Orderbook Strategy Research",
		zap.String("Symbol", cfg.Research.Symbol),
		zap.Bool("Testnet", cfg.Exchange.Testnet),
		zap.Bool("UseWebsocket", cfg.Exchange.UseWebsocket))

	// Ctrl-C / SIGTERM 触发优雅退出，收尾逻辑在 Runner 内部保证执行
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strat, err := strategy.New(cfg.Strategy.Name, &cfg.Strategy, logger)
	if err != nil {
		logger.Fatal("Failed to resolve strategy", zap.Error(err))
	}

	engine := data.NewEngine(cfg, logger)
	backtester := executor.NewBacktester(cfg.Backtest.InitialBalance, logger)
	reporter := report.NewGenerator(cfg.Report.TextPath, cfg.Report.CSVPath, logger)

	runner := app.NewRunner(cfg, engine, strat, backtester, reporter, logger)
	if err := runner.Run(ctx); err != nil {
		logger.Error("Research run ended with error", zap.Error(err))
	}
	logger.Info("Research completed")
}
