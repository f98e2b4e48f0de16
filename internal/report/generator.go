package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"orderbook-delta-bot/internal/model"
)

// Generator 生成最终的文本报告和成交 CSV
// 两个产物都是整体覆盖写入，不做追加
type Generator struct {
	textPath string
	csvPath  string
	logger   *zap.SugaredLogger
}

func NewGenerator(textPath, csvPath string, logger *zap.Logger) *Generator {
	return &Generator{
		textPath: textPath,
		csvPath:  csvPath,
		logger:   logger.Sugar(),
	}
}

// Generate 渲染绩效摘要到文本文件，并把成交列表写入 CSV
// 成交列表为空时跳过 CSV (只记日志，不报错)
func (g *Generator) Generate(symbol string, trades []*model.TradeRecord, perf model.PerformanceReport) error {
	text := g.renderText(symbol, perf)
	if err := os.WriteFile(g.textPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	g.logger.Info(text)

	if len(trades) == 0 {
		g.logger.Info("No trades to save in CSV")
		return nil
	}

	if err := g.writeTradesCSV(trades); err != nil {
		return fmt.Errorf("write trades csv: %w", err)
	}
	g.logger.Infof("Saved %d trades to %s", len(trades), g.csvPath)
	return nil
}

func (g *Generator) renderText(symbol string, perf model.PerformanceReport) string {
	conclusion := "loss"
	if perf.PnL > 0 {
		conclusion = "profit"
	}
	absPnL := perf.PnL
	if absPnL < 0 {
		absPnL = -absPnL
	}

	var sb strings.Builder
	sb.WriteString("\n==================== RESEARCH REPORT ====================\n")
	sb.WriteString("Strategy: Orderbook Delta Momentum\n")
	fmt.Fprintf(&sb, "Symbol: %s\n", symbol)
	fmt.Fprintf(&sb, "Timeframe: %s\n", perf.Timeframe)
	fmt.Fprintf(&sb, "Total Iterations: %d\n", perf.Iterations)
	sb.WriteString("---------------------------------------------------------\n")
	sb.WriteString("Performance Metrics:\n")
	fmt.Fprintf(&sb, "Initial Balance: $%.2f\n", perf.InitialBalance)
	fmt.Fprintf(&sb, "Final Balance:   $%.2f\n", perf.FinalBalance)
	fmt.Fprintf(&sb, "Position:        %.6f %s\n", perf.Position, baseAsset(symbol))
	fmt.Fprintf(&sb, "Position Value:  $%.2f\n", perf.PositionValue)
	fmt.Fprintf(&sb, "Total Value:     $%.2f\n", perf.TotalValue)
	fmt.Fprintf(&sb, "PNL:             $%.2f\n", perf.PnL)
	fmt.Fprintf(&sb, "Total Trades:    %d\n", perf.TotalTrades)
	sb.WriteString("---------------------------------------------------------\n")
	sb.WriteString("Conclusion: This research demonstrates a basic strategy\n")
	sb.WriteString("based on orderbook delta momentum. The strategy showed\n")
	fmt.Fprintf(&sb, "a %s of $%.2f over %d iterations.\n", conclusion, absPnL, perf.Iterations)
	sb.WriteString("=========================================================\n")
	return sb.String()
}

func (g *Generator) writeTradesCSV(trades []*model.TradeRecord) error {
	f, err := os.Create(g.csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "side", "price", "quantity"}); err != nil {
		return err
	}
	for _, trade := range trades {
		row := []string{
			trade.Timestamp,
			string(trade.Side),
			strconv.FormatFloat(trade.Price, 'f', -1, 64),
			strconv.FormatFloat(trade.Quantity, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// baseAsset 从交易对推出基础货币名，如 ETHUSDT → ETH
func baseAsset(symbol string) string {
	if s, ok := strings.CutSuffix(symbol, "USDT"); ok && s != "" {
		return s
	}
	if len(symbol) > 4 {
		return symbol[:len(symbol)-4]
	}
	return symbol
}
