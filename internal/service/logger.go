package service

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 是全局日志接口
// 在其他模块中使用：service.Logger.Info("Trade executed", zap.String("side", side))
var Logger *zap.Logger

// InitLogger 初始化 Zap 日志
func InitLogger() {
	config := zap.NewProductionConfig()

	// 格式化时间
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "time"

	var err error
	Logger, err = config.Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
}
