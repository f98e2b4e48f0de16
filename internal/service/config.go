package service

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// ExchangeConfig 定义了交易所的连接信息
type ExchangeConfig struct {
	Name         string
	Testnet      bool
	UseWebsocket bool
	RESTURL      string // 留空则按 Testnet 选择默认地址
	WSURL        string
}

// ResearchConfig 定义了一次研究运行的参数
type ResearchConfig struct {
	Symbol        string
	Depth         int
	PollInterval  time.Duration
	MaxIterations int
	Duration      time.Duration // 0 表示只受迭代数约束
}

// StrategyConfig 定义了策略启动参数
type StrategyConfig struct {
	Name           string // "delta" 或 "ma_cross"
	DeltaThreshold float64
	TradeQuantity  float64
	ShortWindow    int
	LongWindow     int
}

// BacktestConfig 定义了虚拟账户参数
type BacktestConfig struct {
	InitialBalance float64
}

// ReportConfig 定义了报告产物的输出位置
type ReportConfig struct {
	TextPath string
	CSVPath  string `mapstructure:"CsvPath"`
}

type Config struct {
	Exchange ExchangeConfig `mapstructure:"Exchange"`
	Research ResearchConfig `mapstructure:"Research"`
	Strategy StrategyConfig `mapstructure:"Strategy"`
	Backtest BacktestConfig `mapstructure:"Backtest"`
	Report   ReportConfig   `mapstructure:"Report"`
}

// GlobalConfig 存储加载后的全局配置
var GlobalConfig Config

// LoadConfig 读取并解析配置文件
// 所有参数在启动时一次性给定，运行期间不再变更
func LoadConfig(configPath string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Fatalf("Config file not found: %s", err)
		} else {
			log.Fatalf("Error reading config file: %s", err)
		}
	}

	if err := viper.Unmarshal(&GlobalConfig); err != nil {
		log.Fatalf("Unable to decode config into struct: %s", err)
	}

	applyDefaults(&GlobalConfig)
	return &GlobalConfig
}

// applyDefaults 填补未配置的字段
func applyDefaults(cfg *Config) {
	if cfg.Research.Symbol == "" {
		cfg.Research.Symbol = "ETHUSDT"
	}
	if cfg.Research.Depth <= 0 {
		cfg.Research.Depth = 25
	}
	if cfg.Research.PollInterval <= 0 {
		cfg.Research.PollInterval = time.Second
	}
	if cfg.Research.MaxIterations <= 0 {
		cfg.Research.MaxIterations = 100
	}
	if cfg.Strategy.Name == "" {
		cfg.Strategy.Name = "delta"
	}
	if cfg.Strategy.DeltaThreshold <= 0 {
		cfg.Strategy.DeltaThreshold = 0.1
	}
	if cfg.Strategy.TradeQuantity <= 0 {
		cfg.Strategy.TradeQuantity = 0.1
	}
	if cfg.Strategy.ShortWindow <= 0 {
		cfg.Strategy.ShortWindow = 20
	}
	if cfg.Strategy.LongWindow <= 0 {
		cfg.Strategy.LongWindow = 50
	}
	if cfg.Backtest.InitialBalance <= 0 {
		cfg.Backtest.InitialBalance = 10_000.0
	}
	if cfg.Report.TextPath == "" {
		cfg.Report.TextPath = "research_report.txt"
	}
	if cfg.Report.CSVPath == "" {
		cfg.Report.CSVPath = "trades_report.csv"
	}
}
