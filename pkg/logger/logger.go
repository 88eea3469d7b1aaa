package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据运行环境和日志级别创建 zap 日志器
// env 为 dev 时使用开发模式 (彩色控制台输出)，其余环境使用 JSON 输出
func New(level, env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "" || env == "dev" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)
	// CLI 的标准输出留给业务数据
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}

// OrNop 返回 l，l 为 nil 时返回空日志器
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
