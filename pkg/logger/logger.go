package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Sink     string        `yaml:"sink" envconfig:"LOG_SINK"`
}

// NewLogger builds a JSON zap logger writing to Sink (stdout when empty).
func NewLogger(cfg Log, name string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "ts"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		sink(cfg.Sink),
		zap.NewAtomicLevelAt(cfg.LogLevel),
	)
	return zap.New(core, zap.AddCaller()).Named(name)
}

func sink(path string) zapcore.WriteSyncer {
	if path == "" {
		return zapcore.Lock(os.Stdout)
	}
	ws, _, err := zap.Open(path)
	if err != nil {
		return zapcore.Lock(os.Stderr)
	}
	return ws
}
