// Package logger owns the process-wide zap logger.  Components receive a
// *zap.Logger through their constructors; Get is for wiring code only.
package logger

import (
    "strings"
    "sync"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

var (
    global *zap.Logger
    once   sync.Once
)

// Init builds the global logger.  env "prod" or "production" selects the
// production config; format "json" or "console" overrides the encoding.
func Init(env, level, format string) *zap.Logger {
    once.Do(func() {
        var cfg zap.Config
        switch strings.ToLower(env) {
        case "prod", "production":
            cfg = zap.NewProductionConfig()
            cfg.EncoderConfig.TimeKey = "timestamp"
            cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
            cfg.DisableStacktrace = true
        default:
            cfg = zap.NewDevelopmentConfig()
            cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
        }
        cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
        switch format {
        case "json":
            cfg.Encoding = "json"
            cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
        case "console":
            cfg.Encoding = "console"
        }
        cfg.OutputPaths = []string{"stdout"}
        cfg.ErrorOutputPaths = []string{"stderr"}

        l, err := cfg.Build(zap.AddCaller())
        if err != nil {
            panic("failed to initialize logger: " + err.Error())
        }
        global = l
        zap.ReplaceGlobals(l)
    })
    return global
}

// Get returns the global logger, initializing a production one if Init was
// never called.
func Get() *zap.Logger {
    if global == nil {
        return Init("production", "info", "json")
    }
    return global
}

// Sync flushes buffered entries.
func Sync() {
    if global != nil {
        _ = global.Sync()
    }
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
    if l == nil {
        return zap.NewNop()
    }
    return l
}

func parseLevel(level string) zapcore.Level {
    switch strings.ToLower(level) {
    case "debug":
        return zapcore.DebugLevel
    case "warn", "warning":
        return zapcore.WarnLevel
    case "error":
        return zapcore.ErrorLevel
    default:
        return zapcore.InfoLevel
    }
}
