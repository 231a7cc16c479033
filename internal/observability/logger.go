// File: internal/observability/logger.go

// Package observability owns the process-wide zap logger. The console shows
// short status lines ("Navigating...", "Error navigating.") with only the fields
// a person reading along needs; the JSON format and the rotated log file keep
// every field, run and session IDs included.
package observability

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/dashverify/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	once         sync.Once
)

// statusFields are the only fields printed on console status lines.
var statusFields = map[string]bool{
	"script":  true,
	"step":    true,
	"url":     true,
	"path":    true,
	"elapsed": true,
	"error":   true,
}

// ansiColors maps the colour names accepted in logger.colors to terminal colours.
// Anything else is handed to lipgloss as is, so "#FF5555" or "208" also work.
var ansiColors = map[string]lipgloss.Color{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
}

// Initialize sets up the global logger, writing console output to consoleWriter.
// Only the first call has any effect until ResetForTest is called.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		level := zap.NewAtomicLevel()
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level.SetLevel(zap.InfoLevel)
		}

		var cores []zapcore.Core
		if cfg.Format == "json" {
			cores = append(cores, zapcore.NewCore(jsonEncoder(), consoleWriter, level))
		} else {
			cores = append(cores, newConsoleCore(cfg, consoleWriter, level))
		}

		if cfg.LogFile != "" {
			fileWriter := zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.LogFile,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   cfg.Compress,
			})
			cores = append(cores, zapcore.NewCore(jsonEncoder(), fileWriter, level))
		}

		options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
		if cfg.AddSource {
			options = append(options, zap.AddCaller())
		}

		logger := zap.New(zapcore.NewTee(cores...), options...)
		if cfg.ServiceName != "" {
			logger = logger.Named(cfg.ServiceName)
		}
		globalLogger.Store(logger)

		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger initializes the global logger with console output on a locked Stdout.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stdout))
}

// ResetForTest clears the global logger so tests can initialize it again.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}

// GetLogger returns the global logger. Before Initialize it returns a stderr
// console logger, so errors raised while parsing flags are still reported.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	return fallbackLogger()
}

var fallbackLogger = sync.OnceValue(func() *zap.Logger {
	cfg := config.NewDefaultConfig().Logger
	return zap.New(newConsoleCore(cfg, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(zap.InfoLevel)))
})

// Sync flushes any buffered log entries. Call it before exiting.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !ignorableSyncError(err) {
		fmt.Fprintln(os.Stderr, "dashverify: flushing logs:", err)
	}
}

// ignorableSyncError reports errors from fsync on terminals and pipes, which
// have nothing to flush.
func ignorableSyncError(err error) bool {
	return errors.Is(err, syscall.EINVAL) ||
		errors.Is(err, syscall.ENOTTY) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EBADF)
}

// -- Console status lines --

// statusCore trims entries down to status lines: no stack traces and only
// statusFields. It wraps the console core only.
type statusCore struct {
	zapcore.Core
}

func newConsoleCore(cfg config.LoggerConfig, w zapcore.WriteSyncer, level zapcore.LevelEnabler) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "ts",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel:      levelEncoder(lipgloss.NewRenderer(w), cfg.Colors),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       func(name string, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString("[" + name + "]") },
		ConsoleSeparator: " ",
	}
	return statusCore{zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), w, level)}
}

func (c statusCore) With(fields []zapcore.Field) zapcore.Core {
	return statusCore{c.Core.With(keepStatusFields(fields))}
}

func (c statusCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c statusCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Stack = ""
	return c.Core.Write(ent, keepStatusFields(fields))
}

func keepStatusFields(fields []zapcore.Field) []zapcore.Field {
	kept := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if statusFields[f.Key] {
			kept = append(kept, f)
		}
	}
	return kept
}

// levelEncoder renders the padded level name in its configured colour. The
// renderer is bound to the console writer, so colour only reaches terminals.
func levelEncoder(r *lipgloss.Renderer, colors config.ColorConfig) zapcore.LevelEncoder {
	styles := map[zapcore.Level]lipgloss.Style{
		zapcore.DebugLevel:  levelStyle(r, colors.Debug),
		zapcore.InfoLevel:   levelStyle(r, colors.Info),
		zapcore.WarnLevel:   levelStyle(r, colors.Warn),
		zapcore.ErrorLevel:  levelStyle(r, colors.Error),
		zapcore.DPanicLevel: levelStyle(r, colors.DPanic),
		zapcore.PanicLevel:  levelStyle(r, colors.Panic),
		zapcore.FatalLevel:  levelStyle(r, colors.Fatal),
	}
	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		label := fmt.Sprintf("%-5s", level.CapitalString())
		if style, ok := styles[level]; ok {
			label = style.Render(label)
		}
		enc.AppendString(label)
	}
}

func levelStyle(r *lipgloss.Renderer, name string) lipgloss.Style {
	style := r.NewStyle()
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return style
	}
	color, ok := ansiColors[name]
	if !ok {
		color = lipgloss.Color(name)
	}
	return style.Foreground(color)
}

func jsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}
