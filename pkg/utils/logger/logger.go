package logger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"judgegate/internal/common/logagg"
	"judgegate/pkg/utils/contextkey"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger builds per-tag zap loggers. Console output is written directly;
// file output goes through the aggregator so only one goroutine touches files.
type Logger struct {
	level   zapcore.Level
	console zapcore.Core
	fileEnc zapcore.Encoder
	agg     *logagg.Aggregator

	mu    sync.Mutex
	named map[string]*zap.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string                       `yaml:"level"`      // debug, info, warn, error
	Format     string                       `yaml:"format"`     // json, console
	FileFormat string                       `yaml:"fileFormat"` // json, console
	OutputPath string                       `yaml:"outputPath"` // "stdout", "stderr" or "off"
	QueueSize  int                          `yaml:"queueSize"`
	Files      map[string]logagg.FileConfig `yaml:"files"` // tag -> rotated file
}

// New creates the console core, the aggregator and one rotating file per tag,
// then starts the aggregator.
func New(cfg Config) (*Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	console, err := newConsoleCore(cfg, level)
	if err != nil {
		return nil, err
	}

	agg := logagg.New(logagg.Config{QueueSize: cfg.QueueSize}, zap.New(console))
	tags := make([]string, 0, len(cfg.Files))
	for tag := range cfg.Files {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		file, err := logagg.NewRotatingFile(cfg.Files[tag])
		if err != nil {
			return nil, fmt.Errorf("open %s log failed: %w", tag, err)
		}
		if err := agg.Register(tag, file); err != nil {
			return nil, err
		}
	}
	agg.Start()

	fileEncCfg := encoderConfig()
	var fileEnc zapcore.Encoder
	if cfg.FileFormat == "console" {
		fileEnc = zapcore.NewConsoleEncoder(fileEncCfg)
	} else {
		fileEnc = zapcore.NewJSONEncoder(fileEncCfg)
	}

	return &Logger{
		level:   level,
		console: console,
		fileEnc: fileEnc,
		agg:     agg,
		named:   make(map[string]*zap.Logger),
	}, nil
}

// NewConsole builds a console-only logger for one-shot tools. No aggregator
// is started and cfg.Files is ignored.
func NewConsole(cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	core, err := newConsoleCore(cfg, level)
	if err != nil {
		return nil, err
	}
	return zap.New(core, zap.AddCaller()), nil
}

func newConsoleCore(cfg Config, level zapcore.Level) (zapcore.Core, error) {
	encCfg := encoderConfig()
	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	switch cfg.OutputPath {
	case "", "stdout":
		return zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level), nil
	case "stderr":
		return zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level), nil
	case "off":
		return zapcore.NewNopCore(), nil
	default:
		return nil, fmt.Errorf("unsupported console output: %s", cfg.OutputPath)
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// customTimeEncoder formats time in RFC3339 format
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(time.RFC3339))
}

// For returns the logger writing to the file registered under tag.
// Loggers are cached per tag.
func (l *Logger) For(tag string) *zap.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	if z, ok := l.named[tag]; ok {
		return z
	}
	core := zapcore.NewTee(l.console, logagg.NewCore(l.agg, tag, l.fileEnc.Clone(), l.level))
	z := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	l.named[tag] = z
	return z
}

// Aggregator exposes the underlying aggregator.
func (l *Logger) Aggregator() *logagg.Aggregator {
	return l.agg
}

// Close flushes the console and stops the aggregator after it drained.
func (l *Logger) Close() error {
	l.agg.Stop()
	return l.console.Sync()
}

// WithContext returns log with the ids carried by ctx attached.
func WithContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	fields := extractFieldsFromContext(ctx)
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// extractFieldsFromContext extracts structured fields from context
func extractFieldsFromContext(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field

	if traceID := ctx.Value(contextkey.TraceID); traceID != nil {
		fields = append(fields, zap.String("trace_id", fmt.Sprint(traceID)))
	}
	if requestID := ctx.Value(contextkey.RequestID); requestID != nil {
		fields = append(fields, zap.String("request_id", fmt.Sprint(requestID)))
	}
	if subID := ctx.Value(contextkey.SubmissionID); subID != nil {
		fields = append(fields, zap.String("sub_id", fmt.Sprint(subID)))
	}

	return fields
}
