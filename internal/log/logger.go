// Package log provides structured logging for the emulator using zap.
package log

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with emulator-specific helpers and an optional
// trace callback invoked by Step.
type Logger struct {
	*zap.Logger
	onTrace func(pc uint32, mnemonic, detail string)
}

var (
	// L is the global logger instance.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger with the given configuration.
// Safe to call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a new Logger instance tagged with a fresh run id so log
// lines from concurrent runs (e.g. under test) can be told apart.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	// Shorter timestamps in both configurations
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fallback to no-op if config fails
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// SetOnTrace sets the callback that Step invokes.
func (l *Logger) SetOnTrace(fn func(pc uint32, mnemonic, detail string)) {
	l.onTrace = fn
}

// Step logs one CPU step at debug level and feeds the trace callback, if
// one is set. The machine's run loop does not call it; --trace records
// into a trace.Collector directly.
func (l *Logger) Step(pc uint32, mnemonic, detail string) {
	if l.onTrace != nil {
		l.onTrace(pc, mnemonic, detail)
	}
	l.Debug("step",
		zap.String("mnemonic", mnemonic),
		zap.String("detail", detail),
		Addr(pc),
	)
}

// Trap logs a CPU-detected trap.
func (l *Logger) Trap(pc uint32, kind string, value uint32) {
	l.Warn("trap",
		zap.String("kind", kind),
		Addr(pc),
		Ptr("value", value),
	)
}

// Syscall logs a dispatched ECALL.
func (l *Logger) Syscall(pc uint32, num uint32, name string, result uint32) {
	l.Debug("syscall",
		zap.Uint32("num", num),
		zap.String("name", name),
		Addr(pc),
		Ptr("result", result),
	)
}

// WithCategory returns a logger with the category field preset.
func (l *Logger) WithCategory(category string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(zap.String("cat", category)),
		onTrace: l.onTrace,
	}
}

// Hex formats a uint32 as a hex string for logging.
func Hex(addr uint32) string {
	return "0x" + hexString(uint64(addr))
}

func hexString(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 16)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// Field helpers for common patterns.

// Addr creates a PC address field.
func Addr(addr uint32) zap.Field {
	return zap.String("pc", Hex(addr))
}

// Size creates a size field.
func Size(size uint32) zap.Field {
	return zap.Uint32("size", size)
}

// Ptr creates a hex-formatted value field.
func Ptr(name string, v uint32) zap.Field {
	return zap.String(name, Hex(v))
}
