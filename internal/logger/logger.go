// Package logger builds the process-wide zap logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// Options configures New. Zero values mean info level, console encoding and
// stdout.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

var (
	process     *Logger
	processOnce sync.Once
)

// Get returns the process logger. The first call fixes the options; later
// calls return the same instance whatever they pass.
func Get(opts Options) *Logger {
	processOnce.Do(func() {
		process = New(opts)
	})
	return process
}

// New builds a standalone logger.
func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	core := zapcore.NewCore(encoderFor(opts.Format), zapcore.Lock(zapcore.AddSync(out)), parseLevel(opts.Level))
	return &Logger{SugaredLogger: zap.New(core, zap.AddCaller()).Sugar().With("app", "laundrybot")}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// parseLevel is lenient: an unknown name means info.
func parseLevel(name string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoderFor(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	if strings.EqualFold(format, FormatJSON) {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}
