// Package log provides structured, colored logging for the ledger.
package log

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	Chain   zerolog.Logger
	Storage zerolog.Logger
	Miner   zerolog.Logger
	Sim     zerolog.Logger
)

// Rotation controls size-based rotation of the log file.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation is used by Init.
var DefaultRotation = Rotation{
	MaxSizeMB:  100,
	MaxBackups: 5,
	MaxAgeDays: 28,
}

var (
	fileMu     sync.Mutex
	fileWriter *lumberjack.Logger
)

func init() {
	Logger = NewConsoleLogger(os.Stdout, "info")
	initComponentLoggers()
}

// Init initializes the logger with the given configuration.
// When file is non-empty, logs are written to both the console (colored or
// JSON depending on jsonOutput) and the rotating file (always JSON).
func Init(level string, jsonOutput bool, file string) error {
	return InitWithRotation(level, jsonOutput, file, DefaultRotation)
}

// InitWithRotation is Init with explicit file rotation limits.
func InitWithRotation(level string, jsonOutput bool, file string, rot Rotation) error {
	if err := Close(); err != nil {
		return err
	}

	var console io.Writer = os.Stdout
	if !jsonOutput {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	if file == "" {
		Logger = newLogger(console, level)
		initComponentLoggers()
		return nil
	}

	lj := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
	}
	// Fail early on an unwritable path instead of on the first log line.
	if _, err := lj.Write(nil); err != nil {
		return err
	}

	fileMu.Lock()
	fileWriter = lj
	fileMu.Unlock()

	Logger = newLogger(zerolog.MultiLevelWriter(console, lj), level)
	initComponentLoggers()
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	fileMu.Lock()
	defer fileMu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}, level)
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel converts a level name to zerolog.Level. Unknown names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether level names a supported level.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

func initComponentLoggers() {
	Chain = WithComponent("chain")
	Storage = WithComponent("storage")
	Miner = WithComponent("miner")
	Sim = WithComponent("sim")
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// Benchmark returns a func that logs the time elapsed since the call to l
// at debug level. Use it as `defer log.Benchmark(log.Chain, "x")()`.
func Benchmark(l zerolog.Logger, name string) func() {
	start := time.Now()
	return func() {
		l.Debug().
			Str("operation", name).
			Dur("duration", time.Since(start)).
			Msg("benchmark")
	}
}
