// Package logging provides the program's leveled logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"playlistdl/internal/domain/consts"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging setup values.
type Config struct {
	LogFilePath string
	MaxSizeMB   int
	MaxBackups  int
	Console     io.Writer
	Program     string
	Level       int
}

var (
	// Level is the debug verbosity (0 - 5). D calls above this level are dropped.
	Level int

	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	fileSink io.Closer
)

// SetupLogging configures the console writer and the rotating log file.
func SetupLogging(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.TimeOnly,
		NoColor:    console != os.Stdout,
	}}

	if cfg.LogFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), consts.PermsGenericDir); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 1
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFilePath,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, lj)
		fileSink = lj
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if cfg.Program != "" {
		ctx = ctx.Str("program", cfg.Program)
	}
	logger = ctx.Logger()
	Level = cfg.Level
	return nil
}

// Close flushes and closes the log file, if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if fileSink == nil {
		return nil
	}
	err := fileSink.Close()
	fileSink = nil
	return err
}

// E logs an error with the calling function, file and line.
func E(format string, args ...any) {
	pc, file, line, _ := runtime.Caller(1)
	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = filepath.Base(fn.Name())
	}

	mu.RLock()
	defer mu.RUnlock()
	logger.Error().
		Str("func", funcName).
		Str("file", filepath.Base(file)).
		Int("line", line).
		Msg(sprintf(format, args...))
}

// W logs a warning.
func W(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Warn().Msg(sprintf(format, args...))
}

// I logs general information.
func I(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info().Msg(sprintf(format, args...))
}

// S logs a success message.
func S(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info().Bool("success", true).Msg(sprintf(format, args...))
}

// D logs debug output if l is within the configured verbosity.
func D(l int, format string, args ...any) {
	if l > Level {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	logger.Debug().Int("lvl", l).Msg(sprintf(format, args...))
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
