// Package logx configures the process-wide zerolog logger.
package logx

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = zerolog.Nop()
var startTime time.Time
var pid = os.Getpid()

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	// Level is the log level to use (e.g., "info", "debug").
	Level string
	// FileLogging enables logging to a rolling file next to the console.
	FileLogging bool
	// Directory specifies the directory for log files.
	Directory string
	// Filename is the name of the log file.
	Filename string
	// MaxSize is the maximum size (in MB) of a log file before it is rolled.
	MaxSize int
	// MaxBackups is the maximum number of rolled log files to keep.
	MaxBackups int
	// MaxAge is the maximum age (in days) to keep a log file.
	MaxAge int
	// Compress enables compression of rolled log files.
	Compress bool
}

// DefaultLoggingConfig returns console-only logging at info level.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:      "info",
		Directory:  ".",
		Filename:   "hostsampler.log",
		MaxSize:    50,
		MaxBackups: 3,
		MaxAge:     28,
	}
}

func newRollingFile(cfg *LoggingConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   path.Join(cfg.Directory, cfg.Filename),
		MaxBackups: cfg.MaxBackups, // files
		MaxSize:    cfg.MaxSize,    // megabytes
		MaxAge:     cfg.MaxAge,     // days
		Compress:   cfg.Compress,
	}
}

// Initialize installs a console logger, teed into a rolling file when
// FileLogging is set.
func Initialize(cfg *LoggingConfig) error {
	return InitializeWithWriter(cfg, os.Stdout)
}

// InitializeWithWriter is Initialize with an explicit console destination.
func InitializeWithWriter(cfg *LoggingConfig, out io.Writer) error {
	l, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(l)
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	console := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}

	writers := []io.Writer{console}
	if cfg.FileLogging {
		fileWriter := zerolog.New(newRollingFile(cfg)).With().Timestamp().Logger()
		writers = append(writers, fileWriter)
	}

	mw := zerolog.MultiLevelWriter(writers...)
	logger = zerolog.New(mw).With().
		Timestamp().
		Int("pid", pid).
		Logger()

	return nil
}

// As returns the process logger.
func As() *zerolog.Logger {
	return &logger
}

// StartTimer marks the start of the command for ExecutionTime.
func StartTimer() {
	startTime = time.Now()
}

func ExecutionTime() string {
	return time.Since(startTime).Round(time.Second).String()
}
