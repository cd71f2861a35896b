package logger

import (
	"io"
	stdlog "log"
	"os"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/config"

	"github.com/rs/zerolog"
)

// fileOutput describes the rotated log file, when one is configured.
type fileOutput struct {
	path       string
	maxSizeMB  int
	maxBackups int
}

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	level         zerolog.Level
	format        LogFormat
	file          *fileOutput
	factory       *WriterFactory
	consoleOutput io.Writer
	err           error
}

// NewLoggerBuilder creates a builder that logs at info level to stderr.
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		level:         zerolog.InfoLevel,
		format:        FormatConsole,
		factory:       NewWriterFactory(),
		consoleOutput: os.Stderr,
	}
}

// WithConfig applies the application log section. An unknown level is
// reported by Build.
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	level, err := ParseLevel(cfg.LogLevel)
	if err != nil {
		lb.err = err
	}
	lb.level = level
	lb.format = ParseFormat(cfg.LogFormat)

	lb.file = nil
	if cfg.LogFile != "" {
		lb.file = &fileOutput{
			path:       cfg.LogFile,
			maxSizeMB:  config.DefaultMaxLogSizeMB,
			maxBackups: config.DefaultMaxLogBackups,
		}
		if cfg.MaxLogSizeMB > 0 {
			lb.file.maxSizeMB = cfg.MaxLogSizeMB
		}
		if cfg.MaxLogBackups > 0 {
			lb.file.maxBackups = cfg.MaxLogBackups
		}
	}
	return lb
}

// WithConsoleOutput redirects console logging, mainly for tests. A nil
// writer disables the console.
func (lb *LoggerBuilder) WithConsoleOutput(w io.Writer) *LoggerBuilder {
	lb.consoleOutput = w
	return lb
}

// Build creates the logger and installs it as the output of the standard log package.
func (lb *LoggerBuilder) Build() (zerolog.Logger, error) {
	if lb.err != nil {
		return zerolog.Nop(), lb.err
	}

	var writers []io.Writer
	if lb.consoleOutput != nil {
		writers = append(writers, lb.factory.CreateConsoleWriter(lb.format, lb.consoleOutput))
	}
	if lb.file != nil {
		fileWriter, err := lb.factory.CreateFileWriter(lb.format, *lb.file)
		if err != nil {
			return zerolog.Nop(), common.WrapErrorf(err, "failed to open log file '%s'", lb.file.path)
		}
		writers = append(writers, fileWriter)
	}
	if len(writers) == 0 {
		return zerolog.Nop(), common.NewError("no output writers configured")
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lb.level).
		With().
		Timestamp().
		Logger()

	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}
