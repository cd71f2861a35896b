package logger

import (
	"github.com/aleister1102/jscollector/internal/config"

	"github.com/rs/zerolog"
)

// New builds the application logger from the log section of the config.
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	return NewLoggerBuilder().WithConfig(cfg).Build()
}
