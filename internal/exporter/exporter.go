package exporter

import (
	"context"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/config"

	"github.com/rs/zerolog"
)

// Export writes urls in the format named by cfg and returns the path written.
func Export(ctx context.Context, cfg config.ExportConfig, urls []string, logger zerolog.Logger) (string, error) {
	switch cfg.Format {
	case "", "txt":
		return ExportToFile(cfg.OutputPath, urls)
	case "parquet":
		return NewParquetExporter(logger).Export(ctx, cfg.OutputPath, urls)
	default:
		return "", common.NewValidationError("export.format", cfg.Format, "unsupported export format")
	}
}
