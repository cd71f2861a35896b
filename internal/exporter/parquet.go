package exporter

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/models"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const parquetExtension = ".parquet"

// ParquetExporter archives collected URLs as a Parquet file, one row per URL.
type ParquetExporter struct {
	logger          zerolog.Logger
	compressionType string
	now             func() time.Time
}

func NewParquetExporter(logger zerolog.Logger) *ParquetExporter {
	return &ParquetExporter{
		logger:          logger.With().Str("component", "ParquetExporter").Logger(),
		compressionType: "zstd",
		now:             time.Now,
	}
}

// WithCompression selects gzip, snappy or zstd. Unknown names fall back to zstd.
func (pe *ParquetExporter) WithCompression(compressionType string) *ParquetExporter {
	pe.compressionType = compressionType
	return pe
}

// ParquetFilePath swaps a .txt suffix for .parquet, or appends .parquet.
func ParquetFilePath(filePath string) string {
	filePath = strings.TrimSuffix(TextFilePath(filePath), textExtension)
	return filePath + parquetExtension
}

// Export writes urls to a Parquet file and returns the path written.
func (pe *ParquetExporter) Export(ctx context.Context, filePath string, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNothingToExport
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	outputPath := ParquetFilePath(filePath)
	if err := ensureParentDir(outputPath); err != nil {
		return "", err
	}

	exportTime := pe.now()
	records := make([]models.ParquetJSURLRecord, 0, len(urls))
	for _, u := range urls {
		records = append(records, ToParquetRecord(u, exportTime))
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return "", common.WrapError(err, "failed to create parquet file: "+outputPath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[models.ParquetJSURLRecord](file, pe.getCompressionOption())
	written, err := writer.Write(records)
	if err != nil {
		_ = writer.Close()
		return "", common.WrapError(err, "failed to write parquet records")
	}
	if err := writer.Close(); err != nil {
		return "", common.WrapError(err, "failed to finalize parquet file")
	}

	pe.logger.Info().
		Str("file_path", outputPath).
		Int("records_written", written).
		Msg("Exported JS URLs to Parquet file")
	return outputPath, nil
}

func (pe *ParquetExporter) getCompressionOption() parquet.WriterOption {
	switch pe.compressionType {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

// ToParquetRecord splits rawURL into the archived columns. Unparseable URLs
// keep only the URL column.
func ToParquetRecord(rawURL string, exportTime time.Time) models.ParquetJSURLRecord {
	record := models.ParquetJSURLRecord{
		URL:             rawURL,
		ExportTimestamp: exportTime.UnixMilli(),
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return record
	}
	record.Host = parsed.Host
	record.Path = parsed.Path
	record.Extension = strings.ToLower(path.Ext(parsed.Path))
	if parsed.RawQuery != "" {
		query := parsed.RawQuery
		record.Query = &query
	}
	return record
}

// ReadParquet loads every record from a file written by Export.
func ReadParquet(filePath string) ([]models.ParquetJSURLRecord, error) {
	records, err := parquet.ReadFile[models.ParquetJSURLRecord](filepath.Clean(filePath))
	if err != nil {
		return nil, common.WrapError(err, "failed to read parquet file: "+filePath)
	}
	return records, nil
}
