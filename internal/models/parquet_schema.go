package models

// ParquetJSURLRecord is one exported JavaScript URL.
type ParquetJSURLRecord struct {
	URL             string  `parquet:"url"`
	Host            string  `parquet:"host"`
	Path            string  `parquet:"path"`
	Extension       string  `parquet:"extension"`
	Query           *string `parquet:"query,optional"`
	ExportTimestamp int64   `parquet:"export_timestamp"` // unix millis
}
