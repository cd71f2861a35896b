package exporter

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/config"
)

// ErrNothingToExport is returned when the URL list is empty.
var ErrNothingToExport = errors.New("no JavaScript URLs to export")

const textExtension = ".txt"

// WriteText writes one URL per line, each terminated by a newline.
func WriteText(w io.Writer, urls []string) error {
	bw := bufio.NewWriter(w)
	for _, u := range urls {
		if _, err := bw.WriteString(u); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// TextFilePath returns the path a text export of path is written to.
// An empty path becomes the default file name; a missing .txt suffix is added.
func TextFilePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = config.DefaultExportOutputPath
	}
	if !strings.HasSuffix(strings.ToLower(path), textExtension) {
		path += textExtension
	}
	return path
}

// ExportToFile writes urls to a text file and returns the path written.
func ExportToFile(path string, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNothingToExport
	}

	filePath := TextFilePath(path)
	if err := ensureParentDir(filePath); err != nil {
		return "", err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", common.WrapError(err, "failed to create export file: "+filePath)
	}

	if err := WriteText(file, urls); err != nil {
		_ = file.Close()
		return "", common.WrapError(err, "failed to write export file: "+filePath)
	}
	if err := file.Close(); err != nil {
		return "", common.WrapError(err, "failed to close export file: "+filePath)
	}
	return filePath, nil
}

// ClipboardText joins urls with newlines, without a trailing newline.
func ClipboardText(urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNothingToExport
	}
	return strings.Join(urls, "\n"), nil
}

func ensureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return common.WrapError(err, "failed to create export directory: "+dir)
	}
	return nil
}
