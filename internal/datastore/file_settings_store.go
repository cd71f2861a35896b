package datastore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aleister1102/jscollector/internal/common"

	"github.com/rs/zerolog"
)

var errCorruptSettings = errors.New("settings file is corrupt")

// FileSettingsStore keeps settings as a JSON object in a single file.
// Writes go to a temporary file that is renamed over the original.
type FileSettingsStore struct {
	path   string
	logger zerolog.Logger
	mu     sync.Mutex
}

func NewFileSettingsStore(path string, logger zerolog.Logger) (*FileSettingsStore, error) {
	if path == "" {
		return nil, common.NewValidationError("file_path", path, "settings file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create settings directory for '%s'", path)
	}
	return &FileSettingsStore{
		path:   path,
		logger: logger.With().Str("component", "FileSettingsStore").Logger(),
	}, nil
}

func (fs *FileSettingsStore) SaveSetting(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.readAll()
	if errors.Is(err, errCorruptSettings) {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("Replacing corrupt settings file")
		values = make(map[string]string)
	} else if err != nil {
		return err
	}
	values[key] = value

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return common.WrapError(err, "failed to marshal settings")
	}

	tmp, err := os.CreateTemp(filepath.Dir(fs.path), filepath.Base(fs.path)+".*.tmp")
	if err != nil {
		return common.WrapError(err, "failed to create temporary settings file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return common.WrapError(err, "failed to write temporary settings file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return common.WrapError(err, "failed to close temporary settings file")
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		_ = os.Remove(tmpName)
		return common.WrapErrorf(err, "failed to replace settings file '%s'", fs.path)
	}
	return nil
}

func (fs *FileSettingsStore) LoadSetting(key string) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	values, err := fs.readAll()
	if err != nil {
		return "", err
	}
	return values[key], nil
}

func (fs *FileSettingsStore) Close() error {
	return nil
}

func (fs *FileSettingsStore) readAll() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to read settings file '%s'", fs.path)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: '%s': %w", errCorruptSettings, fs.path, err)
	}
	return values, nil
}
