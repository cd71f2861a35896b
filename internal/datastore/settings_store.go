package datastore

import (
	"strings"
	"sync"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/config"

	"github.com/rs/zerolog"
)

// SettingsStore persists string settings by key. Loading an absent key
// returns an empty value and no error.
type SettingsStore interface {
	SaveSetting(key, value string) error
	LoadSetting(key string) (string, error)
	Close() error
}

// NewSettingsStore opens the backend selected in cfg.
func NewSettingsStore(cfg config.StorageConfig, logger zerolog.Logger) (SettingsStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "sqlite":
		store, err := NewSQLiteSettingsStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		store, err := NewFileSettingsStore(cfg.FilePath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return NewMemorySettingsStore(), nil
	default:
		return nil, common.NewValidationError("backend", cfg.Backend, "unsupported storage backend")
	}
}

// MemorySettingsStore keeps settings for the lifetime of the process only.
type MemorySettingsStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{values: make(map[string]string)}
}

func (ms *MemorySettingsStore) SaveSetting(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.values[key] = value
	return nil
}

func (ms *MemorySettingsStore) LoadSetting(key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.values[key], nil
}

func (ms *MemorySettingsStore) Close() error {
	return nil
}
