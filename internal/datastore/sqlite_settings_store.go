package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteSettingsStore keeps settings in a single key/value table.
type SQLiteSettingsStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteSettingsStore opens (or creates) the database at dataSourceName and
// ensures the schema exists.
func NewSQLiteSettingsStore(dataSourceName string, logger zerolog.Logger) (*SQLiteSettingsStore, error) {
	storeLogger := logger.With().Str("component", "SQLiteSettingsStore").Logger()
	storeLogger.Debug().Str("db_path", dataSourceName).Msg("Opening settings database")

	if dbDir := filepath.Dir(dataSourceName); dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create settings database directory %s: %w", dbDir, err)
		}
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// One connection serialises writers and avoids SQLITE_BUSY between them.
	dbInstance.SetMaxOpenConns(1)

	store := &SQLiteSettingsStore{
		db:     dbInstance,
		logger: storeLogger,
	}

	if err := store.initSchema(); err != nil {
		_ = dbInstance.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteSettingsStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize settings schema")
		return err
	}
	return nil
}

// SaveSetting upserts value under key.
func (s *SQLiteSettingsStore) SaveSetting(key, value string) error {
	query := `
	INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
	`
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	return nil
}

// LoadSetting returns the stored value for key, or "" when it was never saved.
func (s *SQLiteSettingsStore) LoadSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load setting %q: %w", key, err)
	}
	return value, nil
}

// Close closes the database connection.
func (s *SQLiteSettingsStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
