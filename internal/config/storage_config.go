package config

// StorageConfig selects where the collected set is persisted between sessions.
type StorageConfig struct {
	Backend    string `json:"backend,omitempty" yaml:"backend,omitempty" validate:"required,storagebackend"`
	FilePath   string `json:"file_path,omitempty" yaml:"file_path,omitempty" validate:"required_if=Backend file"`
	SQLitePath string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" validate:"required_if=Backend sqlite"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:    DefaultStorageBackend,
		FilePath:   DefaultStorageFilePath,
		SQLitePath: DefaultStorageSQLitePath,
	}
}
