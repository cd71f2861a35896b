package config

const (
	// Collector Defaults
	DefaultCollectorSettingKey       = "js_urls"
	DefaultCollectorCDNFilterEnabled = false

	// Extractor Defaults
	DefaultExtractorMaxBodyBytes  = 10 * 1024 * 1024 // 10MB
	DefaultExtractorEnableJSluice = false

	// Storage Defaults
	DefaultStorageBackend    = "sqlite"
	DefaultStorageSQLitePath = "database/jscollector.db"
	DefaultStorageFilePath   = "database/jscollector_settings.json"

	// Export Defaults
	DefaultExportOutputPath = "js_files.txt"
	DefaultExportFormat     = "txt"

	// Notification Defaults
	DefaultNotificationMinIntervalSecs = 30
	DefaultNotificationRecentURLCount  = 10

	// Proxy Defaults
	DefaultProxyListenAddress       = "127.0.0.1:8081"
	DefaultProxyUpstreamTimeoutSecs = 30
	DefaultProxyMaxBodyBytes        = 10 * 1024 * 1024 // 10MB

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// ConfigPathEnvVar overrides the default config lookup.
	ConfigPathEnvVar = "JSCOLLECTOR_CONFIG_PATH"
)

// DefaultCDNPatterns lists third-party library hosts that the CDN filter excludes.
var DefaultCDNPatterns = []string{
	"jquery.com",
	"googleapis.com",
	"cloudflare.com",
	"jsdelivr.net",
	"unpkg.com",
	"cdnjs.cloudflare.com",
	"bootstrapcdn.com",
	"fontawesome.com",
	"polyfill.io",
}
