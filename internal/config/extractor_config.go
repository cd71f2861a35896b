package config

// ExtractorConfig defines configuration for reference extraction
type ExtractorConfig struct {
	// CustomPatterns are scanned after the built-in reference patterns.
	// Capture group 1 is used as the reference when present.
	CustomPatterns []string `json:"custom_patterns,omitempty" yaml:"custom_patterns,omitempty" validate:"dive,regexp"`
	EnableJSluice  bool     `json:"enable_jsluice" yaml:"enable_jsluice"`
	MaxBodyBytes   int64    `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty" validate:"min=0"`
}

// NewDefaultExtractorConfig creates default extractor configuration
func NewDefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		CustomPatterns: []string{},
		EnableJSluice:  DefaultExtractorEnableJSluice,
		MaxBodyBytes:   DefaultExtractorMaxBodyBytes,
	}
}
