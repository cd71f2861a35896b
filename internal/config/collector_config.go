package config

// CollectorConfig defines the collection store policy.
type CollectorConfig struct {
	CDNFilterEnabled bool     `json:"cdn_filter_enabled" yaml:"cdn_filter_enabled"`
	CDNPatterns      []string `json:"cdn_patterns,omitempty" yaml:"cdn_patterns,omitempty" validate:"dive,required"`
	SettingKey       string   `json:"setting_key,omitempty" yaml:"setting_key,omitempty" validate:"required"`
}

func NewDefaultCollectorConfig() CollectorConfig {
	patterns := make([]string, len(DefaultCDNPatterns))
	copy(patterns, DefaultCDNPatterns)
	return CollectorConfig{
		CDNFilterEnabled: DefaultCollectorCDNFilterEnabled,
		CDNPatterns:      patterns,
		SettingKey:       DefaultCollectorSettingKey,
	}
}
