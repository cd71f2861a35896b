package config

// NotificationConfig defines where collection changes are reported besides the log.
type NotificationConfig struct {
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	MinIntervalSecs   int    `json:"min_interval_secs,omitempty" yaml:"min_interval_secs,omitempty" validate:"min=0"`
	RecentURLCount    int    `json:"recent_url_count,omitempty" yaml:"recent_url_count,omitempty" validate:"min=0"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		DiscordWebhookURL: "",
		MinIntervalSecs:   DefaultNotificationMinIntervalSecs,
		RecentURLCount:    DefaultNotificationRecentURLCount,
	}
}
