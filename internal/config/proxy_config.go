package config

// ProxyConfig configures the passive forward proxy feed.
type ProxyConfig struct {
	ListenAddress       string `json:"listen_address,omitempty" yaml:"listen_address,omitempty" validate:"omitempty,hostname_port"`
	MaxBodyBytes        int64  `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty" validate:"min=0"`
	UpstreamTimeoutSecs int    `json:"upstream_timeout_secs,omitempty" yaml:"upstream_timeout_secs,omitempty" validate:"omitempty,min=1"`
}

func NewDefaultProxyConfig() ProxyConfig {
	return ProxyConfig{
		ListenAddress:       DefaultProxyListenAddress,
		MaxBodyBytes:        DefaultProxyMaxBodyBytes,
		UpstreamTimeoutSecs: DefaultProxyUpstreamTimeoutSecs,
	}
}
