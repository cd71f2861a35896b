package config

// ScopeConfig defines which hosts and paths belong to the engagement.
// An empty config puts everything in scope.
type ScopeConfig struct {
	AllowedHostnames      []string `json:"allowed_hostnames,omitempty" yaml:"allowed_hostnames,omitempty"`
	DisallowedHostnames   []string `json:"disallowed_hostnames,omitempty" yaml:"disallowed_hostnames,omitempty"`
	IncludeSubdomains     bool     `json:"include_subdomains" yaml:"include_subdomains"`
	AllowedPathRegexes    []string `json:"allowed_path_regexes,omitempty" yaml:"allowed_path_regexes,omitempty" validate:"dive,regexp"`
	DisallowedPathRegexes []string `json:"disallowed_path_regexes,omitempty" yaml:"disallowed_path_regexes,omitempty" validate:"dive,regexp"`
}

func NewDefaultScopeConfig() ScopeConfig {
	return ScopeConfig{
		AllowedHostnames:      []string{},
		DisallowedHostnames:   []string{},
		IncludeSubdomains:     true,
		AllowedPathRegexes:    []string{},
		DisallowedPathRegexes: []string{},
	}
}
