package scope

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/config"

	"github.com/rs/zerolog"
)

// ScopeSettings decides which URLs belong to the engagement.
type ScopeSettings struct {
	allowedHostnames       []string
	disallowedHostnames    []string
	includeSubdomains      bool
	allowedPathPatterns    []*regexp.Regexp
	disallowedPathPatterns []*regexp.Regexp
	logger                 zerolog.Logger
}

// String returns a string representation of ScopeSettings for logging
func (s *ScopeSettings) String() string {
	return fmt.Sprintf("ScopeSettings{allowed_hostnames:%v, disallowed_hostnames:%v, include_subdomains:%t, allowed_paths:%d, disallowed_paths:%d}",
		s.allowedHostnames,
		s.disallowedHostnames,
		s.includeSubdomains,
		len(s.allowedPathPatterns),
		len(s.disallowedPathPatterns),
	)
}

// NewScopeSettings builds scope rules from cfg. Invalid path regexes are
// logged and skipped.
func NewScopeSettings(cfg config.ScopeConfig, logger zerolog.Logger) *ScopeSettings {
	scopeLogger := logger.With().Str("component", "ScopeSettings").Logger()

	s := &ScopeSettings{
		allowedHostnames:    normalizeHostnames(cfg.AllowedHostnames),
		disallowedHostnames: normalizeHostnames(cfg.DisallowedHostnames),
		includeSubdomains:   cfg.IncludeSubdomains,
		logger:              scopeLogger,
	}
	s.allowedPathPatterns = s.compilePatterns(cfg.AllowedPathRegexes)
	s.disallowedPathPatterns = s.compilePatterns(cfg.DisallowedPathRegexes)

	scopeLogger.Debug().Str("settings", s.String()).Msg("Scope settings initialized")
	return s
}

// IsURLAllowed reports whether rawURL is in scope. Relative or host-less
// URLs are rejected with a ValidationError.
func (s *ScopeSettings) IsURLAllowed(rawURL string) (bool, error) {
	if strings.TrimSpace(rawURL) == "" {
		return false, common.NewValidationError("url", rawURL, "URL string is empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return false, common.WrapError(err, fmt.Sprintf("could not parse URL '%s'", rawURL))
	}
	if !parsedURL.IsAbs() {
		return false, common.NewValidationError("url", rawURL, "URL is not absolute")
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return false, common.NewValidationError("url", rawURL, "URL has no hostname component")
	}

	if !s.CheckHostnameScope(hostname) {
		return false, nil
	}

	path := parsedURL.Path
	if path == "" {
		path = "/"
	}
	return s.checkPathScope(path), nil
}

// CheckHostnameScope applies the hostname rules. Disallowed hostnames win;
// an empty allowlist admits every other host.
func (s *ScopeSettings) CheckHostnameScope(hostname string) bool {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if host == "" {
		return false
	}

	for _, disallowed := range s.disallowedHostnames {
		if s.hostMatches(host, disallowed) {
			return false
		}
	}

	if len(s.allowedHostnames) == 0 {
		return true
	}

	return slices.ContainsFunc(s.allowedHostnames, func(allowed string) bool {
		return s.hostMatches(host, allowed)
	})
}

func (s *ScopeSettings) hostMatches(host, rule string) bool {
	if host == rule {
		return true
	}
	return s.includeSubdomains && strings.HasSuffix(host, "."+rule)
}

func (s *ScopeSettings) checkPathScope(path string) bool {
	for _, re := range s.disallowedPathPatterns {
		if re.MatchString(path) {
			return false
		}
	}

	if len(s.allowedPathPatterns) == 0 {
		return true
	}

	for _, re := range s.allowedPathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (s *ScopeSettings) compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			s.logger.Error().Err(err).Str("regex_pattern", pattern).Msg("Failed to compile regex. Skipping pattern.")
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

func normalizeHostnames(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		if host := strings.ToLower(strings.TrimSpace(item)); host != "" {
			normalized = append(normalized, host)
		}
	}
	return normalized
}
