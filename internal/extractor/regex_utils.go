package extractor

import (
	"regexp"

	"github.com/rs/zerolog"
)

// CompileRegexes compiles patterns, logging and skipping any that are invalid.
func CompileRegexes(patterns []string, logger zerolog.Logger) []*regexp.Regexp {
	var compiledRegexes []*regexp.Regexp
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if re, err := regexp.Compile(pattern); err == nil {
			compiledRegexes = append(compiledRegexes, re)
		} else {
			logger.Warn().
				Str("pattern", pattern).
				Err(err).
				Msg("Failed to compile regex, skipping")
		}
	}
	return compiledRegexes
}
