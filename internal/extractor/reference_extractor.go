package extractor

import (
	"errors"
	"iter"
	"regexp"

	"github.com/aleister1102/jscollector/internal/config"

	"github.com/rs/zerolog"
)

const jsExtensionPattern = `\.(?:js|jsx|mjs|ts)`

// Reference syntaxes scanned in every body, in scan order. Capture group 1
// holds the reference. The extension may appear anywhere inside it.
var builtinReferencePatterns = []string{
	// <script src="...">
	`(?i)<script[^>]+src=["']([^"']*?` + jsExtensionPattern + `[^"']*)["']`,
	// import x from "..."
	`(?i)import\s+.*?from\s+["']([^"']+` + jsExtensionPattern + `[^"']*)["']`,
	// require("...")
	`(?i)require\(["']([^"']+` + jsExtensionPattern + `[^"']*)["']`,
	// href="..."
	`(?i)href=["']([^"']*?` + jsExtensionPattern + `[^"']*)["']`,
	// url(...)
	`(?i)url\(["']?([^"'()]+` + jsExtensionPattern + `[^"'()]*)["']?\)`,
}

var compiledBuiltinPatterns = compileBuiltinPatterns()

func compileBuiltinPatterns() []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(builtinReferencePatterns))
	for i, pattern := range builtinReferencePatterns {
		compiled[i] = regexp.MustCompile(pattern)
	}
	return compiled
}

// ReferenceExtractor finds candidate JavaScript references in response bodies.
// It is safe for concurrent use.
type ReferenceExtractor struct {
	logger       zerolog.Logger
	patterns     []*regexp.Regexp
	maxBodyBytes int64
	jsluice      *JSluiceAnalyzer
}

// NewReferenceExtractor builds an extractor from the built-in patterns plus any
// custom patterns in cfg. Custom patterns that fail to compile are skipped.
func NewReferenceExtractor(cfg config.ExtractorConfig, logger zerolog.Logger) *ReferenceExtractor {
	extractorLogger := logger.With().Str("component", "ReferenceExtractor").Logger()

	patterns := make([]*regexp.Regexp, 0, len(compiledBuiltinPatterns)+len(cfg.CustomPatterns))
	patterns = append(patterns, compiledBuiltinPatterns...)
	patterns = append(patterns, CompileRegexes(cfg.CustomPatterns, extractorLogger)...)

	re := &ReferenceExtractor{
		logger:       extractorLogger,
		patterns:     patterns,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if cfg.EnableJSluice {
		re.jsluice = NewJSluiceAnalyzer(extractorLogger)
	}
	return re
}

// ExtractReferences returns the raw reference strings found in body. Results
// follow pattern order, then match order; duplicates are kept. The sequence is
// lazy and may be ranged over more than once.
func (re *ReferenceExtractor) ExtractReferences(body []byte, encodingHint string) iter.Seq[string] {
	return func(yield func(string) bool) {
		text := re.decode(body, encodingHint)
		if text == "" {
			return
		}

		for _, pattern := range re.patterns {
			for _, match := range pattern.FindAllStringSubmatch(text, -1) {
				reference := match[0]
				if len(match) > 1 {
					reference = match[1]
				}
				if reference == "" {
					continue
				}
				if !yield(reference) {
					return
				}
			}
		}
	}
}

// ExtractScriptReferences runs jsluice over a JavaScript body. It yields
// nothing unless jsluice analysis is enabled.
func (re *ReferenceExtractor) ExtractScriptReferences(body []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		if re.jsluice == nil || len(body) == 0 {
			return
		}
		for reference := range re.jsluice.AnalyzeJavaScript(re.truncate(body)) {
			if !yield(reference) {
				return
			}
		}
	}
}

// JSluiceEnabled reports whether ExtractScriptReferences does any work.
func (re *ReferenceExtractor) JSluiceEnabled() bool {
	return re.jsluice != nil
}

func (re *ReferenceExtractor) decode(body []byte, encodingHint string) string {
	if len(body) == 0 {
		return ""
	}

	text, err := DecodeBody(re.truncate(body), encodingHint)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			re.logger.Debug().Str("charset", decodeErr.Charset).Str("fallback", decodeErr.Fallback).Msg("Body decoded with fallback")
		}
	}
	return text
}

func (re *ReferenceExtractor) truncate(body []byte) []byte {
	if re.maxBodyBytes > 0 && int64(len(body)) > re.maxBodyBytes {
		re.logger.Debug().Int("body_size", len(body)).Int64("max_body_bytes", re.maxBodyBytes).Msg("Body truncated before scanning")
		return body[:re.maxBodyBytes]
	}
	return body
}
