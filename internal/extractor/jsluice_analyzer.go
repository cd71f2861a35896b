package extractor

import (
	"iter"

	"github.com/BishopFox/jsluice"
	"github.com/rs/zerolog"
)

// JSluiceAnalyzer finds URL-like strings in JavaScript source using jsluice's
// syntax tree queries. It catches references the pattern scan cannot, such as
// dynamic import() calls and string concatenations.
type JSluiceAnalyzer struct {
	logger zerolog.Logger
}

// NewJSluiceAnalyzer creates a new jsluice analyzer
func NewJSluiceAnalyzer(logger zerolog.Logger) *JSluiceAnalyzer {
	return &JSluiceAnalyzer{
		logger: logger.With().Str("component", "JSluiceAnalyzer").Logger(),
	}
}

// AnalyzeJavaScript yields the raw URL of every jsluice match in content.
func (jsa *JSluiceAnalyzer) AnalyzeJavaScript(content []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		analyzer := jsluice.NewAnalyzer(content)
		results := analyzer.GetURLs()

		jsa.logger.Debug().Int("jsluice_url_count", len(results)).Msg("Jsluice analysis completed")

		for _, result := range results {
			if result == nil || result.URL == "" {
				continue
			}
			if !yield(result.URL) {
				return
			}
		}
	}
}
