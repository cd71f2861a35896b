package processor

import (
	"github.com/aleister1102/jscollector/internal/collector"
	"github.com/aleister1102/jscollector/internal/extractor"
	"github.com/aleister1102/jscollector/internal/urlhandler"

	"github.com/rs/zerolog"
)

// Message is one HTTP message observed by a traffic feed.
type Message struct {
	URL         string
	IsRequest   bool
	Body        []byte
	ContentType string
}

// URLSink receives candidate JavaScript URLs. *collector.Store satisfies it.
type URLSink interface {
	Add(rawURL string) bool
}

// TrafficProcessor turns observed responses into collected JavaScript URLs.
// It holds no per-message state and may be called from many goroutines.
type TrafficProcessor struct {
	sink      URLSink
	extractor *extractor.ReferenceExtractor
	scope     collector.ScopeChecker
	logger    zerolog.Logger
}

// NewTrafficProcessor wires a processor. A nil scope allows everything.
func NewTrafficProcessor(sink URLSink, refExtractor *extractor.ReferenceExtractor, scope collector.ScopeChecker, logger zerolog.Logger) *TrafficProcessor {
	if scope == nil {
		scope = collector.AllowAll
	}
	return &TrafficProcessor{
		sink:      sink,
		extractor: refExtractor,
		scope:     scope,
		logger:    logger.With().Str("component", "TrafficProcessor").Logger(),
	}
}

// Handle processes a message delivered by a feed. Requests are ignored; the
// scope of a response is decided by the processor's scope checker.
func (tp *TrafficProcessor) Handle(msg Message) int {
	if msg.IsRequest {
		return 0
	}
	return tp.process(msg.URL, tp.inScope(msg.URL), msg.Body, msg.ContentType)
}

// OnResponse processes a response whose scope the host already decided.
// It returns the number of URLs newly added to the store.
func (tp *TrafficProcessor) OnResponse(requestURL string, isInScope bool, responseBody []byte) int {
	return tp.process(requestURL, isInScope, responseBody, "")
}

func (tp *TrafficProcessor) process(requestURL string, isInScope bool, body []byte, encodingHint string) (added int) {
	if !isInScope {
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			tp.logger.Error().Str("request_url", requestURL).Interface("panic", r).Msg("Recovered while processing response")
		}
	}()

	isScript := urlhandler.IsJavaScriptURL(requestURL)
	if isScript && tp.sink.Add(requestURL) {
		added++
	}

	for reference := range tp.extractor.ExtractReferences(body, encodingHint) {
		if tp.addCandidate(reference, requestURL) {
			added++
		}
	}

	if isScript && tp.extractor.JSluiceEnabled() {
		for reference := range tp.extractor.ExtractScriptReferences(body) {
			if tp.addCandidate(reference, requestURL) {
				added++
			}
		}
	}

	if added > 0 {
		tp.logger.Debug().Str("request_url", requestURL).Int("added", added).Msg("Processed response")
	}
	return added
}

func (tp *TrafficProcessor) addCandidate(reference, baseURL string) (added bool) {
	defer func() {
		if r := recover(); r != nil {
			tp.logger.Warn().Str("reference", reference).Interface("panic", r).Msg("Recovered while adding candidate")
			added = false
		}
	}()

	absoluteURL, err := urlhandler.Resolve(reference, baseURL)
	if err != nil {
		tp.logger.Debug().Str("reference", reference).Str("base_url", baseURL).Err(err).Msg("Discarding unresolvable reference")
		return false
	}
	if !urlhandler.IsJavaScriptURL(absoluteURL) {
		return false
	}
	return tp.sink.Add(absoluteURL)
}

func (tp *TrafficProcessor) inScope(requestURL string) bool {
	allowed, err := tp.scope.IsURLAllowed(requestURL)
	if err != nil {
		tp.logger.Debug().Str("request_url", requestURL).Err(err).Msg("Scope check failed, skipping message")
		return false
	}
	return allowed
}
