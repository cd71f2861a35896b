package processor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aleister1102/jscollector/internal/collector"
	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/datastore"
	"github.com/aleister1102/jscollector/internal/extractor"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	seen []string
	set  map[string]struct{}
}

func (s *recordingSink) Add(rawURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		s.set = make(map[string]struct{})
	}
	s.seen = append(s.seen, rawURL)
	if _, ok := s.set[rawURL]; ok {
		return false
	}
	s.set[rawURL] = struct{}{}
	return true
}

func newTestProcessor(sink URLSink, scope collector.ScopeChecker) *TrafficProcessor {
	refExtractor := extractor.NewReferenceExtractor(config.NewDefaultExtractorConfig(), zerolog.Nop())
	return NewTrafficProcessor(sink, refExtractor, scope, zerolog.Nop())
}

func TestOnResponse_HTMLPage(t *testing.T) {
	sink := &recordingSink{}
	tp := newTestProcessor(sink, nil)

	body := `<html><head>
<script src="/js/app.min.js"></script>
<script src="//cdn.example.com/lib.js"></script>
<link rel="stylesheet" href="/css/site.css">
<link rel="preload" href="vendor.js?v=2">
</head></html>`

	added := tp.OnResponse("https://site.com/page", true, []byte(body))

	assert.Equal(t, 3, added)
	assert.Equal(t, []string{
		"https://site.com/js/app.min.js",
		"https://cdn.example.com/lib.js",
		"https://site.com/vendor.js?v=2",
	}, sink.seen)
}

func TestOnResponse_RequestURLIsScript(t *testing.T) {
	sink := &recordingSink{}
	tp := newTestProcessor(sink, nil)

	body := `import { h } from "./render.mjs"; const x = require("../shared/util.js");`
	added := tp.OnResponse("https://site.com/static/main.js?v=1", true, []byte(body))

	assert.Equal(t, 3, added)
	assert.Equal(t, []string{
		"https://site.com/static/main.js?v=1",
		"https://site.com/static/render.mjs",
		"https://site.com/shared/util.js",
	}, sink.seen)
}

func TestOnResponse_OutOfScopeSkipsBody(t *testing.T) {
	sink := &recordingSink{}
	tp := newTestProcessor(sink, nil)

	added := tp.OnResponse("https://site.com/main.js", false, []byte(`<script src="/a.js"></script>`))

	assert.Zero(t, added)
	assert.Empty(t, sink.seen)
}

func TestOnResponse_FiltersNonScriptCandidates(t *testing.T) {
	sink := &recordingSink{}
	tp := newTestProcessor(sink, nil)

	// Every captured value contains ".js" but none ends in a script extension.
	body := `<script src="/app.js.map"></script><a href="/docs/json-api.json">x</a><a href="/next.jsp">y</a>`
	added := tp.OnResponse("https://site.com/", true, []byte(body))

	assert.Zero(t, added)
	assert.Empty(t, sink.seen)
}

func TestOnResponse_BadCandidateDoesNotAbort(t *testing.T) {
	sink := &recordingSink{}
	tp := newTestProcessor(sink, nil)

	body := `<script src="%zz.js"></script><script src="/good.js"></script>`
	added := tp.OnResponse("https://site.com/", true, []byte(body))

	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"https://site.com/good.js"}, sink.seen)
}

func TestOnResponse_MalformedBaseURL(t *testing.T) {
	sink := &recordingSink{}
	tp := newTestProcessor(sink, nil)

	body := `<script src="/rel.js"></script><script src="https://abs.com/abs.js"></script>`
	added := tp.OnResponse("not-a-url", true, []byte(body))

	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"https://abs.com/abs.js"}, sink.seen)
}

func TestOnResponse_EmptyAndBinaryBodies(t *testing.T) {
	sink := &recordingSink{}
	tp := newTestProcessor(sink, nil)

	assert.Zero(t, tp.OnResponse("https://site.com/", true, nil))
	assert.Zero(t, tp.OnResponse("https://site.com/logo.png", true, []byte{0x89, 'P', 'N', 'G', 0xff, 0x00, 0xfe}))
	assert.Empty(t, sink.seen)
}

func TestHandle(t *testing.T) {
	scope := collector.ScopeFunc(func(rawURL string) (bool, error) {
		if strings.Contains(rawURL, "broken") {
			return false, errors.New("scope lookup failed")
		}
		return strings.HasPrefix(rawURL, "https://target.test"), nil
	})

	tests := []struct {
		name     string
		msg      Message
		expected []string
	}{
		{
			name:     "request is ignored",
			msg:      Message{URL: "https://target.test/main.js", IsRequest: true},
			expected: nil,
		},
		{
			name:     "out of scope response",
			msg:      Message{URL: "https://other.test/main.js"},
			expected: nil,
		},
		{
			name:     "scope error",
			msg:      Message{URL: "https://target.test/broken/main.js"},
			expected: nil,
		},
		{
			name: "in scope response with content type",
			msg: Message{
				URL:         "https://target.test/index.html",
				Body:        append(append([]byte(`<script src="/caf`), 0xe9), []byte(`.js"></script>`)...),
				ContentType: "text/html; charset=windows-1252",
			},
			expected: []string{"https://target.test/caf%C3%A9.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			tp := newTestProcessor(sink, scope)
			tp.Handle(tt.msg)
			assert.Equal(t, tt.expected, sink.seen)
		})
	}
}

func TestPipeline_WithStore(t *testing.T) {
	cfg := config.NewDefaultCollectorConfig()
	cfg.CDNFilterEnabled = true
	scope := collector.ScopeFunc(func(rawURL string) (bool, error) {
		return !strings.Contains(rawURL, "evil.test"), nil
	})
	persister := datastore.NewMemorySettingsStore()
	store := collector.NewStore(cfg, scope, persister, nil, zerolog.Nop())
	tp := newTestProcessor(store, scope)

	body := `
<script src="https://site.com:443/js/app.js#v1"></script>
<script src="/js/app.js"></script>
<script src="https://code.jquery.com/jquery-3.7.1.min.js"></script>
<script src="https://evil.test/tracker.js"></script>
<script src="chunks/0.ts"></script>
`
	tp.OnResponse("https://site.com/index.html", true, []byte(body))
	store.Close()

	assert.Equal(t, []string{"https://site.com/chunks/0.ts", "https://site.com/js/app.js"}, store.Export())

	saved, err := persister.LoadSetting("js_urls")
	require.NoError(t, err)
	assert.Equal(t, "https://site.com/chunks/0.ts\nhttps://site.com/js/app.js", saved)
}

func TestPipeline_PanickingScopeSkipsOnlyThatCandidate(t *testing.T) {
	scope := collector.ScopeFunc(func(rawURL string) (bool, error) {
		if strings.Contains(rawURL, "bad") {
			panic("scope rule exploded")
		}
		return true, nil
	})
	store := collector.NewStore(config.NewDefaultCollectorConfig(), scope, nil, nil, zerolog.Nop())
	defer store.Close()
	tp := newTestProcessor(store, nil)

	body := `<script src="/bad.js"></script><script src="/good1.js"></script><script src="/good2.js"></script>`
	assert.Equal(t, 2, tp.OnResponse("https://site.com/index.html", true, []byte(body)))
	assert.Equal(t, []string{"https://site.com/good1.js", "https://site.com/good2.js"}, store.Export())
}

type panickingSink struct{ recordingSink }

func (s *panickingSink) Add(rawURL string) bool {
	if strings.Contains(rawURL, "bad") {
		panic("sink exploded")
	}
	return s.recordingSink.Add(rawURL)
}

func TestOnResponse_PanickingSinkDoesNotAbort(t *testing.T) {
	sink := &panickingSink{}
	tp := newTestProcessor(sink, nil)

	body := `<script src="/bad.js"></script><script src="/good.js"></script>`
	assert.Equal(t, 1, tp.OnResponse("https://site.com/index.html", true, []byte(body)))
	assert.Equal(t, []string{"https://site.com/good.js"}, sink.seen)
}

func TestPipeline_ConcurrentResponses(t *testing.T) {
	store := collector.NewStore(config.NewDefaultCollectorConfig(), nil, nil, nil, zerolog.Nop())
	defer store.Close()
	tp := newTestProcessor(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`<script src="/shared.js"></script><script src="/page-%d.js"></script>`, i)
			tp.OnResponse(fmt.Sprintf("https://site.com/page/%d", i), true, []byte(body))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 51, store.Count())
}
