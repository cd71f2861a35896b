package feed

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/processor"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	messages []processor.Message
}

func (rh *recordingHandler) Handle(msg processor.Message) int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	rh.messages = append(rh.messages, msg)
	return 1
}

func (rh *recordingHandler) byURL() map[string]processor.Message {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	out := make(map[string]processor.Message, len(rh.messages))
	for _, msg := range rh.messages {
		out[msg.URL] = msg
	}
	return out
}

const sampleHAR = `{
  "log": {
    "version": "1.2",
    "entries": [
      {
        "request": {"method": "GET", "url": "https://site.test/"},
        "response": {"status": 200, "content": {"mimeType": "text/html; charset=utf-8", "text": "<script src=\"/app.js\"></script>"}}
      },
      {
        "request": {"method": "GET", "url": "https://site.test/app.js"},
        "response": {"status": 200, "content": {"mimeType": "application/javascript", "text": "%s", "encoding": "base64"}}
      },
      {
        "request": {"method": "GET", "url": "https://site.test/broken.js"},
        "response": {"status": 200, "content": {"mimeType": "application/javascript", "text": "!!not base64!!", "encoding": "base64"}}
      },
      {
        "request": {"method": "GET", "url": ""},
        "response": {"status": 200, "content": {"text": "x"}}
      }
    ]
  }
}`

func TestHARSource_Replay(t *testing.T) {
	handler := &recordingHandler{}
	source := NewHARSource(handler, zerolog.Nop())

	encoded := base64.StdEncoding.EncodeToString([]byte(`import "./chunk.js";`))
	stats, err := source.Replay(context.Background(), strings.NewReader(fmt.Sprintf(sampleHAR, encoded)))
	require.NoError(t, err)

	assert.Equal(t, HARStats{Entries: 4, Skipped: 2, Added: 2}, stats)

	messages := handler.byURL()
	require.Len(t, messages, 2)
	assert.Equal(t, "text/html; charset=utf-8", messages["https://site.test/"].ContentType)
	assert.Equal(t, `<script src="/app.js"></script>`, string(messages["https://site.test/"].Body))
	assert.Equal(t, `import "./chunk.js";`, string(messages["https://site.test/app.js"].Body))
	assert.False(t, messages["https://site.test/app.js"].IsRequest)
}

func TestHARSource_InvalidDocument(t *testing.T) {
	source := NewHARSource(&recordingHandler{}, zerolog.Nop())
	_, err := source.Replay(context.Background(), strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestHARSource_ReplayFile(t *testing.T) {
	handler := &recordingHandler{}
	source := NewHARSource(handler, zerolog.Nop())

	path := filepath.Join(t.TempDir(), "capture.har")
	encoded := base64.StdEncoding.EncodeToString([]byte("x"))
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(sampleHAR, encoded)), 0o644))

	stats, err := source.ReplayFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Entries)

	_, err = source.ReplayFile(context.Background(), filepath.Join(t.TempDir(), "missing.har"))
	assert.Error(t, err)
}

func TestHARSource_CancelledContext(t *testing.T) {
	handler := &recordingHandler{}
	source := NewHARSource(handler, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	encoded := base64.StdEncoding.EncodeToString([]byte("x"))
	_, err := source.Replay(ctx, strings.NewReader(fmt.Sprintf(sampleHAR, encoded)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, handler.byURL())
}

func newProxyClient(t *testing.T, proxyServer *httptest.Server, base *http.Transport) *http.Client {
	t.Helper()
	proxyURL, err := url.Parse(proxyServer.URL)
	require.NoError(t, err)

	transport := base
	if transport == nil {
		transport = &http.Transport{}
	}
	transport.Proxy = http.ProxyURL(proxyURL)
	return &http.Client{Transport: transport}
}

func TestProxy_ForwardsAndCaptures(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Proxy-Connection"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<script src="/static/app.js"></script>`)
	}))
	defer upstream.Close()

	handler := &recordingHandler{}
	cfg := config.NewDefaultProxyConfig()
	proxyServer := httptest.NewServer(NewProxy(cfg, handler, zerolog.Nop()))
	defer proxyServer.Close()

	client := newProxyClient(t, proxyServer, nil)
	resp, err := client.Get(upstream.URL + "/index.html")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `<script src="/static/app.js"></script>`, string(body))

	messages := handler.byURL()
	msg, ok := messages[upstream.URL+"/index.html"]
	require.True(t, ok)
	assert.Equal(t, string(body), string(msg.Body))
	assert.Equal(t, "text/html; charset=utf-8", msg.ContentType)
}

func TestProxy_TruncatesCapturedBody(t *testing.T) {
	payload := strings.Repeat("a", 100)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, payload)
	}))
	defer upstream.Close()

	handler := &recordingHandler{}
	cfg := config.ProxyConfig{MaxBodyBytes: 10, UpstreamTimeoutSecs: 5}
	proxyServer := httptest.NewServer(NewProxy(cfg, handler, zerolog.Nop()))
	defer proxyServer.Close()

	resp, err := newProxyClient(t, proxyServer, nil).Get(upstream.URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, payload, string(body))
	msg := handler.byURL()[upstream.URL]
	assert.Equal(t, strings.Repeat("a", 10), string(msg.Body))
}

func TestProxy_TunnelsConnect(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "secret")
	}))
	defer upstream.Close()

	handler := &recordingHandler{}
	proxyServer := httptest.NewServer(NewProxy(config.NewDefaultProxyConfig(), handler, zerolog.Nop()))
	defer proxyServer.Close()

	base := upstream.Client().Transport.(*http.Transport).Clone()
	resp, err := newProxyClient(t, proxyServer, base).Get(upstream.URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, "secret", string(body))
	assert.Empty(t, handler.byURL())
}

func TestProxy_RejectsOriginRequests(t *testing.T) {
	proxyServer := httptest.NewServer(NewProxy(config.NewDefaultProxyConfig(), &recordingHandler{}, zerolog.Nop()))
	defer proxyServer.Close()

	resp, err := http.Get(proxyServer.URL + "/direct")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCappedBuffer(t *testing.T) {
	capped := &cappedBuffer{limit: 4}
	n, err := capped.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = capped.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "abcd", string(capped.Bytes()))

	unlimited := &cappedBuffer{}
	_, _ = unlimited.Write([]byte("abcdef"))
	assert.Equal(t, "abcdef", string(unlimited.Bytes()))
}
