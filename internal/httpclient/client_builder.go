package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

// HTTPClientConfig holds the transport settings shared by outbound clients.
type HTTPClientConfig struct {
	Timeout             time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration
	IdleConnTimeout     time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	FollowRedirects     bool
	InsecureSkipVerify  bool
	EnableHTTP2         bool
}

// DefaultHTTPClientConfig returns the settings used when nothing is overridden.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             30 * time.Second,
		DialTimeout:         10 * time.Second,
		KeepAlive:           30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		FollowRedirects:     true,
		EnableHTTP2:         true,
	}
}

// HTTPClientBuilder builds HTTP clients with fluent interface
type HTTPClientBuilder struct {
	config HTTPClientConfig
	logger zerolog.Logger
}

// NewHTTPClientBuilder creates a new HTTPClientBuilder with default configuration
func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		config: DefaultHTTPClientConfig(),
		logger: logger.With().Str("component", "HTTPClientBuilder").Logger(),
	}
}

// WithTimeout sets the request timeout. Dial timeout follows it when shorter.
func (b *HTTPClientBuilder) WithTimeout(timeout time.Duration) *HTTPClientBuilder {
	b.config.Timeout = timeout
	if timeout > 0 && timeout < b.config.DialTimeout {
		b.config.DialTimeout = timeout
	}
	return b
}

func (b *HTTPClientBuilder) WithFollowRedirects(follow bool) *HTTPClientBuilder {
	b.config.FollowRedirects = follow
	return b
}

func (b *HTTPClientBuilder) WithInsecureSkipVerify(skip bool) *HTTPClientBuilder {
	b.config.InsecureSkipVerify = skip
	return b
}

// WithHTTP2 enables or disables HTTP/2 support
func (b *HTTPClientBuilder) WithHTTP2(enabled bool) *HTTPClientBuilder {
	b.config.EnableHTTP2 = enabled
	return b
}

// Config returns the settings the builder will apply.
func (b *HTTPClientBuilder) Config() HTTPClientConfig {
	return b.config
}

// Dialer returns a dialer with the configured timeouts, for raw tunnels.
func (b *HTTPClientBuilder) Dialer() *net.Dialer {
	return &net.Dialer{
		Timeout:   b.config.DialTimeout,
		KeepAlive: b.config.KeepAlive,
	}
}

// Build creates the client. Environment proxy settings are ignored.
// If HTTP/2 cannot be configured the client falls back to HTTP/1.1.
func (b *HTTPClientBuilder) Build() *http.Client {
	transport := &http.Transport{
		DialContext:           b.Dialer().DialContext,
		MaxIdleConns:          b.config.MaxIdleConns,
		MaxIdleConnsPerHost:   b.config.MaxIdleConnsPerHost,
		IdleConnTimeout:       b.config.IdleConnTimeout,
		TLSHandshakeTimeout:   b.config.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: b.config.InsecureSkipVerify,
		},
	}

	if b.config.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			b.logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   b.config.Timeout,
	}
	if !b.config.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}
