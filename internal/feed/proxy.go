package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/httpclient"
	"github.com/aleister1102/jscollector/internal/processor"

	"github.com/rs/zerolog"
)

// Hop-by-hop headers are meaningful only for a single connection.
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Proxy is a passive forward HTTP proxy. Plain HTTP responses are relayed to
// the client and copied to the handler; CONNECT tunnels are passed through
// without inspection.
type Proxy struct {
	handler      MessageHandler
	client       *http.Client
	dialer       *net.Dialer
	maxBodyBytes int64
	listenAddr   string
	logger       zerolog.Logger
}

// NewProxy creates a proxy feeding handler.
func NewProxy(cfg config.ProxyConfig, handler MessageHandler, logger zerolog.Logger) *Proxy {
	timeout := time.Duration(cfg.UpstreamTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultProxyUpstreamTimeoutSecs) * time.Second
	}

	// Redirects go back to the browser, which follows them through the proxy.
	builder := httpclient.NewHTTPClientBuilder(logger).
		WithTimeout(timeout).
		WithFollowRedirects(false)

	return &Proxy{
		handler:      handler,
		client:       builder.Build(),
		dialer:       builder.Dialer(),
		maxBodyBytes: cfg.MaxBodyBytes,
		listenAddr:   cfg.ListenAddress,
		logger:       logger.With().Str("component", "Proxy").Logger(),
	}
}

// ListenAndServe serves the proxy until ctx is cancelled.
func (p *Proxy) ListenAndServe(ctx context.Context) error {
	listener, err := net.Listen("tcp", p.listenAddr)
	if err != nil {
		return fmt.Errorf("proxy listen on %s: %w", p.listenAddr, err)
	}
	return p.Serve(ctx, listener)
}

// Serve accepts proxy connections on listener until ctx is cancelled.
func (p *Proxy) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           p,
		ReadHeaderTimeout: 30 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn().Err(err).Msg("Proxy shutdown did not complete cleanly")
		}
	}()

	p.logger.Info().Str("address", listener.Addr().String()).Msg("Proxy listening")
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	return err
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		p.handleConnect(w, r)
		return
	}
	p.handleHTTP(w, r)
}

func (p *Proxy) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if !r.URL.IsAbs() {
		http.Error(w, "this is a proxy, request an absolute URL", http.StatusBadRequest)
		return
	}

	outReq, err := http.NewRequestWithContext(r.Context(), r.Method, r.URL.String(), r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to create request: %v", err), http.StatusBadGateway)
		return
	}
	outReq.ContentLength = r.ContentLength
	copyHeaders(outReq.Header, r.Header)
	removeHopByHopHeaders(outReq.Header)
	// Let the transport negotiate compression so response bodies arrive decoded.
	outReq.Header.Del("Accept-Encoding")

	resp, err := p.client.Do(outReq)
	if err != nil {
		p.logger.Debug().Str("url", r.URL.String()).Err(err).Msg("Upstream request failed")
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	removeHopByHopHeaders(resp.Header)
	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	captured := &cappedBuffer{limit: p.maxBodyBytes}
	if _, err := io.Copy(w, io.TeeReader(resp.Body, captured)); err != nil {
		p.logger.Debug().Str("url", r.URL.String()).Err(err).Msg("Relaying response body failed")
	}

	p.handler.Handle(processor.Message{
		URL:         r.URL.String(),
		Body:        captured.Bytes(),
		ContentType: resp.Header.Get("Content-Type"),
	})
}

func (p *Proxy) handleConnect(w http.ResponseWriter, r *http.Request) {
	upstream, err := p.dialer.DialContext(r.Context(), "tcp", r.Host)
	if err != nil {
		http.Error(w, fmt.Sprintf("connect to %s failed: %v", r.Host, err), http.StatusBadGateway)
		return
	}

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		_ = upstream.Close()
		http.Error(w, "tunnelling not supported", http.StatusInternalServerError)
		return
	}
	client, buffered, err := hijacker.Hijack()
	if err != nil {
		_ = upstream.Close()
		p.logger.Debug().Str("host", r.Host).Err(err).Msg("Hijack failed")
		return
	}

	if _, err := client.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		_ = client.Close()
		_ = upstream.Close()
		return
	}

	// Bytes the client sent after the CONNECT line may already be buffered.
	if n := buffered.Reader.Buffered(); n > 0 {
		pending, _ := buffered.Reader.Peek(n)
		if _, err := upstream.Write(pending); err != nil {
			_ = client.Close()
			_ = upstream.Close()
			return
		}
	}

	p.logger.Debug().Str("host", r.Host).Msg("Tunnel opened")
	tunnel(client, upstream)
}

func tunnel(a, b net.Conn) {
	var wg sync.WaitGroup
	wg.Add(2)
	pipe := func(dst, src net.Conn) {
		defer wg.Done()
		_, _ = io.Copy(dst, src)
		if tcp, ok := dst.(*net.TCPConn); ok {
			_ = tcp.CloseWrite()
		} else {
			_ = dst.Close()
		}
	}
	go pipe(a, b)
	go pipe(b, a)
	wg.Wait()
	_ = a.Close()
	_ = b.Close()
}

// copyHeaders copies headers from src to dst.
func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func removeHopByHopHeaders(h http.Header) {
	for _, header := range hopByHopHeaders {
		h.Del(header)
	}
}

// cappedBuffer keeps the first limit bytes written to it and discards the
// rest without reporting an error. A limit of zero or less keeps everything.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int64
}

func (cb *cappedBuffer) Write(p []byte) (int, error) {
	if cb.limit <= 0 {
		return cb.buf.Write(p)
	}
	remaining := cb.limit - int64(cb.buf.Len())
	if remaining > 0 {
		chunk := p
		if int64(len(chunk)) > remaining {
			chunk = chunk[:remaining]
		}
		cb.buf.Write(chunk)
	}
	return len(p), nil
}

func (cb *cappedBuffer) Bytes() []byte {
	return cb.buf.Bytes()
}
