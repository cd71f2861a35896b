package feed

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/processor"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MessageHandler consumes observed HTTP messages. *processor.TrafficProcessor
// satisfies it.
type MessageHandler interface {
	Handle(msg processor.Message) int
}

// HAR 1.2 subset needed to replay responses.
type harFile struct {
	Log harLog `json:"log"`
}

type harLog struct {
	Version string     `json:"version"`
	Entries []harEntry `json:"entries"`
}

type harEntry struct {
	Request  harRequest  `json:"request"`
	Response harResponse `json:"response"`
}

type harRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type harResponse struct {
	Status  int        `json:"status"`
	Content harContent `json:"content"`
}

type harContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

// HARStats summarizes one replayed archive.
type HARStats struct {
	Entries int
	Skipped int
	Added   int
}

// HARSource replays the responses recorded in HAR files.
type HARSource struct {
	handler MessageHandler
	workers int
	logger  zerolog.Logger
}

// NewHARSource creates a source that hands entries to handler using up to
// GOMAXPROCS workers.
func NewHARSource(handler MessageHandler, logger zerolog.Logger) *HARSource {
	return &HARSource{
		handler: handler,
		workers: runtime.GOMAXPROCS(0),
		logger:  logger.With().Str("component", "HARSource").Logger(),
	}
}

// ReplayFile opens path and replays it.
func (hs *HARSource) ReplayFile(ctx context.Context, path string) (HARStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return HARStats{}, common.WrapError(err, "failed to open HAR file: "+path)
	}
	defer file.Close()

	stats, err := hs.Replay(ctx, file)
	if err != nil {
		return stats, common.WrapError(err, "failed to replay HAR file: "+path)
	}
	hs.logger.Info().
		Str("path", path).
		Int("entries", stats.Entries).
		Int("skipped", stats.Skipped).
		Int("added", stats.Added).
		Msg("HAR file replayed")
	return stats, nil
}

// Replay decodes a HAR document from r and feeds every response to the handler.
// Entries whose body cannot be decoded are logged and skipped.
func (hs *HARSource) Replay(ctx context.Context, r io.Reader) (HARStats, error) {
	var har harFile
	if err := json.NewDecoder(r).Decode(&har); err != nil {
		return HARStats{}, common.WrapError(err, "har parse")
	}

	var skipped, added atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hs.workers)

	for i, entry := range har.Log.Entries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			msg, err := entryMessage(entry)
			if err != nil {
				skipped.Add(1)
				hs.logger.Warn().Int("entry", i).Str("url", entry.Request.URL).Err(err).Msg("Skipping HAR entry")
				return nil
			}
			added.Add(int64(hs.handler.Handle(msg)))
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return HARStats{
		Entries: len(har.Log.Entries),
		Skipped: int(skipped.Load()),
		Added:   int(added.Load()),
	}, err
}

func entryMessage(entry harEntry) (processor.Message, error) {
	if entry.Request.URL == "" {
		return processor.Message{}, common.NewValidationError("request.url", entry.Request.URL, "entry has no request URL")
	}

	body := []byte(entry.Response.Content.Text)
	if entry.Response.Content.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(entry.Response.Content.Text)
		if err != nil {
			return processor.Message{}, common.WrapError(err, "invalid base64 response body")
		}
		body = decoded
	}

	return processor.Message{
		URL:         entry.Request.URL,
		Body:        body,
		ContentType: entry.Response.Content.MimeType,
	}, nil
}
