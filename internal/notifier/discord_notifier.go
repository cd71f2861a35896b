package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/httpclient"
	"github.com/aleister1102/jscollector/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DiscordSink posts collection changes to a Discord webhook.
//
// Events arriving faster than the configured minimum interval are merged and
// held back; the next permitted send, or Flush, delivers them together.
type DiscordSink struct {
	webhookURL     string
	recentURLCount int
	httpClient     *http.Client
	retry          *httpclient.RetryHandler
	limiter        *rate.Limiter
	logger         zerolog.Logger

	mu      sync.Mutex
	pending *models.ChangeEvent
}

// NewDiscordSink creates a sink for cfg.DiscordWebhookURL. A nil httpClient
// gets a default client with a 20s timeout. Rate-limited and gateway errors
// from Discord are retried with backoff.
func NewDiscordSink(cfg config.NotificationConfig, httpClient *http.Client, logger zerolog.Logger) *DiscordSink {
	moduleLogger := logger.With().Str("module", "DiscordSink").Logger()

	if httpClient == nil {
		httpClient = httpclient.NewHTTPClientBuilder(logger).WithTimeout(defaultHTTPTimeout).Build()
	}

	limit := rate.Inf
	if cfg.MinIntervalSecs > 0 {
		limit = rate.Every(time.Duration(cfg.MinIntervalSecs) * time.Second)
	}

	return &DiscordSink{
		webhookURL:     cfg.DiscordWebhookURL,
		recentURLCount: cfg.RecentURLCount,
		httpClient:     httpClient,
		retry:          httpclient.NewRetryHandler(httpclient.DefaultRetryHandlerConfig(), moduleLogger),
		limiter:        rate.NewLimiter(limit, 1),
		logger:         moduleLogger,
	}
}

// Notify sends event unless the rate limit holds it back. Restore events are
// not reported.
func (ds *DiscordSink) Notify(ctx context.Context, event models.ChangeEvent) error {
	if ds.webhookURL == "" || event.Reason == models.ChangeReasonRestore {
		return nil
	}

	ds.mu.Lock()
	ds.pending = mergeEvents(ds.pending, event)
	if !ds.limiter.Allow() {
		held := len(ds.pending.Added)
		ds.mu.Unlock()
		ds.logger.Debug().Int("held_urls", held).Msg("Discord notification deferred by rate limit")
		return nil
	}
	toSend := ds.takePendingLocked()
	ds.mu.Unlock()

	return ds.send(ctx, *toSend)
}

// Flush delivers any event held back by the rate limit.
func (ds *DiscordSink) Flush(ctx context.Context) error {
	ds.mu.Lock()
	toSend := ds.takePendingLocked()
	ds.mu.Unlock()

	if toSend == nil {
		return nil
	}
	return ds.send(ctx, *toSend)
}

func (ds *DiscordSink) takePendingLocked() *models.ChangeEvent {
	event := ds.pending
	ds.pending = nil
	return event
}

func mergeEvents(older *models.ChangeEvent, newer models.ChangeEvent) *models.ChangeEvent {
	if older != nil && len(older.Added) > 0 {
		newer.Added = append(append([]string(nil), older.Added...), newer.Added...)
	}
	return &newer
}

func (ds *DiscordSink) send(ctx context.Context, event models.ChangeEvent) error {
	payloadJSON, err := json.Marshal(ds.buildPayload(event))
	if err != nil {
		return common.WrapError(err, "failed to marshal discord payload")
	}

	resp, err := ds.retry.Do(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ds.webhookURL, bytes.NewReader(payloadJSON))
		if err != nil {
			return nil, common.WrapError(err, "failed to create discord request")
		}
		req.Header.Set("Content-Type", "application/json")
		return ds.httpClient.Do(req)
	})
	if err != nil {
		ds.logger.Error().Err(err).Msg("Failed to send Discord notification")
		return common.WrapError(err, "failed to send discord notification")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		ds.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(respBody)).Msg("Discord notification failed")
		return common.NewHTTPErrorWithURL(resp.StatusCode, string(respBody), ds.webhookURL)
	}

	ds.logger.Debug().Int("status_code", resp.StatusCode).Str("reason", string(event.Reason)).Msg("Discord notification sent")
	return nil
}

func (ds *DiscordSink) buildPayload(event models.ChangeEvent) models.DiscordMessagePayload {
	embed := NewDiscordEmbedBuilder().
		WithTitle(eventTitle(event.Reason)).
		WithColor(eventColor(event.Reason)).
		WithTimestamp(event.Timestamp).
		WithFooter(CollectedSummary(event.Count)).
		AddField("Total", strconv.Itoa(event.Count), true).
		AddField("New", strconv.Itoa(len(event.Added)), true)

	if recent := ds.recentURLs(event.Added); len(recent) > 0 {
		var sb strings.Builder
		for _, u := range recent {
			fmt.Fprintf(&sb, "`%s`\n", u)
		}
		if hidden := len(event.Added) - len(recent); hidden > 0 {
			fmt.Fprintf(&sb, "... and %d more", hidden)
		}
		embed.WithDescription(strings.TrimRight(sb.String(), "\n"))
	}

	return NewDiscordMessagePayloadBuilder().
		WithUsername(DiscordUsername).
		AddEmbed(embed.Build()).
		WithAllowedMentions(models.AllowedMentions{Parse: []string{}}).
		Build()
}

// recentURLs returns the newest added URLs, capped at recentURLCount.
func (ds *DiscordSink) recentURLs(added []string) []string {
	if ds.recentURLCount <= 0 {
		return nil
	}
	if len(added) <= ds.recentURLCount {
		return added
	}
	return added[len(added)-ds.recentURLCount:]
}

func eventTitle(reason models.ChangeReason) string {
	switch reason {
	case models.ChangeReasonAdd:
		return "New JavaScript files collected"
	case models.ChangeReasonClear:
		return "JavaScript URL list cleared"
	case models.ChangeReasonCDNFilter:
		return "CDN filter applied"
	default:
		return "JavaScript URL list updated"
	}
}

func eventColor(reason models.ChangeReason) int {
	switch reason {
	case models.ChangeReasonAdd:
		return AddEmbedColor
	case models.ChangeReasonClear:
		return ClearEmbedColor
	case models.ChangeReasonCDNFilter:
		return FilterEmbedColor
	default:
		return DefaultEmbedColor
	}
}
