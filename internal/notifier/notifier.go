package notifier

import (
	"context"
	"fmt"

	"github.com/aleister1102/jscollector/internal/common"
	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/models"

	"github.com/rs/zerolog"
)

// Sink receives change events from the collection store.
type Sink interface {
	Notify(ctx context.Context, event models.ChangeEvent) error
}

// Flusher is implemented by sinks that hold back events and must deliver
// them before shutdown.
type Flusher interface {
	Flush(ctx context.Context) error
}

// LogSink writes a one-line collection summary for each event.
type LogSink struct {
	logger zerolog.Logger
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger.With().Str("module", "LogSink").Logger()}
}

func (ls *LogSink) Notify(_ context.Context, event models.ChangeEvent) error {
	ls.logger.Info().
		Str("reason", string(event.Reason)).
		Int("added", len(event.Added)).
		Msg(CollectedSummary(event.Count))
	return nil
}

// CollectedSummary is the status line shown to the user.
func CollectedSummary(count int) string {
	return fmt.Sprintf("Collected: %d unique JS files", count)
}

// MultiSink fans an event out to every sink. A failing sink does not stop
// delivery to the others; all failures are returned joined.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	filtered := make([]Sink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return &MultiSink{sinks: filtered}
}

func (ms *MultiSink) Notify(ctx context.Context, event models.ChangeEvent) error {
	var collector common.ErrorCollector
	for _, sink := range ms.sinks {
		collector.AddWithContext(sink.Notify(ctx, event), fmt.Sprintf("%T", sink))
	}
	return collector.Error()
}

// Flush flushes every sink that buffers events.
func (ms *MultiSink) Flush(ctx context.Context) error {
	var collector common.ErrorCollector
	for _, sink := range ms.sinks {
		if flusher, ok := sink.(Flusher); ok {
			collector.AddWithContext(flusher.Flush(ctx), fmt.Sprintf("%T", sink))
		}
	}
	return collector.Error()
}

// NewFromConfig builds the sinks enabled by cfg. The log sink is always present.
func NewFromConfig(cfg config.NotificationConfig, logger zerolog.Logger) *MultiSink {
	sinks := []Sink{NewLogSink(logger)}
	if cfg.DiscordWebhookURL != "" {
		sinks = append(sinks, NewDiscordSink(cfg, nil, logger))
	}
	return NewMultiSink(sinks...)
}
