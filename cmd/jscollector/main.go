package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aleister1102/jscollector/internal/collector"
	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/datastore"
	"github.com/aleister1102/jscollector/internal/exporter"
	"github.com/aleister1102/jscollector/internal/extractor"
	"github.com/aleister1102/jscollector/internal/feed"
	"github.com/aleister1102/jscollector/internal/logger"
	"github.com/aleister1102/jscollector/internal/notifier"
	"github.com/aleister1102/jscollector/internal/processor"
	"github.com/aleister1102/jscollector/internal/scope"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const flushTimeout = 10 * time.Second

func main() {
	flags, err := ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(2)
	}

	bootstrapLogger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	gCfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, bootstrapLogger)
	if err != nil {
		bootstrapLogger.Fatal().Err(err).Str("path", flags.GlobalConfigFile).Msg("Could not load global config")
	}
	applyFlagOverrides(gCfg, flags)

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		bootstrapLogger.Fatal().Err(err).Msg("Could not initialize logger")
	}

	if err := config.ValidateConfig(gCfg); err != nil {
		zLogger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, gCfg, flags, os.Stdout, zLogger); err != nil {
		zLogger.Error().Err(err).Msg("JS collector finished with errors")
		stop()
		os.Exit(1)
	}
}

func applyFlagOverrides(gCfg *config.GlobalConfig, flags AppFlags) {
	if flags.ListenAddress != "" {
		gCfg.ProxyConfig.ListenAddress = flags.ListenAddress
	}
	if flags.OutputPath != "" {
		gCfg.ExportConfig.OutputPath = flags.OutputPath
	}
	if flags.ExportFormat != "" {
		gCfg.ExportConfig.Format = flags.ExportFormat
	}
}

// run wires the collector and drives it until every feed is done or ctx is
// cancelled, then applies the requested exports.
func run(ctx context.Context, gCfg *config.GlobalConfig, flags AppFlags, stdout io.Writer, appLogger zerolog.Logger) error {
	settingsStore, err := datastore.NewSettingsStore(gCfg.StorageConfig, appLogger)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer func() {
		if err := settingsStore.Close(); err != nil {
			appLogger.Warn().Err(err).Msg("Failed to close settings store")
		}
	}()

	scopeSettings := scope.NewScopeSettings(gCfg.ScopeConfig, appLogger)
	sinks := notifier.NewFromConfig(gCfg.NotificationConfig, appLogger)

	store := collector.NewStore(gCfg.CollectorConfig, scopeSettings, settingsStore, sinks, appLogger)
	defer store.Close()
	store.Restore()

	switch flags.CDNFilter {
	case "on":
		store.SetCDNFilterEnabled(true)
	case "off":
		store.SetCDNFilterEnabled(false)
	}
	if flags.Clear {
		store.Clear()
	}

	refExtractor := extractor.NewReferenceExtractor(gCfg.ExtractorConfig, appLogger)
	trafficProcessor := processor.NewTrafficProcessor(store, refExtractor, scopeSettings, appLogger)

	feedErr := runFeeds(ctx, gCfg, flags, trafficProcessor, appLogger)

	store.Close()
	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := sinks.Flush(flushCtx); err != nil {
		appLogger.Warn().Err(err).Msg("Failed to flush notifications")
	}

	urls := store.Export()
	appLogger.Info().Msg(notifier.CollectedSummary(len(urls)))

	// Outputs are still written after an interrupt.
	if err := emitOutputs(context.WithoutCancel(ctx), gCfg, flags, urls, stdout, appLogger); err != nil {
		return errors.Join(feedErr, err)
	}
	return feedErr
}

func runFeeds(ctx context.Context, gCfg *config.GlobalConfig, flags AppFlags, handler feed.MessageHandler, appLogger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	if len(flags.HARFiles) > 0 {
		harSource := feed.NewHARSource(handler, appLogger)
		for _, path := range flags.HARFiles {
			g.Go(func() error {
				_, err := harSource.ReplayFile(gctx, path)
				return err
			})
		}
	}

	if flags.ListenAddress != "" {
		proxy := feed.NewProxy(gCfg.ProxyConfig, handler, appLogger)
		g.Go(func() error {
			return proxy.ListenAndServe(gctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		appLogger.Info().Msg("Interrupted, shutting down")
		return nil
	}
	return err
}

func emitOutputs(ctx context.Context, gCfg *config.GlobalConfig, flags AppFlags, urls []string, stdout io.Writer, appLogger zerolog.Logger) error {
	if flags.Export {
		written, err := exporter.Export(ctx, gCfg.ExportConfig, urls, appLogger)
		switch {
		case errors.Is(err, exporter.ErrNothingToExport):
			appLogger.Warn().Msg("No JavaScript URLs to export")
		case err != nil:
			return fmt.Errorf("export: %w", err)
		default:
			appLogger.Info().Str("path", written).Int("count", len(urls)).Msg("Exported JS URLs")
		}
	}

	if flags.Clipboard {
		text, err := exporter.ClipboardText(urls)
		if errors.Is(err, exporter.ErrNothingToExport) {
			appLogger.Warn().Msg("No JavaScript URLs to copy")
			return nil
		}
		if _, err := fmt.Fprintln(stdout, text); err != nil {
			return fmt.Errorf("write clipboard text: %w", err)
		}
	}
	return nil
}
