package collector

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/aleister1102/jscollector/internal/config"
	"github.com/aleister1102/jscollector/internal/models"
	"github.com/aleister1102/jscollector/internal/urlhandler"

	"github.com/rs/zerolog"
)

// Store is the deduplicated set of collected JavaScript URLs.
//
// A single mutex guards the set, the CDN filter flag and the hand-off to the
// dispatcher, so every mutation and the snapshot it publishes are atomic with
// respect to each other. Persistence and observer notification run on the
// dispatcher goroutine and never block callers.
type Store struct {
	mu               sync.Mutex
	urls             map[string]struct{}
	cdnPatterns      []string
	cdnFilterEnabled bool
	closed           bool

	scope      ScopeChecker
	settingKey string
	logger     zerolog.Logger

	dispatcher *dispatcher
}

// NewStore creates an empty store and starts its dispatcher. persister and
// observer may be nil. A nil scope allows everything.
func NewStore(cfg config.CollectorConfig, scope ScopeChecker, persister Persister, observer Observer, logger zerolog.Logger) *Store {
	storeLogger := logger.With().Str("component", "CollectionStore").Logger()

	if scope == nil {
		scope = AllowAll
	}
	settingKey := cfg.SettingKey
	if settingKey == "" {
		settingKey = config.DefaultCollectorSettingKey
	}

	patterns := make([]string, 0, len(cfg.CDNPatterns))
	for _, pattern := range cfg.CDNPatterns {
		if p := strings.ToLower(strings.TrimSpace(pattern)); p != "" {
			patterns = append(patterns, p)
		}
	}

	return &Store{
		urls:             make(map[string]struct{}),
		cdnPatterns:      patterns,
		cdnFilterEnabled: cfg.CDNFilterEnabled,
		scope:            scope,
		settingKey:       settingKey,
		logger:           storeLogger,
		dispatcher:       newDispatcher(settingKey, persister, observer, storeLogger),
	}
}

// Restore loads the set saved by a previous session. Missing, empty or
// unreadable data yields an empty set; a load failure is logged, not returned.
// It returns the number of URLs restored.
func (s *Store) Restore() int {
	data, err := s.dispatcher.load()
	if err != nil {
		s.logger.Warn().Err(err).Str("key", s.settingKey).Msg("Could not load saved JS URLs, starting empty")
		data = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for _, line := range strings.Split(data, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		// Saved data may predate the filter being switched on.
		if s.cdnFilterEnabled && s.matchesCDNLocked(trimmed) {
			dropped++
			continue
		}
		s.urls[trimmed] = struct{}{}
	}

	count := len(s.urls)
	if count > 0 {
		s.logger.Info().Int("count", count).Msgf("Restored %d JS URLs from previous session", count)
	}
	if dropped > 0 {
		s.logger.Info().Int("removed", dropped).Msg("Dropped saved CDN URLs while CDN filter is enabled")
	}
	s.publishLocked(models.ChangeReasonRestore, nil, dropped > 0)
	return count
}

// Add normalizes rawURL and inserts it unless it is malformed, out of scope,
// excluded by the CDN filter or already present. It reports whether the set changed.
func (s *Store) Add(rawURL string) bool {
	normalized := urlhandler.Normalize(rawURL)

	parsed, err := url.Parse(normalized)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		s.logger.Debug().Str("url", normalized).Err(err).Msg("Skipping malformed URL")
		return false
	}

	if !s.inScope(normalized) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cdnFilterEnabled && s.matchesCDNLocked(normalized) {
		s.logger.Debug().Str("url", normalized).Msg("Skipping CDN URL")
		return false
	}

	if _, exists := s.urls[normalized]; exists {
		return false
	}

	s.urls[normalized] = struct{}{}
	s.logger.Debug().Str("url", normalized).Int("count", len(s.urls)).Msg("Added JS URL")
	s.publishLocked(models.ChangeReasonAdd, []string{normalized}, true)
	return true
}

// SetCDNFilterEnabled switches the CDN filter. Enabling it purges every
// stored URL that matches a CDN pattern; disabling it restores nothing.
// It returns the number of URLs removed.
func (s *Store) SetCDNFilterEnabled(enabled bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled == s.cdnFilterEnabled {
		return 0
	}
	s.cdnFilterEnabled = enabled

	if !enabled {
		s.logger.Info().Msg("CDN filter disabled")
		return 0
	}

	removed := 0
	for u := range s.urls {
		if s.matchesCDNLocked(u) {
			delete(s.urls, u)
			removed++
		}
	}
	s.logger.Info().Int("removed", removed).Msg("CDN filter enabled")
	s.publishLocked(models.ChangeReasonCDNFilter, nil, true)
	return removed
}

// CDNFilterEnabled reports the current filter state.
func (s *Store) CDNFilterEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cdnFilterEnabled
}

// Clear empties the set.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urls = make(map[string]struct{})
	s.logger.Info().Msg("Cleared JavaScript URL list")
	s.publishLocked(models.ChangeReasonClear, nil, true)
}

// Export returns the collected URLs sorted lexicographically.
func (s *Store) Export() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

// Count returns the number of collected URLs.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.urls)
}

// Close stops the dispatcher after it has handled the last published
// snapshot. Mutations after Close change only the in-memory set.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.dispatcher.stop()
	s.mu.Unlock()

	s.dispatcher.wait()
}

func (s *Store) inScope(normalized string) bool {
	allowed, err := s.checkScope(normalized)
	if err != nil {
		s.logger.Debug().Str("url", normalized).Err(err).Msg("Scope check failed, treating URL as out of scope")
		return false
	}
	if !allowed {
		s.logger.Debug().Str("url", normalized).Msg("Skipping out of scope URL")
	}
	return allowed
}

// checkScope runs the scope predicate, reporting a panic in it as ErrScopeCheck.
func (s *Store) checkScope(normalized string) (allowed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			allowed = false
			err = fmt.Errorf("%w: panic: %v", ErrScopeCheck, r)
		}
	}()
	allowed, err = s.scope.IsURLAllowed(normalized)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrScopeCheck, err)
	}
	return allowed, nil
}

func (s *Store) matchesCDNLocked(rawURL string) bool {
	target := urlhandler.HostAndPath(rawURL)
	for _, pattern := range s.cdnPatterns {
		if strings.Contains(target, pattern) {
			return true
		}
	}
	return false
}

func (s *Store) sortedLocked() []string {
	sorted := make([]string, 0, len(s.urls))
	for u := range s.urls {
		sorted = append(sorted, u)
	}
	slices.Sort(sorted)
	return sorted
}

func (s *Store) publishLocked(reason models.ChangeReason, added []string, persist bool) {
	if s.closed {
		s.logger.Debug().Str("reason", string(reason)).Msg("Store closed, change not published")
		return
	}
	s.dispatcher.publish(snapshot{
		urls:    s.sortedLocked(),
		added:   added,
		reason:  reason,
		persist: persist,
	})
}
