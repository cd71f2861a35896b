package collector

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/jscollector/internal/models"

	"github.com/rs/zerolog"
)

type snapshot struct {
	urls    []string
	added   []string
	reason  models.ChangeReason
	persist bool
}

// merge folds an undelivered older snapshot into a newer one.
func (snap snapshot) merge(older snapshot) snapshot {
	snap.persist = snap.persist || older.persist
	if len(older.added) > 0 {
		snap.added = append(append([]string(nil), older.added...), snap.added...)
	}
	return snap
}

// dispatcher applies snapshots to the persister and observer one at a time.
// Its queue holds at most one pending snapshot; publishing replaces a
// pending one, so a slow backend only ever sees the latest state.
type dispatcher struct {
	pending    chan snapshot
	settingKey string
	persister  Persister
	observer   Observer
	logger     zerolog.Logger
	wg         sync.WaitGroup
}

func newDispatcher(settingKey string, persister Persister, observer Observer, logger zerolog.Logger) *dispatcher {
	d := &dispatcher{
		pending:    make(chan snapshot, 1),
		settingKey: settingKey,
		persister:  persister,
		observer:   observer,
		logger:     logger,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// publish must be called with the store lock held. The lock makes the store
// the only sender, so after draining the slot the send cannot block.
func (d *dispatcher) publish(snap snapshot) {
	select {
	case older := <-d.pending:
		snap = snap.merge(older)
	default:
	}
	d.pending <- snap
}

// stop must be called with the store lock held, at most once.
func (d *dispatcher) stop() {
	close(d.pending)
}

func (d *dispatcher) wait() {
	d.wg.Wait()
}

func (d *dispatcher) load() (string, error) {
	if d.persister == nil {
		return "", nil
	}
	data, err := d.persister.LoadSetting(d.settingKey)
	if err != nil {
		return "", fmt.Errorf("%w: load %q: %w", ErrPersistence, d.settingKey, err)
	}
	return data, nil
}

func (d *dispatcher) run() {
	defer d.wg.Done()
	for snap := range d.pending {
		d.apply(snap)
	}
}

func (d *dispatcher) apply(snap snapshot) {
	if snap.persist && d.persister != nil {
		if err := d.persister.SaveSetting(d.settingKey, strings.Join(snap.urls, "\n")); err != nil {
			d.logger.Warn().Err(fmt.Errorf("%w: save %q: %w", ErrPersistence, d.settingKey, err)).Int("count", len(snap.urls)).Msg("Failed to persist JS URLs")
		}
	}

	if d.observer == nil {
		return
	}
	event := models.ChangeEvent{
		URLs:      snap.urls,
		Count:     len(snap.urls),
		Added:     snap.added,
		Reason:    snap.reason,
		Timestamp: time.Now(),
	}
	if err := d.observer.Notify(context.Background(), event); err != nil {
		d.logger.Warn().Err(err).Str("reason", string(snap.reason)).Msg("Failed to deliver change notification")
	}
}
