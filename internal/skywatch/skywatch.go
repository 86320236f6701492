// Package skywatch maintains a periodically refreshed snapshot of the whole
// sky: the apparent position of every supported body for one observer. The
// server answers "what's up right now" queries from the snapshot instead of
// recomputing the full body set per request.
package skywatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/almanac/body"
	"github.com/signalsfoundry/almanac/earth"
	"github.com/signalsfoundry/almanac/frames"
	"github.com/signalsfoundry/almanac/internal/logging"
	"github.com/signalsfoundry/almanac/internal/observability"
	"github.com/signalsfoundry/almanac/solarsystem"
	"github.com/signalsfoundry/almanac/timescale"
)

// Snapshot is one full-sky refresh.
type Snapshot struct {
	Time      timescale.Time
	Site      string // empty for a geocentric observer
	Coords    map[body.Body]frames.SkyCoord
	Refreshed time.Time
}

// Config assembles a Watcher.
type Config struct {
	// Site labels the observer in snapshots; informational only.
	Site string
	// Location is the observer; nil means geocentric.
	Location *earth.Location
	// Ephemeris names the source for refreshes; empty uses the default.
	Ephemeris string
	// Interval between refreshes. Zero defaults to one minute.
	Interval time.Duration
	// Bodies to track. Nil tracks every body except the observer.
	Bodies []body.Body

	Logger  logging.Logger
	Metrics *observability.PipelineCollector

	// Now overrides the wall clock, for tests.
	Now func() time.Time
}

// Watcher refreshes and serves sky snapshots.
type Watcher struct {
	cfg Config

	mu       sync.RWMutex
	snapshot Snapshot
	fresh    bool
	subs     map[int]func(Snapshot)
	nextSub  int
}

// New builds a Watcher; it holds no snapshot until the first Refresh.
func New(cfg Config) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Bodies == nil {
		for _, b := range body.All() {
			if b == body.Earth || b == body.EarthMoonBarycenter {
				continue
			}
			cfg.Bodies = append(cfg.Bodies, b)
		}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Noop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Watcher{cfg: cfg, subs: make(map[int]func(Snapshot))}
}

// Refresh recomputes the snapshot at the current instant and notifies
// subscribers. Bodies that fail to compute are left out of the snapshot.
func (w *Watcher) Refresh(ctx context.Context) error {
	now := w.cfg.Now().UTC()
	at := timescale.FromTime(now)

	coords := make(map[body.Body]frames.SkyCoord, len(w.cfg.Bodies))
	var failed int
	for _, b := range w.cfg.Bodies {
		start := time.Now()
		c, err := solarsystem.GetBody(string(b), at, w.cfg.Location,
			solarsystem.WithEphemeris(w.cfg.Ephemeris))
		w.cfg.Metrics.ObserveComputation(time.Since(start))
		if err != nil {
			failed++
			w.cfg.Logger.Warn(ctx, "sky refresh skipped body",
				logging.String("body", string(b)),
				logging.String("error", err.Error()),
			)
			continue
		}
		coords[b] = c
	}
	if len(coords) == 0 {
		return fmt.Errorf("sky refresh at %s: no body could be computed", at)
	}

	snap := Snapshot{
		Time:      at,
		Site:      w.cfg.Site,
		Coords:    coords,
		Refreshed: now,
	}

	w.mu.Lock()
	w.snapshot = snap
	w.fresh = true
	subs := make([]func(Snapshot), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	w.cfg.Metrics.SetSnapshotBodies(len(coords))
	w.cfg.Logger.Debug(ctx, "sky snapshot refreshed",
		logging.Int("bodies", len(coords)),
		logging.Int("failed", failed),
	)

	// Notify outside the lock to avoid deadlocks with subscribers that
	// read the snapshot.
	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// Snapshot returns the latest snapshot; ok is false before the first
// successful refresh.
func (w *Watcher) Snapshot() (Snapshot, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot, w.fresh
}

// Subscribe registers a callback invoked after every refresh. It returns an
// unsubscribe function.
func (w *Watcher) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.subs, id)
	}
}

// Run refreshes immediately, then on every interval tick until the context
// is cancelled. Refresh errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Refresh(ctx); err != nil {
		w.cfg.Logger.Error(ctx, "initial sky refresh failed", logging.String("error", err.Error()))
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				w.cfg.Logger.Error(ctx, "sky refresh failed", logging.String("error", err.Error()))
			}
		}
	}
}
