// Package scheduler drives every hosted game from one clock. A fixed worker
// pool processes game ticks; a game whose previous tick is still running is
// skipped, never queued, so a slow game can delay only itself.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cardroomlabs/cardroom/internal/engine/game"
	"github.com/cardroomlabs/cardroom/internal/engine/manager"
	"github.com/cardroomlabs/cardroom/internal/store"
)

// Options tune the scheduler. Zero values fall back to defaults.
type Options struct {
	TickPeriod   time.Duration // cadence of the tick pass
	LoadInterval time.Duration // cadence of the due-game sweep
	Workers      int           // tick worker pool size
	QueueDepth   int           // pending tick buffer; full buffer skips
}

func (o *Options) defaults() {
	if o.TickPeriod <= 0 {
		o.TickPeriod = time.Second
	}
	if o.LoadInterval <= 0 {
		o.LoadInterval = time.Minute
	}
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.QueueDepth <= 0 {
		o.QueueDepth = o.Workers * 4
	}
}

// entry is one hosted game. Loading happens at most once per entry; inFlight
// guarantees a single outstanding tick per game.
type entry struct {
	once sync.Once
	mgr  *manager.Manager
	err  error

	inFlight atomic.Bool
}

// Scheduler owns the manager directory and the tick loop.
type Scheduler struct {
	logger *slog.Logger
	clock  quartz.Clock
	store  store.GameStore
	opts   Options

	mu      sync.Mutex
	entries map[uuid.UUID]*entry

	// passBusy is the tick-pass token. A pass that finds it held is
	// dropped entirely; the next ticker fire tries again.
	passBusy atomic.Bool

	tasks chan tickTask
}

type tickTask struct {
	e   *entry
	now time.Time
}

// New builds a scheduler. Pass quartz.NewReal() outside of tests.
func New(st store.GameStore, clock quartz.Clock, logger *slog.Logger, opts Options) *Scheduler {
	opts.defaults()
	return &Scheduler{
		logger:  logger.With("component", "scheduler"),
		clock:   clock,
		store:   st,
		opts:    opts,
		entries: make(map[uuid.UUID]*entry),
		tasks:   make(chan tickTask, opts.QueueDepth),
	}
}

// Run blocks until ctx is cancelled. In-flight ticks finish before return.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < s.opts.Workers; i++ {
		g.Go(func() error {
			s.worker(ctx)
			return nil
		})
	}

	tick := s.clock.TickerFunc(ctx, s.opts.TickPeriod, func() error {
		s.pass(ctx)
		return nil
	}, "tick")

	sweep := s.clock.TickerFunc(ctx, s.opts.LoadInterval, func() error {
		s.loadDue(ctx)
		return nil
	}, "sweep")

	s.loadDue(ctx)

	<-ctx.Done()
	_ = tick.Wait()
	_ = sweep.Wait()
	close(s.tasks)
	return g.Wait()
}

// pass dispatches one tick for every hosted game. Dispatch is non-blocking
// twice over: a pass overlapping the previous pass is dropped, and a game
// that cannot be handed to the pool is skipped until the next pass.
func (s *Scheduler) pass(ctx context.Context) {
	if !s.passBusy.CompareAndSwap(false, true) {
		s.logger.Warn("tick pass still running, skipping")
		return
	}
	defer s.passBusy.Store(false)

	now := s.clock.Now()
	for id, e := range s.snapshot() {
		if e.mgr == nil {
			continue
		}
		if !e.inFlight.CompareAndSwap(false, true) {
			s.logger.Warn("tick still in flight, skipping game", "game_id", id.String())
			continue
		}
		// Holding the token excludes a running tick, so the status read
		// cannot race with the tick's own writes.
		if e.mgr.Completed() {
			e.inFlight.Store(false)
			s.evict(id)
			continue
		}
		select {
		case s.tasks <- tickTask{e: e, now: now}:
		default:
			e.inFlight.Store(false)
			s.logger.Warn("tick queue full, skipping game", "game_id", id.String())
		}
	}
}

func (s *Scheduler) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-s.tasks:
			if !ok {
				return
			}
			if err := t.e.mgr.ProcessTick(ctx, t.now); err != nil {
				s.logger.Error("tick failed", "game_id", t.e.mgr.GameID().String(), "error", err)
			}
			t.e.inFlight.Store(false)
		}
	}
}

// loadDue pulls games whose start time falls within the lead window into the
// directory so seating opens without anyone asking for the game first.
func (s *Scheduler) loadDue(ctx context.Context) {
	ids, err := s.store.FindDueGames(ctx, s.clock.Now(), 2*s.opts.LoadInterval)
	if err != nil {
		s.logger.Error("due game sweep failed", "error", err)
		return
	}
	for _, id := range ids {
		if _, err := s.Manager(ctx, id); err != nil {
			s.logger.Error("loading due game failed", "game_id", id.String(), "error", err)
		}
	}
}

// Manager returns the manager for a game, loading its snapshot on first use.
// Concurrent callers for the same unloaded game share a single load.
func (s *Scheduler) Manager(ctx context.Context, id uuid.UUID) (*manager.Manager, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	s.mu.Unlock()

	e.once.Do(func() {
		g, err := s.store.Load(ctx, id)
		if err != nil {
			e.err = err
			return
		}
		e.mgr = manager.New(g, s.store, s.logger)
	})

	if e.err != nil {
		// A failed load must not poison the slot forever.
		s.mu.Lock()
		if s.entries[id] == e {
			delete(s.entries, id)
		}
		s.mu.Unlock()
		return nil, e.err
	}
	return e.mgr, nil
}

// Create registers a freshly built game, persisting it first.
func (s *Scheduler) Create(ctx context.Context, g *game.Game) (*manager.Manager, error) {
	if err := s.store.Save(ctx, g); err != nil {
		return nil, err
	}

	e := &entry{mgr: manager.New(g, s.store, s.logger)}
	e.once.Do(func() {})

	s.mu.Lock()
	s.entries[g.ID] = e
	s.mu.Unlock()
	return e.mgr, nil
}

func (s *Scheduler) snapshot() map[uuid.UUID]*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*entry, len(s.entries))
	for id, e := range s.entries {
		out[id] = e
	}
	return out
}

func (s *Scheduler) evict(id uuid.UUID) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	s.logger.Info("completed game evicted", "game_id", id.String())
}
