// Package manager hosts the concurrency boundary around one game. A Manager
// owns its Game exclusively: commands are submitted from any goroutine but
// only ever applied inside ProcessTick, which runs at most once at a time.
package manager

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
	"github.com/cardroomlabs/cardroom/internal/engine/holdem"
	"github.com/cardroomlabs/cardroom/internal/store"
)

// ErrTickInProgress is returned when a tick is requested while the previous
// one is still running. The scheduler treats it as "skip, retry next pass".
var ErrTickInProgress = errors.New("tick already in progress")

// Listener receives a game's events. Accepts is optional; the per-user
// delivery policy is enforced by the manager before it is consulted.
type Listener struct {
	ID      string
	UserID  *uuid.UUID
	Accepts func(event.Event) bool
	OnEvent func(event.Event)
}

// Manager drives one game: an unbounded multi-producer command queue drained
// by a single-consumer tick.
type Manager struct {
	logger *slog.Logger
	rules  holdem.Rules
	store  store.GameStore

	queueMu sync.Mutex
	queue   []command.Command

	// tickMu makes ProcessTick non-reentrant. TryLock, never Lock: a
	// second concurrent tick must be refused, not serialized.
	tickMu sync.Mutex

	game *game.Game

	listenerMu sync.RWMutex
	listeners  map[string]Listener
}

// New wraps a game in a manager.
func New(g *game.Game, st store.GameStore, logger *slog.Logger) *Manager {
	return &Manager{
		logger:    logger.With("component", "game_manager", "game_id", g.ID.String()),
		rules:     holdem.New(),
		store:     st,
		game:      g,
		listeners: make(map[string]Listener),
	}
}

// GameID returns the managed game's id.
func (m *Manager) GameID() uuid.UUID {
	return m.game.ID
}

// Completed reports whether the managed game reached its terminal status.
// Only safe to read between ticks (the scheduler's single-submission
// guarantee provides that).
func (m *Manager) Completed() bool {
	return m.game.Completed()
}

// Submit enqueues a command. Non-blocking, safe from any goroutine, and
// never touches game state.
func (m *Manager) Submit(cmd command.Command) {
	m.queueMu.Lock()
	m.queue = append(m.queue, cmd)
	m.queueMu.Unlock()
}

// AddListener registers an event listener.
func (m *Manager) AddListener(l Listener) {
	m.listenerMu.Lock()
	m.listeners[l.ID] = l
	m.listenerMu.Unlock()
}

// RemoveListener drops a listener by id.
func (m *Manager) RemoveListener(id string) {
	m.listenerMu.Lock()
	delete(m.listeners, id)
	m.listenerMu.Unlock()
}

// ProcessTick drains the queue, applies the state machines, and flushes any
// produced events to listeners and storage. At most one tick runs at a time;
// a concurrent call returns ErrTickInProgress.
func (m *Manager) ProcessTick(ctx context.Context, now time.Time) error {
	if !m.tickMu.TryLock() {
		return ErrTickInProgress
	}
	defer m.tickMu.Unlock()

	m.queueMu.Lock()
	pending := m.queue
	m.queue = nil
	m.queueMu.Unlock()

	evs := event.NewContext()

	for _, cmd := range pending {
		m.applyRecovered(cmd, now, evs)
	}

	m.game.Advance(now, evs)

	for _, t := range m.sortedTables() {
		m.advanceRecovered(t, now, evs)
	}

	// A pause that finished draining during table advancement takes effect
	// within the same tick.
	m.game.ResolvePending(now, evs)

	if !evs.Any() {
		return nil
	}

	if err := m.store.Save(ctx, m.game); err != nil {
		m.logger.Error("snapshot save failed", "error", err)
	}
	m.flush(evs.Events())
	return nil
}

// applyRecovered applies one command; a panic is contained to that command
// and surfaced as a SystemError so the rest of the tick proceeds.
func (m *Manager) applyRecovered(cmd command.Command, now time.Time, evs *event.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("panic applying command", "command", string(cmd.CommandType()), "panic", rec)
			issuer := cmd.IssuingUser()
			evs.Emit(event.SystemError{
				Base:    event.NewBase(m.game.ID, now),
				UserID:  &issuer,
				Message: "internal error applying command",
			})
		}
	}()
	m.apply(cmd, now, evs)
}

// advanceRecovered advances one table; a panic is contained to that table.
func (m *Manager) advanceRecovered(t *game.Table, now time.Time, evs *event.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			m.logger.Error("panic advancing table", "table_id", t.ID.String(), "panic", rec)
			evs.Emit(event.SystemError{
				Base:    event.NewBase(m.game.ID, now),
				TableID: &t.ID,
				Message: "internal error advancing table",
			})
		}
	}()
	m.rules.Advance(m.game, t, now, evs)
}

// flush delivers events under the filtering policy: user-scoped events go
// only to that user's listeners, system errors only to the triggering user,
// everything else is broadcast. A listener's own predicate applies on top.
func (m *Manager) flush(events []event.Event) {
	m.listenerMu.RLock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.listenerMu.RUnlock()

	for _, e := range events {
		for _, l := range listeners {
			if !accepts(l, e) {
				continue
			}
			l.OnEvent(e)
		}
	}
}

func accepts(l Listener, e event.Event) bool {
	switch scoped := e.(type) {
	case event.SystemError:
		if scoped.UserID == nil {
			return false
		}
		if l.UserID == nil || *l.UserID != *scoped.UserID {
			return false
		}
	case event.UserScoped:
		if l.UserID == nil || *l.UserID != scoped.RecipientUserID() {
			return false
		}
	}
	if l.Accepts != nil && !l.Accepts(e) {
		return false
	}
	return true
}

func (m *Manager) sortedTables() []*game.Table {
	tables := make([]*game.Table, 0, len(m.game.Tables))
	for _, t := range m.game.Tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID.String() < tables[j].ID.String() })
	return tables
}
