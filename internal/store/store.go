// Package store is the persistence boundary for game snapshots. The engine
// hands a complete aggregate to Save after any tick that produced events and
// reads it back only when materializing a manager.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

// GameStore persists and queries game snapshots.
type GameStore interface {
	// Save durably stores the full aggregate.
	Save(ctx context.Context, g *game.Game) error
	// Load reads a snapshot by id, returning game.ErrGameNotFound when
	// absent.
	Load(ctx context.Context, id uuid.UUID) (*game.Game, error)
	// FindDueGames returns the ids of games the scheduler should have in
	// memory: not completed, with a start time inside the look-ahead
	// window.
	FindDueGames(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error)
}
