// Package game holds the Game aggregate: players, tables, and the game-level
// state machine. All mutation happens inside the owning manager's tick; no
// other execution context may touch a Game.
package game

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/blinds"
)

// Status is the game-level lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusSeating   Status = "seating"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusBalancing Status = "balancing"
	StatusCompleted Status = "completed"
)

// Format distinguishes cash games from tournaments.
type Format string

const (
	FormatCash       Format = "cash"
	FormatTournament Format = "tournament"
)

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrNotOwner            = errors.New("only the game owner may do this")
	ErrWrongStatus         = errors.New("illegal in current game status")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrNotRegistered       = errors.New("not registered for this game")
	ErrNotEnoughPlayers    = errors.New("not enough players")
	ErrStartTimeNotReached = errors.New("start time not reached")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrRebuyClosed         = errors.New("rebuys are closed")
	ErrAddOnClosed         = errors.New("add-ons are not available")
	ErrTableNotFound       = errors.New("table not found")
)

// FormatConfig is the format-specific configuration value: one concrete Game
// aggregate plus this value and a per-format table strategy replaces any
// per-format type hierarchy.
type FormatConfig struct {
	SeatsPerTable   int             `json:"seats_per_table"`
	MinPlayers      int             `json:"min_players"`
	StartingChips   int64           `json:"starting_chips"`
	BuyInMin        int64           `json:"buy_in_min"`
	BuyInMax        int64           `json:"buy_in_max"`
	RebuyChips      int64           `json:"rebuy_chips,omitempty"`
	AddOnChips      int64           `json:"add_on_chips,omitempty"`
	Blinds          blinds.Schedule `json:"blinds"`
	LevelDuration   time.Duration   `json:"level_duration,omitempty"`
	ActionTimeout   time.Duration   `json:"action_timeout"`
	ReviewPeriod    time.Duration   `json:"review_period"`
	SeatingLeadTime time.Duration   `json:"seating_lead_time"`
}

// Defaults applied where a config field was left zero.
const (
	DefaultSeatsPerTable   = 9
	DefaultMinPlayers      = 2
	DefaultActionTimeout   = 30 * time.Second
	DefaultReviewPeriod    = 15 * time.Second
	DefaultSeatingLeadTime = 5 * time.Minute
)

// Normalize fills unset config fields with defaults.
func (c *FormatConfig) Normalize() {
	if c.SeatsPerTable <= 0 {
		c.SeatsPerTable = DefaultSeatsPerTable
	}
	if c.MinPlayers < DefaultMinPlayers {
		c.MinPlayers = DefaultMinPlayers
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = DefaultActionTimeout
	}
	if c.ReviewPeriod <= 0 {
		c.ReviewPeriod = DefaultReviewPeriod
	}
	if c.SeatingLeadTime <= 0 {
		c.SeatingLeadTime = DefaultSeatingLeadTime
	}
}

// Game is the aggregate for one running game: identity, format, lifecycle
// status, registered players and live tables.
type Game struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Format Format    `json:"format"`
	Status Status    `json:"status"`
	// Pending holds a requested terminal-ish status (paused or completed)
	// that takes effect once every table has drained its hand.
	Pending   Status    `json:"pending,omitempty"`
	OwnerID   uuid.UUID `json:"owner_id"`
	StartTime time.Time `json:"start_time"`
	CreatedAt time.Time `json:"created_at"`

	Config FormatConfig `json:"config"`

	Players map[uuid.UUID]*Player `json:"players"`
	Tables  map[uuid.UUID]*Table  `json:"tables"`

	// Tournament blind level tracking. Cash games stay at level 0.
	CurrentLevel   int       `json:"current_level"`
	LevelStartedAt time.Time `json:"level_started_at,omitempty"`
}

// New creates a game in SCHEDULED status.
func New(name string, format Format, ownerID uuid.UUID, startTime time.Time, cfg FormatConfig, now time.Time) *Game {
	cfg.Normalize()
	return &Game{
		ID:        uuid.New(),
		Name:      name,
		Format:    format,
		Status:    StatusScheduled,
		OwnerID:   ownerID,
		StartTime: startTime,
		CreatedAt: now,
		Config:    cfg,
		Players:   make(map[uuid.UUID]*Player),
		Tables:    make(map[uuid.UUID]*Table),
	}
}

// CurrentBlinds returns the blinds for the game's current level.
func (g *Game) CurrentBlinds() blinds.Level {
	return g.Config.Blinds.Level(g.CurrentLevel)
}

// IsOwner reports whether the user administers this game.
func (g *Game) IsOwner(userID uuid.UUID) bool {
	return g.OwnerID == userID
}

// Completed reports whether the game reached its terminal status.
func (g *Game) Completed() bool {
	return g.Status == StatusCompleted
}

// Table returns a table by id.
func (g *Game) Table(id uuid.UUID) (*Table, bool) {
	t, ok := g.Tables[id]
	return t, ok
}

// PlayerTable returns the table a player is seated at, if any.
func (g *Game) PlayerTable(userID uuid.UUID) (*Table, bool) {
	p, ok := g.Players[userID]
	if !ok || p.TableID == nil {
		return nil, false
	}
	return g.Table(*p.TableID)
}

// RegisteredCount returns the number of players not marked out.
func (g *Game) RegisteredCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Status != PlayerStatusOut {
			n++
		}
	}
	return n
}

// AllTablesPaused reports whether every table has drained and paused.
func (g *Game) AllTablesPaused() bool {
	for _, t := range g.Tables {
		if t.Status != TableStatusPaused {
			return false
		}
	}
	return true
}

// TotalChips sums chips across all stacks, pots and live bets. The engine's
// chip-conservation invariant holds this constant between buy-ins.
func (g *Game) TotalChips() int64 {
	var total int64
	for _, p := range g.Players {
		total += p.Chips
	}
	for _, t := range g.Tables {
		for _, pot := range t.Pots {
			total += pot.Amount
		}
		for _, s := range t.Seats {
			if s != nil {
				total += s.CurrentBet
			}
		}
	}
	return total
}
