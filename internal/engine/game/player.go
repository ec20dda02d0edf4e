package game

import "github.com/google/uuid"

// PlayerStatus is the per-player lifecycle state within one game.
type PlayerStatus string

const (
	PlayerStatusRegistered PlayerStatus = "registered"
	PlayerStatusBuyingIn   PlayerStatus = "buying_in"
	PlayerStatusActive     PlayerStatus = "active"
	PlayerStatusAway       PlayerStatus = "away"
	PlayerStatusOut        PlayerStatus = "out"
)

// Player is one user's participation in a game. Created on registration
// and mutated only by the owning manager's tick. Players are never deleted;
// leaving marks the player out.
type Player struct {
	UserID     uuid.UUID    `json:"user_id"`
	Username   string       `json:"username"`
	Status     PlayerStatus `json:"status"`
	Chips      int64        `json:"chips"`
	TotalBuyIn int64        `json:"total_buy_in"`
	TotalRebuy int64        `json:"total_rebuy"`
	TotalAddOn int64        `json:"total_add_on"`
	TableID    *uuid.UUID   `json:"table_id,omitempty"`
}

// CanBeSeated reports whether the player should occupy a seat when tables
// are created or rebalanced.
func (p *Player) CanBeSeated() bool {
	switch p.Status {
	case PlayerStatusOut:
		return false
	default:
		return true
	}
}

// Funded reports whether the player has chips to play a hand with.
func (p *Player) Funded() bool {
	return p.Chips > 0
}
