// Package event defines the closed set of facts the engine emits. Events are
// the only channel through which outside observers learn that state changed;
// nothing outside a game's own tick reads live game state.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/cards"
)

// Type discriminates event variants on the wire.
type Type string

const (
	TypeGameStatusChanged    Type = "game.status_changed"
	TypeGameMessage          Type = "game.message"
	TypePlayerRegistered     Type = "player.registered"
	TypePlayerUnregistered   Type = "player.unregistered"
	TypePlayerBuyIn          Type = "player.buy_in"
	TypePlayerMoved          Type = "player.moved"
	TypeHandStarted          Type = "hand.started"
	TypeHoleCardsDealt       Type = "hand.hole_cards_dealt"
	TypeCommunityCardsDealt  Type = "hand.community_cards_dealt"
	TypePlayerActed          Type = "hand.player_acted"
	TypeBettingRoundComplete Type = "hand.betting_round_complete"
	TypePlayerTimedOut       Type = "hand.player_timed_out"
	TypeShowdownResult       Type = "hand.showdown_result"
	TypeHandComplete         Type = "hand.complete"
	TypeUserMessage          Type = "user.message"
	TypeSystemError          Type = "system.error"
)

// Event is an immutable fact about something that already happened.
type Event interface {
	EventType() Type
	EventGameID() uuid.UUID
	OccurredAt() time.Time
}

// UserScoped marks an event that must be delivered only to one user's
// listeners and never broadcast, even when the event would otherwise be
// broadcastable (private hole cards).
type UserScoped interface {
	Event
	RecipientUserID() uuid.UUID
}

// Base carries the fields common to every event.
type Base struct {
	ID     uuid.UUID `json:"id"`
	GameID uuid.UUID `json:"game_id"`
	Time   time.Time `json:"time"`
}

func NewBase(gameID uuid.UUID, now time.Time) Base {
	return Base{ID: uuid.New(), GameID: gameID, Time: now}
}

func (b Base) EventGameID() uuid.UUID { return b.GameID }
func (b Base) OccurredAt() time.Time  { return b.Time }

// GameStatusChanged records a game-level state machine transition.
type GameStatusChanged struct {
	Base
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

func (GameStatusChanged) EventType() Type { return TypeGameStatusChanged }

// GameMessage is a broadcast informational message for a game.
type GameMessage struct {
	Base
	Message string `json:"message"`
}

func (GameMessage) EventType() Type { return TypeGameMessage }

// PlayerRegistered records a successful registration.
type PlayerRegistered struct {
	Base
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

func (PlayerRegistered) EventType() Type { return TypePlayerRegistered }

// PlayerUnregistered records a player leaving before the game started.
type PlayerUnregistered struct {
	Base
	UserID uuid.UUID `json:"user_id"`
}

func (PlayerUnregistered) EventType() Type { return TypePlayerUnregistered }

// PlayerBuyIn records chips entering a player's stack.
type PlayerBuyIn struct {
	Base
	UserID uuid.UUID `json:"user_id"`
	Amount int64     `json:"amount"`
	Kind   string    `json:"kind"` // buy_in, rebuy, add_on
}

func (PlayerBuyIn) EventType() Type { return TypePlayerBuyIn }

// PlayerMoved records a table reassignment during seating or balancing.
type PlayerMoved struct {
	Base
	UserID      uuid.UUID  `json:"user_id"`
	FromTableID *uuid.UUID `json:"from_table_id,omitempty"`
	ToTableID   uuid.UUID  `json:"to_table_id"`
}

func (PlayerMoved) EventType() Type { return TypePlayerMoved }

// HandStarted records the start of a hand at a table.
type HandStarted struct {
	Base
	TableID        uuid.UUID `json:"table_id"`
	HandNumber     int64     `json:"hand_number"`
	DealerSeat     int       `json:"dealer_seat"`
	SmallBlindSeat int       `json:"small_blind_seat"`
	BigBlindSeat   int       `json:"big_blind_seat"`
	SmallBlind     int64     `json:"small_blind"`
	BigBlind       int64     `json:"big_blind"`
	Ante           int64     `json:"ante,omitempty"`
}

func (HandStarted) EventType() Type { return TypeHandStarted }

// HoleCardsDealt carries one player's private cards. User-scoped: it must
// reach only the matching user's listeners.
type HoleCardsDealt struct {
	Base
	TableID uuid.UUID    `json:"table_id"`
	UserID  uuid.UUID    `json:"user_id"`
	Seat    int          `json:"seat"`
	Cards   []cards.Card `json:"cards"`
}

func (HoleCardsDealt) EventType() Type              { return TypeHoleCardsDealt }
func (e HoleCardsDealt) RecipientUserID() uuid.UUID { return e.UserID }

// CommunityCardsDealt records new community cards at a table.
type CommunityCardsDealt struct {
	Base
	TableID uuid.UUID    `json:"table_id"`
	Phase   string       `json:"phase"`
	Cards   []cards.Card `json:"cards"`
}

func (CommunityCardsDealt) EventType() Type { return TypeCommunityCardsDealt }

// PlayerActed records a betting action that was applied.
type PlayerActed struct {
	Base
	TableID uuid.UUID `json:"table_id"`
	UserID  uuid.UUID `json:"user_id"`
	Seat    int       `json:"seat"`
	Action  string    `json:"action"`
	Amount  int64     `json:"amount,omitempty"`
}

func (PlayerActed) EventType() Type { return TypePlayerActed }

// BettingRoundComplete records the end of a betting round.
type BettingRoundComplete struct {
	Base
	TableID  uuid.UUID `json:"table_id"`
	Phase    string    `json:"phase"`
	PotTotal int64     `json:"pot_total"`
}

func (BettingRoundComplete) EventType() Type { return TypeBettingRoundComplete }

// PlayerTimedOut records a default action applied on a player's behalf.
type PlayerTimedOut struct {
	Base
	TableID uuid.UUID `json:"table_id"`
	UserID  uuid.UUID `json:"user_id"`
	Seat    int       `json:"seat"`
	Action  string    `json:"action"` // the default that was applied
}

func (PlayerTimedOut) EventType() Type { return TypePlayerTimedOut }

// PotResult describes one pot's outcome at showdown.
type PotResult struct {
	Amount      int64       `json:"amount"`
	WinnerSeats []int       `json:"winner_seats"`
	WinnerUsers []uuid.UUID `json:"winner_users"`
	HandName    string      `json:"hand_name,omitempty"`
}

// ShowdownResult records per-pot winners with a readable hand description.
type ShowdownResult struct {
	Base
	TableID uuid.UUID   `json:"table_id"`
	Pots    []PotResult `json:"pots"`
}

func (ShowdownResult) EventType() Type { return TypeShowdownResult }

// HandComplete records the end of a hand.
type HandComplete struct {
	Base
	TableID    uuid.UUID `json:"table_id"`
	HandNumber int64     `json:"hand_number"`
}

func (HandComplete) EventType() Type { return TypeHandComplete }

// Severity of a UserMessage.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// UserMessage is a user-scoped notice, the only way validation failures are
// surfaced to players.
type UserMessage struct {
	Base
	UserID   uuid.UUID `json:"user_id"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
}

func (UserMessage) EventType() Type              { return TypeUserMessage }
func (e UserMessage) RecipientUserID() uuid.UUID { return e.UserID }

// SystemError records an engine fault. Delivered only to the user that
// triggered it, when one exists; otherwise it stays in the logs.
type SystemError struct {
	Base
	UserID  *uuid.UUID `json:"user_id,omitempty"`
	TableID *uuid.UUID `json:"table_id,omitempty"`
	Message string     `json:"message"`
}

func (SystemError) EventType() Type { return TypeSystemError }

// HasRecipient reports whether the error is scoped to a user.
func (e SystemError) HasRecipient() bool { return e.UserID != nil }
