package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/cards"
)

// TableStatus is the per-table run state.
type TableStatus string

const (
	TableStatusPaused         TableStatus = "paused"
	TableStatusPlaying        TableStatus = "playing"
	TableStatusPauseAfterHand TableStatus = "pause_after_hand"
)

// Phase is the hand lifecycle phase of a table, cycling once per hand.
type Phase string

const (
	PhaseWaitingForPlayers Phase = "waiting_for_players"
	PhasePreDeal           Phase = "predeal"
	PhaseDeal              Phase = "deal"
	PhasePreFlopBetting    Phase = "pre_flop_betting"
	PhaseFlop              Phase = "flop"
	PhaseFlopBetting       Phase = "flop_betting"
	PhaseTurn              Phase = "turn"
	PhaseTurnBetting       Phase = "turn_betting"
	PhaseRiver             Phase = "river"
	PhaseRiverBetting      Phase = "river_betting"
	PhaseShowdown          Phase = "showdown"
	PhaseHandComplete      Phase = "hand_complete"
)

// BettingPhase reports whether the phase expects player actions.
func (p Phase) BettingPhase() bool {
	switch p {
	case PhasePreFlopBetting, PhaseFlopBetting, PhaseTurnBetting, PhaseRiverBetting:
		return true
	}
	return false
}

// SeatStatus is the state of one seat for the current hand.
type SeatStatus string

const (
	SeatStatusEmpty         SeatStatus = "empty"
	SeatStatusJoinedWaiting SeatStatus = "joined_waiting"
	SeatStatusActive        SeatStatus = "active"
	SeatStatusFolded        SeatStatus = "folded"
	SeatStatusAway          SeatStatus = "away"
)

// Intent is a pre-selected action applied when the seat's turn arrives, if
// still legal at that point.
type Intent struct {
	Action string `json:"action"`
	Amount int64  `json:"amount,omitempty"`
}

// Seat is one position at a table.
type Seat struct {
	Status     SeatStatus   `json:"status"`
	PlayerID   *uuid.UUID   `json:"player_id,omitempty"`
	HoleCards  []cards.Card `json:"hole_cards,omitempty"`
	CurrentBet int64        `json:"current_bet"`
	// HandBet accumulates collected bets across the whole hand; side pot
	// layering is derived from these totals.
	HandBet    int64   `json:"hand_bet"`
	LastAction string  `json:"last_action,omitempty"`
	Acted      bool    `json:"acted"`
	AllIn      bool    `json:"all_in"`
	Intent     *Intent `json:"intent,omitempty"`
	Revealed   bool    `json:"revealed,omitempty"`
	// PendingBlind marks a seat that owes a dead big blind next deal
	// (returned from away or posted out of turn).
	PendingBlind bool `json:"pending_blind,omitempty"`
}

// Occupied reports whether a player holds this seat.
func (s *Seat) Occupied() bool {
	return s.Status != SeatStatusEmpty && s.PlayerID != nil
}

// InHand reports whether the seat is live in the current hand.
func (s *Seat) InHand() bool {
	return s.Status == SeatStatusActive
}

// CanAct reports whether the seat may take a betting action.
func (s *Seat) CanAct() bool {
	return s.Status == SeatStatusActive && !s.AllIn
}

// Pot is a chip amount together with the seat positions eligible to win it.
// Side pots narrow eligibility as players go all-in for less.
type Pot struct {
	Amount        int64 `json:"amount"`
	EligibleSeats []int `json:"eligible_seats"`
}

// Table owns one table's seats, pots and hand phase.
type Table struct {
	ID             uuid.UUID    `json:"id"`
	Status         TableStatus  `json:"status"`
	Seats          []*Seat      `json:"seats"`
	DealerSeat     int          `json:"dealer_seat"`
	SmallBlindSeat int          `json:"small_blind_seat"`
	BigBlindSeat   int          `json:"big_blind_seat"`
	ActionSeat     int          `json:"action_seat"`
	HandNumber     int64        `json:"hand_number"`
	Phase          Phase        `json:"phase"`
	CurrentBet     int64        `json:"current_bet"`
	MinRaise       int64        `json:"min_raise"`
	Pots           []Pot        `json:"pots"`
	CommunityCards []cards.Card `json:"community_cards"`
	ActionDeadline time.Time    `json:"action_deadline,omitempty"`
	ReviewUntil    time.Time    `json:"review_until,omitempty"`

	// deck is rebuilt from the dealt-card complement after a snapshot load,
	// so it is deliberately not serialized.
	deck *cards.Deck
}

// NewTable creates a paused, empty table.
func NewTable(seats int) *Table {
	t := &Table{
		ID:         uuid.New(),
		Status:     TableStatusPaused,
		Seats:      make([]*Seat, seats),
		DealerSeat: -1,
		ActionSeat: -1,
		Phase:      PhaseWaitingForPlayers,
	}
	for i := range t.Seats {
		t.Seats[i] = &Seat{Status: SeatStatusEmpty}
	}
	return t
}

// SeatOf returns the seat index held by the player, or -1.
func (t *Table) SeatOf(playerID uuid.UUID) int {
	for i, s := range t.Seats {
		if s.Occupied() && *s.PlayerID == playerID {
			return i
		}
	}
	return -1
}

// OccupiedCount returns the number of seated players.
func (t *Table) OccupiedCount() int {
	n := 0
	for _, s := range t.Seats {
		if s.Occupied() {
			n++
		}
	}
	return n
}

// SeatPlayer places a player in the first open seat and returns its index,
// or -1 when the table is full.
func (t *Table) SeatPlayer(playerID uuid.UUID) int {
	for i, s := range t.Seats {
		if !s.Occupied() {
			id := playerID
			*s = Seat{Status: SeatStatusJoinedWaiting, PlayerID: &id}
			return i
		}
	}
	return -1
}

// RemovePlayer empties the player's seat. Mid-hand callers must fold the
// seat through the table rules first.
func (t *Table) RemovePlayer(playerID uuid.UUID) {
	if i := t.SeatOf(playerID); i >= 0 {
		*t.Seats[i] = Seat{Status: SeatStatusEmpty}
	}
}

// HandInProgress reports whether cards are in the air.
func (t *Table) HandInProgress() bool {
	switch t.Phase {
	case PhaseWaitingForPlayers, PhasePreDeal, PhaseHandComplete:
		return false
	}
	return true
}

// RequestPause marks the table to pause. A table with no hand in progress
// pauses immediately; mid-hand it keeps dealing until hand completion.
func (t *Table) RequestPause() {
	if t.HandInProgress() {
		t.Status = TableStatusPauseAfterHand
		return
	}
	t.Status = TableStatusPaused
	if t.Phase == PhasePreDeal {
		t.Phase = PhaseWaitingForPlayers
	}
}

// Resume flips the table back to playing.
func (t *Table) Resume() {
	t.Status = TableStatusPlaying
}

// PotTotal sums all pots.
func (t *Table) PotTotal() int64 {
	var total int64
	for _, p := range t.Pots {
		total += p.Amount
	}
	return total
}

// DealtCards returns every card already out of the deck this hand.
func (t *Table) DealtCards() []cards.Card {
	dealt := make([]cards.Card, 0, len(t.CommunityCards)+2*len(t.Seats))
	dealt = append(dealt, t.CommunityCards...)
	for _, s := range t.Seats {
		dealt = append(dealt, s.HoleCards...)
	}
	return dealt
}

// Deck returns the table's live deck, rebuilding it from the dealt-card
// complement when the table was just loaded from a snapshot.
func (t *Table) Deck() *cards.Deck {
	if t.deck == nil {
		t.deck = cards.NewDeckExcluding(t.DealtCards())
	}
	return t.deck
}

// SetDeck replaces the live deck. Hand setup installs a fresh deck here;
// tests install seeded ones.
func (t *Table) SetDeck(d *cards.Deck) {
	t.deck = d
}
