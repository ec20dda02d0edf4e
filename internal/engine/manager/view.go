package manager

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/blinds"
	"github.com/cardroomlabs/cardroom/internal/engine/cards"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

func cardStrings(cs []cards.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// GameView is the client-facing projection of a game. Hole cards are present
// only on the viewer's own seats and on seats revealed at showdown.
type GameView struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Format       game.Format  `json:"format"`
	Status       game.Status  `json:"status"`
	StartTime    time.Time    `json:"start_time"`
	CurrentLevel int          `json:"current_level"`
	Blinds       blinds.Level `json:"blinds"`
	Players      []PlayerView `json:"players"`
	Tables       []TableView  `json:"tables"`
}

type PlayerView struct {
	UserID   uuid.UUID         `json:"user_id"`
	Username string            `json:"username"`
	Status   game.PlayerStatus `json:"status"`
	Chips    int64             `json:"chips"`
	TableID  *uuid.UUID        `json:"table_id,omitempty"`
}

type TableView struct {
	ID             uuid.UUID        `json:"id"`
	Status         game.TableStatus `json:"status"`
	Phase          game.Phase       `json:"phase"`
	HandNumber     int64            `json:"hand_number"`
	DealerSeat     int              `json:"dealer_seat"`
	ActionSeat     int              `json:"action_seat"`
	CurrentBet     int64            `json:"current_bet"`
	MinRaise       int64            `json:"min_raise"`
	CommunityCards []string         `json:"community_cards"`
	Pots           []game.Pot       `json:"pots"`
	Seats          []SeatView       `json:"seats"`
	ActionDeadline *time.Time       `json:"action_deadline,omitempty"`
}

type SeatView struct {
	Seat       int             `json:"seat"`
	Status     game.SeatStatus `json:"status"`
	PlayerID   *uuid.UUID      `json:"player_id,omitempty"`
	CurrentBet int64           `json:"current_bet"`
	HandBet    int64           `json:"hand_bet"`
	LastAction string          `json:"last_action,omitempty"`
	AllIn      bool            `json:"all_in"`
	HoleCards  []string        `json:"hole_cards,omitempty"`
}

// View builds a snapshot of the game for the given viewer. It serializes
// against the tick, so the projection is always internally consistent.
func (m *Manager) View(viewer uuid.UUID) GameView {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	g := m.game
	v := GameView{
		ID:           g.ID,
		Name:         g.Name,
		Format:       g.Format,
		Status:       g.Status,
		StartTime:    g.StartTime,
		CurrentLevel: g.CurrentLevel,
		Blinds:       g.CurrentBlinds(),
	}

	for _, p := range g.Players {
		v.Players = append(v.Players, PlayerView{
			UserID:   p.UserID,
			Username: p.Username,
			Status:   p.Status,
			Chips:    p.Chips,
			TableID:  p.TableID,
		})
	}

	for _, t := range m.sortedTables() {
		tv := TableView{
			ID:             t.ID,
			Status:         t.Status,
			Phase:          t.Phase,
			HandNumber:     t.HandNumber,
			DealerSeat:     t.DealerSeat,
			ActionSeat:     t.ActionSeat,
			CurrentBet:     t.CurrentBet,
			MinRaise:       t.MinRaise,
			CommunityCards: cardStrings(t.CommunityCards),
			Pots:           t.Pots,
		}
		if !t.ActionDeadline.IsZero() {
			deadline := t.ActionDeadline
			tv.ActionDeadline = &deadline
		}
		for i, s := range t.Seats {
			sv := SeatView{
				Seat:       i,
				Status:     s.Status,
				PlayerID:   s.PlayerID,
				CurrentBet: s.CurrentBet,
				HandBet:    s.HandBet,
				LastAction: s.LastAction,
				AllIn:      s.AllIn,
			}
			if len(s.HoleCards) > 0 && (s.Revealed || (s.PlayerID != nil && *s.PlayerID == viewer)) {
				sv.HoleCards = cardStrings(s.HoleCards)
			}
			tv.Seats = append(tv.Seats, sv)
		}
		v.Tables = append(v.Tables, tv)
	}
	return v
}
