// Package holdem implements the Texas Hold'em hand/table state machine. It
// is the format strategy consumed by the game manager: Advance drives a
// table one step, ApplyAction applies a player's betting action. Both cash
// games and tournaments run these rules; only the blind configuration on the
// game differs.
package holdem

import (
	"errors"
	"fmt"
	"time"

	"github.com/cardroomlabs/cardroom/internal/engine/cards"
	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

var (
	ErrNotPlayerTurn     = errors.New("not your turn")
	ErrNotBettingPhase   = errors.New("no betting in progress")
	ErrNotSeated         = errors.New("not seated at this table")
	ErrCannotCheck       = errors.New("cannot check, there is a bet to call")
	ErrRaiseTooSmall     = errors.New("raise below minimum")
	ErrInsufficientBet   = errors.New("bet must exceed current bet")
	ErrInsufficientChips = errors.New("insufficient chips")
)

// Rules is the Texas Hold'em table strategy. It is stateless; all hand state
// lives on the table.
type Rules struct{}

// New returns the hold'em rules.
func New() Rules { return Rules{} }

// Advance drives the table's phase machine for one tick. It loops until the
// table needs outside input (a player action, a deadline, more players) so a
// single tick can carry a hand through any number of automatic phases.
func (r Rules) Advance(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	for {
		switch t.Phase {
		case game.PhaseWaitingForPlayers:
			if t.Status != game.TableStatusPlaying || r.readySeatCount(g, t) < g.Config.MinPlayers {
				return
			}
			t.Phase = game.PhasePreDeal

		case game.PhasePreDeal:
			if t.Status != game.TableStatusPlaying {
				t.RequestPause()
				return
			}
			if !r.activateSeats(g, t) {
				t.Phase = game.PhaseWaitingForPlayers
				return
			}
			t.Phase = game.PhaseDeal

		case game.PhaseDeal:
			r.deal(g, t, now, evs)

		case game.PhasePreFlopBetting, game.PhaseFlopBetting, game.PhaseTurnBetting, game.PhaseRiverBetting:
			if !r.stepBetting(g, t, now, evs) {
				return
			}

		case game.PhaseFlop:
			r.dealCommunity(g, t, 3, game.PhaseFlopBetting, now, evs)

		case game.PhaseTurn:
			r.dealCommunity(g, t, 1, game.PhaseTurnBetting, now, evs)

		case game.PhaseRiver:
			r.dealCommunity(g, t, 1, game.PhaseRiverBetting, now, evs)

		case game.PhaseShowdown:
			r.showdown(g, t, now, evs)

		case game.PhaseHandComplete:
			if now.Before(t.ReviewUntil) {
				return
			}
			r.finishHand(g, t)
			if t.Status != game.TableStatusPlaying {
				return
			}
			t.Phase = game.PhaseWaitingForPlayers

		default:
			return
		}
	}
}

// readySeatCount counts seats that would be dealt into the next hand.
func (r Rules) readySeatCount(g *game.Game, t *game.Table) int {
	n := 0
	for _, s := range t.Seats {
		if !s.Occupied() {
			continue
		}
		p := g.Players[*s.PlayerID]
		if p != nil && p.Funded() && p.Status != game.PlayerStatusAway && p.Status != game.PlayerStatusOut {
			n++
		}
	}
	return n
}

// activateSeats readies every funded seat for the next hand and reports
// whether enough are live to deal.
func (r Rules) activateSeats(g *game.Game, t *game.Table) bool {
	active := 0
	for _, s := range t.Seats {
		if !s.Occupied() {
			continue
		}
		p := g.Players[*s.PlayerID]
		if p == nil {
			continue
		}

		pending := s.PendingBlind
		switch {
		case p.Status == game.PlayerStatusAway:
			s.Status = game.SeatStatusAway
		case p.Funded():
			id := *s.PlayerID
			*s = game.Seat{Status: game.SeatStatusActive, PlayerID: &id, PendingBlind: pending}
			p.Status = game.PlayerStatusActive
			active++
		default:
			s.Status = game.SeatStatusJoinedWaiting
		}
	}
	return active >= g.Config.MinPlayers
}

// deal runs the DEAL phase: button rotation, blinds, antes, hole cards.
func (r Rules) deal(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	lvl := g.CurrentBlinds()

	t.HandNumber++
	t.CommunityCards = nil
	t.Pots = nil
	t.CurrentBet = 0
	t.MinRaise = lvl.BigBlind
	t.SetDeck(cards.NewDeck())

	t.DealerSeat = r.nextSeat(t, t.DealerSeat, func(s *game.Seat) bool { return s.InHand() })

	// Heads-up: the dealer posts the small blind.
	if r.inHandCount(t) == 2 {
		t.SmallBlindSeat = t.DealerSeat
	} else {
		t.SmallBlindSeat = r.nextSeat(t, t.DealerSeat, func(s *game.Seat) bool { return s.InHand() })
	}
	t.BigBlindSeat = r.nextSeat(t, t.SmallBlindSeat, func(s *game.Seat) bool { return s.InHand() })

	// Antes and dead blinds go straight into the pot layer.
	for _, s := range t.Seats {
		if !s.InHand() {
			continue
		}
		p := g.Players[*s.PlayerID]
		if lvl.Ante > 0 {
			ante := min64(lvl.Ante, p.Chips)
			p.Chips -= ante
			s.HandBet += ante
			if p.Chips == 0 {
				s.AllIn = true
			}
		}
		if s.PendingBlind {
			dead := min64(lvl.BigBlind, p.Chips)
			p.Chips -= dead
			s.HandBet += dead
			s.PendingBlind = false
			if p.Chips == 0 {
				s.AllIn = true
			}
		}
	}

	// Blinds, even if posting forces a short stack all-in.
	r.postBlind(g, t, t.SmallBlindSeat, lvl.SmallBlind)
	r.postBlind(g, t, t.BigBlindSeat, lvl.BigBlind)
	t.CurrentBet = lvl.BigBlind

	r.rebuildPots(t)

	for i, s := range t.Seats {
		if !s.InHand() {
			continue
		}
		hole, err := t.Deck().Draw(2)
		if err != nil {
			evs.Emit(event.SystemError{
				Base:    event.NewBase(g.ID, now),
				TableID: &t.ID,
				Message: fmt.Sprintf("deal: %v", err),
			})
			r.abortDeal(g, t)
			return
		}
		s.HoleCards = append([]cards.Card(nil), hole...)
		evs.Emit(event.HoleCardsDealt{
			Base:    event.NewBase(g.ID, now),
			TableID: t.ID,
			UserID:  *s.PlayerID,
			Seat:    i,
			Cards:   s.HoleCards,
		})
	}

	evs.Emit(event.HandStarted{
		Base:           event.NewBase(g.ID, now),
		TableID:        t.ID,
		HandNumber:     t.HandNumber,
		DealerSeat:     t.DealerSeat,
		SmallBlindSeat: t.SmallBlindSeat,
		BigBlindSeat:   t.BigBlindSeat,
		SmallBlind:     lvl.SmallBlind,
		BigBlind:       lvl.BigBlind,
		Ante:           lvl.Ante,
	})

	t.Phase = game.PhasePreFlopBetting
	t.ActionSeat = r.nextSeat(t, t.BigBlindSeat, func(s *game.Seat) bool { return s.CanAct() })
	t.ActionDeadline = now.Add(g.Config.ActionTimeout)
}

// abortDeal unwinds a hand that failed during the deal: posted chips go
// back to their owners and the table pauses until an operator resumes it.
func (r Rules) abortDeal(g *game.Game, t *game.Table) {
	for _, s := range t.Seats {
		if !s.Occupied() {
			continue
		}
		if p := g.Players[*s.PlayerID]; p != nil {
			p.Chips += s.CurrentBet + s.HandBet
		}
		s.CurrentBet = 0
		s.HandBet = 0
		s.HoleCards = nil
		s.AllIn = false
	}
	t.Pots = nil
	t.CurrentBet = 0
	t.ActionSeat = -1
	t.SetDeck(nil)
	t.Status = game.TableStatusPaused
	t.Phase = game.PhaseWaitingForPlayers
}

func (r Rules) postBlind(g *game.Game, t *game.Table, seatIdx int, amount int64) {
	if seatIdx < 0 {
		return
	}
	s := t.Seats[seatIdx]
	p := g.Players[*s.PlayerID]
	posted := min64(amount, p.Chips)
	p.Chips -= posted
	s.CurrentBet += posted
	if p.Chips == 0 {
		s.AllIn = true
	}
}

// dealCommunity deals the next street and opens its betting round.
func (r Rules) dealCommunity(g *game.Game, t *game.Table, n int, next game.Phase, now time.Time, evs *event.Context) {
	drawn, err := t.Deck().Draw(n)
	if err != nil {
		evs.Emit(event.SystemError{
			Base:    event.NewBase(g.ID, now),
			TableID: &t.ID,
			Message: fmt.Sprintf("community deal: %v", err),
		})
		t.Phase = game.PhaseShowdown
		return
	}
	t.CommunityCards = append(t.CommunityCards, drawn...)

	t.Phase = next
	t.CurrentBet = 0
	t.MinRaise = g.CurrentBlinds().BigBlind
	for _, s := range t.Seats {
		s.Acted = false
		s.LastAction = ""
	}
	t.ActionSeat = r.nextSeat(t, t.DealerSeat, func(s *game.Seat) bool { return s.CanAct() })
	t.ActionDeadline = now.Add(g.Config.ActionTimeout)

	evs.Emit(event.CommunityCardsDealt{
		Base:    event.NewBase(g.ID, now),
		TableID: t.ID,
		Phase:   string(next),
		Cards:   drawn,
	})
}

// stepBetting handles one betting-phase step: an arrived intent, an expired
// deadline, or round completion when no seat can act. Returns false when the
// table is waiting on a player.
func (r Rules) stepBetting(g *game.Game, t *game.Table, now time.Time, evs *event.Context) bool {
	if r.roundComplete(t) {
		r.finishRound(g, t, now, evs)
		return true
	}

	if t.ActionSeat < 0 {
		// No seat can act but bets are unmatched; nothing can change.
		r.finishRound(g, t, now, evs)
		return true
	}

	// A street opening with a single seat able to act has no action to
	// wait for once that seat owes nothing, so the board runs out.
	if r.canActCount(t) < 2 && t.Seats[t.ActionSeat].CurrentBet == t.CurrentBet {
		r.finishRound(g, t, now, evs)
		return true
	}

	s := t.Seats[t.ActionSeat]

	// A stored intent is applied the moment the turn arrives, if still legal.
	if s.Intent != nil {
		intent := *s.Intent
		s.Intent = nil
		if err := r.apply(g, t, t.ActionSeat, command.Action(intent.Action), intent.Amount, now, evs); err == nil {
			return true
		}
	}

	if !now.Before(t.ActionDeadline) {
		r.applyTimeout(g, t, now, evs)
		return true
	}

	return false
}

// applyTimeout applies the default action for an expired action deadline:
// check when nothing is owed, fold otherwise.
func (r Rules) applyTimeout(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	seatIdx := t.ActionSeat
	s := t.Seats[seatIdx]

	action := command.ActionFold
	if t.CurrentBet == s.CurrentBet {
		action = command.ActionCheck
	}

	evs.Emit(event.PlayerTimedOut{
		Base:    event.NewBase(g.ID, now),
		TableID: t.ID,
		UserID:  *s.PlayerID,
		Seat:    seatIdx,
		Action:  string(action),
	})

	// The default action is always legal by construction.
	_ = r.apply(g, t, seatIdx, action, 0, now, evs)
}

// nextSeat returns the next seat index after from matching the predicate,
// or -1 when none does.
func (r Rules) nextSeat(t *game.Table, from int, match func(*game.Seat) bool) int {
	n := len(t.Seats)
	for i := 1; i <= n; i++ {
		idx := ((from+i)%n + n) % n
		if match(t.Seats[idx]) {
			return idx
		}
	}
	return -1
}

func (r Rules) inHandCount(t *game.Table) int {
	n := 0
	for _, s := range t.Seats {
		if s.InHand() {
			n++
		}
	}
	return n
}

func (r Rules) canActCount(t *game.Table) int {
	n := 0
	for _, s := range t.Seats {
		if s.CanAct() {
			n++
		}
	}
	return n
}

// finishHand clears per-hand seat state and re-buckets busted players.
func (r Rules) finishHand(g *game.Game, t *game.Table) {
	for _, s := range t.Seats {
		if !s.Occupied() {
			continue
		}
		id := *s.PlayerID
		p := g.Players[id]

		*s = game.Seat{Status: game.SeatStatusJoinedWaiting, PlayerID: &id}
		if p == nil {
			continue
		}

		switch {
		case p.Status == game.PlayerStatusAway:
			s.Status = game.SeatStatusAway
		case p.Status == game.PlayerStatusOut:
			*s = game.Seat{Status: game.SeatStatusEmpty}
		case !p.Funded():
			// Busted. Tournaments eliminate once rebuys close; cash
			// players sit out until they buy back in.
			if g.Format == game.FormatTournament && !g.Config.Blinds.RebuyAllowed(g.CurrentLevel) {
				p.Status = game.PlayerStatusOut
				p.TableID = nil
				*s = game.Seat{Status: game.SeatStatusEmpty}
			} else {
				p.Status = game.PlayerStatusBuyingIn
				s.Status = game.SeatStatusJoinedWaiting
			}
		}
	}

	t.Pots = nil
	t.CurrentBet = 0
	t.ActionSeat = -1
	t.CommunityCards = nil
	t.SetDeck(nil)

	if t.Status == game.TableStatusPauseAfterHand {
		t.Status = game.TableStatusPaused
		t.Phase = game.PhaseWaitingForPlayers
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
