package holdem

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

// ApplyAction validates and applies a betting action issued by a user. The
// error is surfaced to the issuer as a UserMessage by the manager; table
// state is untouched on failure.
func (r Rules) ApplyAction(g *game.Game, t *game.Table, userID uuid.UUID, action command.Action, amount int64, now time.Time, evs *event.Context) error {
	if !t.Phase.BettingPhase() {
		return ErrNotBettingPhase
	}
	seatIdx := t.SeatOf(userID)
	if seatIdx < 0 {
		return ErrNotSeated
	}
	if seatIdx != t.ActionSeat {
		return ErrNotPlayerTurn
	}
	return r.apply(g, t, seatIdx, action, amount, now, evs)
}

// StoreIntent records a pre-selected action to apply when the seat's turn
// arrives.
func (r Rules) StoreIntent(t *game.Table, userID uuid.UUID, action command.Action, amount int64) error {
	seatIdx := t.SeatOf(userID)
	if seatIdx < 0 {
		return ErrNotSeated
	}
	t.Seats[seatIdx].Intent = &game.Intent{Action: string(action), Amount: amount}
	return nil
}

// ForceFold folds a seat immediately, regardless of turn order. Used when a
// player leaves mid-hand.
func (r Rules) ForceFold(g *game.Game, t *game.Table, userID uuid.UUID, now time.Time, evs *event.Context) {
	seatIdx := t.SeatOf(userID)
	if seatIdx < 0 || !t.Seats[seatIdx].InHand() {
		return
	}
	s := t.Seats[seatIdx]
	s.Status = game.SeatStatusFolded
	s.LastAction = string(command.ActionFold)
	s.Acted = true

	if !t.Phase.BettingPhase() {
		return
	}

	if r.foldedToOne(t) {
		r.awardFoldWin(g, t, now, evs)
		return
	}
	if seatIdx == t.ActionSeat {
		r.advanceTurn(g, t, now, evs)
	}
}

// apply executes an action for the seat currently holding the action. The
// amount of a bet/raise is the seat's total bet for the round.
func (r Rules) apply(g *game.Game, t *game.Table, seatIdx int, action command.Action, amount int64, now time.Time, evs *event.Context) error {
	s := t.Seats[seatIdx]
	p := g.Players[*s.PlayerID]

	var moved int64

	switch action {
	case command.ActionFold:
		s.Status = game.SeatStatusFolded

	case command.ActionCheck:
		if t.CurrentBet != s.CurrentBet {
			return ErrCannotCheck
		}

	case command.ActionCall:
		moved = min64(t.CurrentBet-s.CurrentBet, p.Chips)
		s.CurrentBet += moved
		p.Chips -= moved

	case command.ActionBet, command.ActionRaise:
		stack := p.Chips + s.CurrentBet
		if amount > stack {
			return ErrInsufficientChips
		}
		if amount <= t.CurrentBet {
			return ErrInsufficientBet
		}
		// Minimum raise applies unless this is an all-in for less.
		if amount < t.CurrentBet+t.MinRaise && amount < stack {
			return ErrRaiseTooSmall
		}

		moved = amount - s.CurrentBet
		t.MinRaise = amount - t.CurrentBet
		t.CurrentBet = amount
		s.CurrentBet = amount
		p.Chips -= moved
		r.reopenAction(t, seatIdx)

	case command.ActionAllIn:
		moved = p.Chips
		p.Chips = 0
		s.CurrentBet += moved
		if s.CurrentBet > t.CurrentBet {
			// An all-in above the current bet acts as a raise.
			t.MinRaise = s.CurrentBet - t.CurrentBet
			t.CurrentBet = s.CurrentBet
			r.reopenAction(t, seatIdx)
		}

	default:
		return ErrNotBettingPhase
	}

	if p.Chips == 0 && s.Status == game.SeatStatusActive {
		s.AllIn = true
	}
	s.Acted = true
	s.LastAction = string(action)

	evs.Emit(event.PlayerActed{
		Base:    event.NewBase(g.ID, now),
		TableID: t.ID,
		UserID:  *s.PlayerID,
		Seat:    seatIdx,
		Action:  string(action),
		Amount:  moved,
	})

	if r.foldedToOne(t) {
		r.awardFoldWin(g, t, now, evs)
		return nil
	}

	r.advanceTurn(g, t, now, evs)
	return nil
}

// reopenAction resets acted flags after a raise so everyone faces the new
// bet again.
func (r Rules) reopenAction(t *game.Table, raiser int) {
	for i, s := range t.Seats {
		if i != raiser && s.CanAct() {
			s.Acted = false
		}
	}
}

// advanceTurn moves the action or completes the round.
func (r Rules) advanceTurn(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	if r.roundComplete(t) {
		r.finishRound(g, t, now, evs)
		return
	}
	t.ActionSeat = r.nextSeat(t, t.ActionSeat, func(s *game.Seat) bool { return s.CanAct() })
	t.ActionDeadline = now.Add(g.Config.ActionTimeout)
}

// roundComplete reports whether every seat that can still act has acted and
// matched the current bet.
func (r Rules) roundComplete(t *game.Table) bool {
	for _, s := range t.Seats {
		if !s.CanAct() {
			continue
		}
		if !s.Acted || s.CurrentBet != t.CurrentBet {
			return false
		}
	}
	return true
}

// foldedToOne reports whether only one live seat remains.
func (r Rules) foldedToOne(t *game.Table) bool {
	return r.inHandCount(t) == 1
}

// finishRound collects bets into the pots and advances to the next street.
// With every remaining seat all-in the following streets complete instantly,
// fast-forwarding to showdown.
func (r Rules) finishRound(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	r.collectBets(t)

	evs.Emit(event.BettingRoundComplete{
		Base:     event.NewBase(g.ID, now),
		TableID:  t.ID,
		Phase:    string(t.Phase),
		PotTotal: t.PotTotal(),
	})

	t.ActionSeat = -1
	switch t.Phase {
	case game.PhasePreFlopBetting:
		t.Phase = game.PhaseFlop
	case game.PhaseFlopBetting:
		t.Phase = game.PhaseTurn
	case game.PhaseTurnBetting:
		t.Phase = game.PhaseRiver
	case game.PhaseRiverBetting:
		t.Phase = game.PhaseShowdown
	}
}

// collectBets folds the round's bets into each seat's hand total and
// rebuilds the pot layering.
func (r Rules) collectBets(t *game.Table) {
	for _, s := range t.Seats {
		if s.CurrentBet > 0 {
			s.HandBet += s.CurrentBet
			s.CurrentBet = 0
		}
		s.Acted = false
	}
	r.rebuildPots(t)
}

// rebuildPots derives the pot list from the seats' hand totals. Each
// distinct live contribution level caps one pot; a seat is eligible for
// exactly the pots it contributed to. Folded money stays in the pots it
// reached but confers no eligibility.
func (r Rules) rebuildPots(t *game.Table) {
	levels := make([]int64, 0, len(t.Seats))
	seen := make(map[int64]bool)
	var maxBet int64
	for _, s := range t.Seats {
		if s.HandBet > maxBet {
			maxBet = s.HandBet
		}
		if s.InHand() && s.HandBet > 0 && !seen[s.HandBet] {
			seen[s.HandBet] = true
			levels = append(levels, s.HandBet)
		}
	}
	if len(levels) == 0 {
		t.Pots = nil
		return
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	// Folded chips above the highest live level belong in the top pot.
	if maxBet > levels[len(levels)-1] {
		levels[len(levels)-1] = maxBet
	}

	pots := make([]game.Pot, 0, len(levels))
	var prev int64
	for _, level := range levels {
		pot := game.Pot{}
		for i, s := range t.Seats {
			contrib := min64(s.HandBet, level) - prev
			if contrib > 0 {
				pot.Amount += contrib
			}
			if s.InHand() && s.HandBet >= level {
				pot.EligibleSeats = append(pot.EligibleSeats, i)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prev = level
	}
	t.Pots = pots
}

// awardFoldWin ends the hand immediately when all but one seat folded,
// awarding every pot to the survivor.
func (r Rules) awardFoldWin(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	r.collectBets(t)

	winner := -1
	for i, s := range t.Seats {
		if s.InHand() {
			winner = i
			break
		}
	}
	if winner < 0 {
		return
	}

	var total int64
	for _, pot := range t.Pots {
		total += pot.Amount
	}
	s := t.Seats[winner]
	p := g.Players[*s.PlayerID]
	p.Chips += total
	t.Pots = nil

	evs.Emit(event.GameMessage{
		Base:    event.NewBase(g.ID, now),
		Message: p.Username + " wins the pot uncontested",
	})
	r.completeHand(g, t, now, evs)
}

// completeHand enters the review period.
func (r Rules) completeHand(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	t.Phase = game.PhaseHandComplete
	t.ActionSeat = -1
	t.ReviewUntil = now.Add(g.Config.ReviewPeriod)
	evs.Emit(event.HandComplete{
		Base:       event.NewBase(g.ID, now),
		TableID:    t.ID,
		HandNumber: t.HandNumber,
	})
}
