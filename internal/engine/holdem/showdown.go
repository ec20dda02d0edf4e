package holdem

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/cards"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

// showdown evaluates every live seat and awards each pot to its
// highest-ranked eligible seats. Ties split evenly; remainder chips go one
// each in seat order.
func (r Rules) showdown(g *game.Game, t *game.Table, now time.Time, evs *event.Context) {
	ranks := make(map[int]cards.HandRank)
	for i, s := range t.Seats {
		if s.InHand() && len(s.HoleCards) == 2 && len(t.CommunityCards) == 5 {
			ranks[i] = cards.Evaluate(s.HoleCards, t.CommunityCards)
			s.Revealed = true
		}
	}

	results := make([]event.PotResult, 0, len(t.Pots))
	for _, pot := range t.Pots {
		winners := r.potWinners(pot, ranks)
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))

		result := event.PotResult{Amount: pot.Amount}
		for _, seatIdx := range winners {
			payout := share
			// Odd chips go to the earliest winning seats, a fixed
			// tie-break so splits are deterministic.
			if remainder > 0 {
				payout++
				remainder--
			}
			s := t.Seats[seatIdx]
			g.Players[*s.PlayerID].Chips += payout
			result.WinnerSeats = append(result.WinnerSeats, seatIdx)
			result.WinnerUsers = append(result.WinnerUsers, *s.PlayerID)
		}
		if rank, ok := ranks[winners[0]]; ok {
			result.HandName = rank.Name
		}
		results = append(results, result)
	}
	t.Pots = nil

	evs.Emit(event.ShowdownResult{
		Base:    event.NewBase(g.ID, now),
		TableID: t.ID,
		Pots:    results,
	})

	r.completeHand(g, t, now, evs)
}

// potWinners returns the eligible seats holding the best hand, in ascending
// seat order.
func (r Rules) potWinners(pot game.Pot, ranks map[int]cards.HandRank) []int {
	if len(pot.EligibleSeats) == 1 {
		return pot.EligibleSeats
	}

	var (
		best     cards.HandRank
		haveBest bool
		winners  []int
	)
	for _, seatIdx := range pot.EligibleSeats {
		rank, ok := ranks[seatIdx]
		if !ok {
			continue
		}
		switch {
		case !haveBest || rank.Beats(best):
			best = rank
			haveBest = true
			winners = []int{seatIdx}
		case rank.Ties(best):
			winners = append(winners, seatIdx)
		}
	}
	return winners
}

// Reveal marks a seat's hole cards as voluntarily shown after the hand and
// announces them.
func (r Rules) Reveal(g *game.Game, t *game.Table, userID uuid.UUID, now time.Time, evs *event.Context) error {
	if t.Phase != game.PhaseHandComplete && t.Phase != game.PhaseShowdown {
		return ErrNotBettingPhase
	}
	seatIdx := t.SeatOf(userID)
	if seatIdx < 0 {
		return ErrNotSeated
	}
	s := t.Seats[seatIdx]
	if len(s.HoleCards) != 2 || s.Revealed {
		return nil
	}
	s.Revealed = true
	evs.Emit(event.GameMessage{
		Base:    event.NewBase(g.ID, now),
		Message: g.Players[userID].Username + " shows " + s.HoleCards[0].String() + " " + s.HoleCards[1].String(),
	})
	return nil
}
