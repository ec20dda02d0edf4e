package holdem

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroomlabs/cardroom/internal/engine/cards"
	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

func card(rank, suit string) cards.Card {
	return cards.Card{Rank: rank, Suit: suit}
}

func TestActionValidation(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	// Wrong seat, wrong user, bad amounts. Table state must be untouched.
	assert.ErrorIs(t, r.ApplyAction(g, tbl, ids[1], command.ActionFold, 0, baseTime, evs), ErrNotPlayerTurn)
	assert.ErrorIs(t, r.ApplyAction(g, tbl, uuid.New(), command.ActionFold, 0, baseTime, evs), ErrNotSeated)
	assert.ErrorIs(t, r.ApplyAction(g, tbl, ids[0], command.ActionCheck, 0, baseTime, evs), ErrCannotCheck)
	assert.ErrorIs(t, r.ApplyAction(g, tbl, ids[0], command.ActionRaise, 40, baseTime, evs), ErrInsufficientBet)
	assert.ErrorIs(t, r.ApplyAction(g, tbl, ids[0], command.ActionRaise, 60, baseTime, evs), ErrRaiseTooSmall)
	assert.ErrorIs(t, r.ApplyAction(g, tbl, ids[0], command.ActionRaise, 20_000, baseTime, evs), ErrInsufficientChips)

	assert.Equal(t, 0, tbl.ActionSeat)
	assert.Equal(t, int64(10_000), g.Players[ids[0]].Chips)
	assert.Equal(t, int64(50), tbl.CurrentBet)
}

func TestRaiseReopensAction(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionCall, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionRaise, 150, baseTime, evs))

	assert.Equal(t, int64(150), tbl.CurrentBet)
	assert.Equal(t, int64(100), tbl.MinRaise)
	// The caller faces the raise again.
	assert.False(t, tbl.Seats[0].Acted)
	assert.Equal(t, 2, tbl.ActionSeat)
}

func TestAllInForLessIsExemptFromMinRaise(t *testing.T) {
	g, tbl, ids := newTestTable(80, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	// 80 is below the minimum raise to 100 but is the whole stack.
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionRaise, 80, baseTime, evs))

	assert.True(t, tbl.Seats[0].AllIn)
	assert.Equal(t, int64(80), tbl.CurrentBet)
	assert.Zero(t, g.Players[ids[0]].Chips)
}

func TestSidePotsFromAllInForLess(t *testing.T) {
	g, tbl, ids := newTestTable(100, 1_000, 1_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionAllIn, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionRaise, 300, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[2], command.ActionCall, 0, baseTime, evs))

	// Round complete: a main pot capped at the short stack's 100 and one
	// side pot for the two covering players.
	require.Equal(t, game.PhaseFlop, tbl.Phase)
	require.Len(t, tbl.Pots, 2)

	assert.Equal(t, int64(300), tbl.Pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, tbl.Pots[0].EligibleSeats)
	assert.Equal(t, int64(400), tbl.Pots[1].Amount)
	assert.Equal(t, []int{1, 2}, tbl.Pots[1].EligibleSeats)

	assert.Equal(t, int64(2_100), g.TotalChips())
}

func TestFoldedChipsStayInPotWithoutEligibility(t *testing.T) {
	g, tbl, ids := newTestTable(1_000, 1_000, 1_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionRaise, 200, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionFold, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[2], command.ActionCall, 0, baseTime, evs))

	require.Equal(t, game.PhaseFlop, tbl.Phase)
	require.Len(t, tbl.Pots, 1)
	// 200 + 200 plus the folded small blind's 25.
	assert.Equal(t, int64(425), tbl.Pots[0].Amount)
	assert.Equal(t, []int{0, 2}, tbl.Pots[0].EligibleSeats)
	assert.Equal(t, int64(3_000), g.TotalChips())
}

// setShowdown forces the table into showdown with a known board and known
// hole cards per seat, sidestepping the shuffled deck.
func setShowdown(tbl *game.Table, board []cards.Card, hole map[int][]cards.Card) {
	tbl.Phase = game.PhaseShowdown
	tbl.CommunityCards = board
	for seat, hc := range hole {
		tbl.Seats[seat].HoleCards = hc
	}
}

func TestShowdownAwardsPotsByHandRank(t *testing.T) {
	g, tbl, ids := newTestTable(100, 1_000, 1_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionAllIn, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionRaise, 300, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[2], command.ActionCall, 0, baseTime, evs))
	require.Len(t, tbl.Pots, 2)

	setShowdown(tbl, []cards.Card{
		card("2", "♠"), card("5", "♥"), card("7", "♦"), card("9", "♣"), card("J", "♠"),
	}, map[int][]cards.Card{
		0: {card("A", "♠"), card("A", "♥")},
		1: {card("K", "♠"), card("K", "♥")},
		2: {card("Q", "♠"), card("Q", "♥")},
	})

	evs = event.NewContext()
	r.Advance(g, tbl, baseTime, evs)

	// Aces take the main pot, kings the side pot the short stack cannot win.
	assert.Equal(t, game.PhaseHandComplete, tbl.Phase)
	assert.Equal(t, int64(300), g.Players[ids[0]].Chips)
	assert.Equal(t, int64(1_100), g.Players[ids[1]].Chips)
	assert.Equal(t, int64(700), g.Players[ids[2]].Chips)
	assert.Equal(t, int64(2_100), g.TotalChips())

	result := findShowdown(t, evs)
	require.Len(t, result.Pots, 2)
	assert.Equal(t, []int{0}, result.Pots[0].WinnerSeats)
	assert.Equal(t, []uuid.UUID{ids[0]}, result.Pots[0].WinnerUsers)
	assert.Equal(t, "One Pair", result.Pots[0].HandName)
	assert.Equal(t, []int{1}, result.Pots[1].WinnerSeats)

	for _, s := range tbl.Seats {
		assert.True(t, s.Revealed)
	}
}

func TestShowdownSplitsTiedPotWithOddChipToEarliestSeat(t *testing.T) {
	g, tbl, ids := newTestTable(1_000, 1_000, 1_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	// Dealer folds, both blinds put in 100 and go to showdown.
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionFold, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionRaise, 100, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[2], command.ActionCall, 0, baseTime, evs))
	require.Equal(t, game.PhaseFlop, tbl.Phase)
	require.Equal(t, int64(200), tbl.PotTotal())

	// Both blinds play the board; the pot splits with the odd chip going to
	// the lower seat index. Force an odd pot by pulling one chip out of the
	// dealer's contribution.
	tbl.Pots[0].Amount = 201
	g.Players[ids[0]].Chips -= 1

	setShowdown(tbl, []cards.Card{
		card("A", "♠"), card("K", "♥"), card("Q", "♦"), card("J", "♣"), card("T", "♠"),
	}, map[int][]cards.Card{
		1: {card("2", "♠"), card("3", "♥")},
		2: {card("2", "♦"), card("3", "♣")},
	})

	evs = event.NewContext()
	r.Advance(g, tbl, baseTime, evs)

	assert.Equal(t, int64(1_001), g.Players[ids[1]].Chips)
	assert.Equal(t, int64(1_000), g.Players[ids[2]].Chips)

	result := findShowdown(t, evs)
	require.Len(t, result.Pots, 1)
	assert.Equal(t, []int{1, 2}, result.Pots[0].WinnerSeats)
}

func findShowdown(t *testing.T, evs *event.Context) event.ShowdownResult {
	t.Helper()
	for _, e := range evs.Events() {
		if sr, ok := e.(event.ShowdownResult); ok {
			return sr
		}
	}
	t.Fatal("no ShowdownResult event emitted")
	return event.ShowdownResult{}
}

func TestAllInPlayersFastForwardToShowdown(t *testing.T) {
	g, tbl, ids := newTestTable(500, 500, 500)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionAllIn, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionAllIn, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[2], command.ActionAllIn, 0, baseTime, evs))

	// Nobody left to act: a single advance runs out the board and settles.
	evs = event.NewContext()
	r.Advance(g, tbl, baseTime.Add(time.Second), evs)

	assert.Equal(t, game.PhaseHandComplete, tbl.Phase)
	assert.Len(t, tbl.CommunityCards, 5)
	assert.Empty(t, tbl.Pots)
	assert.Equal(t, int64(1_500), g.TotalChips())
	assert.Contains(t, eventTypes(evs), event.TypeShowdownResult)
}

func TestLoneCallerOfAllInsRunsOutTheBoard(t *testing.T) {
	g, tbl, ids := newTestTable(100, 200, 1_000)
	dealHand(t, g, tbl, baseTime)
	r := New()
	evs := event.NewContext()

	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionAllIn, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionAllIn, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[2], command.ActionCall, 0, baseTime, evs))

	// The caller covers both all-ins, so no street has any action left;
	// one advance deals the remaining board and settles at showdown
	// without ever parking the action on the lone live seat.
	evs = event.NewContext()
	r.Advance(g, tbl, baseTime.Add(time.Second), evs)

	assert.Equal(t, game.PhaseHandComplete, tbl.Phase)
	assert.Len(t, tbl.CommunityCards, 5)
	assert.Equal(t, -1, tbl.ActionSeat)
	assert.Equal(t, int64(1_300), g.TotalChips())
	assert.Contains(t, eventTypes(evs), event.TypeShowdownResult)
}
