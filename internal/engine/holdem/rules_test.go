package holdem

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroomlabs/cardroom/internal/engine/blinds"
	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestTable builds an active cash game with one playing table at blinds
// 25/50 and one seated, funded player per entry in chips. Seat i holds the
// i-th returned user id.
func newTestTable(chips ...int64) (*game.Game, *game.Table, []uuid.UUID) {
	cfg := game.FormatConfig{
		SeatsPerTable: len(chips),
		MinPlayers:    2,
		Blinds:        blinds.Schedule{Levels: []blinds.Level{{SmallBlind: 25, BigBlind: 50}}},
		ActionTimeout: 30 * time.Second,
		ReviewPeriod:  15 * time.Second,
	}
	g := game.New("test game", game.FormatCash, uuid.New(), baseTime, cfg, baseTime)
	g.Status = game.StatusActive

	tbl := game.NewTable(len(chips))
	tbl.Status = game.TableStatusPlaying
	g.Tables[tbl.ID] = tbl

	ids := make([]uuid.UUID, len(chips))
	for i, c := range chips {
		id := uuid.New()
		ids[i] = id
		tableID := tbl.ID
		g.Players[id] = &game.Player{
			UserID:   id,
			Username: fmt.Sprintf("player%d", i),
			Status:   game.PlayerStatusActive,
			Chips:    c,
			TableID:  &tableID,
		}
		tbl.SeatPlayer(id)
	}
	return g, tbl, ids
}

func dealHand(t *testing.T, g *game.Game, tbl *game.Table, now time.Time) *event.Context {
	t.Helper()
	evs := event.NewContext()
	New().Advance(g, tbl, now, evs)
	require.Equal(t, game.PhasePreFlopBetting, tbl.Phase)
	return evs
}

func eventTypes(evs *event.Context) []event.Type {
	types := make([]event.Type, 0, len(evs.Events()))
	for _, e := range evs.Events() {
		types = append(types, e.EventType())
	}
	return types
}

func TestDealPostsBlindsAndRotatesButton(t *testing.T) {
	g, tbl, _ := newTestTable(10_000, 10_000, 10_000)
	evs := dealHand(t, g, tbl, baseTime)

	assert.Equal(t, 0, tbl.DealerSeat)
	assert.Equal(t, 1, tbl.SmallBlindSeat)
	assert.Equal(t, 2, tbl.BigBlindSeat)
	assert.Equal(t, 0, tbl.ActionSeat)
	assert.Equal(t, int64(50), tbl.CurrentBet)
	assert.Equal(t, int64(50), tbl.MinRaise)
	assert.Equal(t, baseTime.Add(30*time.Second), tbl.ActionDeadline)

	assert.Equal(t, int64(25), tbl.Seats[1].CurrentBet)
	assert.Equal(t, int64(50), tbl.Seats[2].CurrentBet)
	for _, s := range tbl.Seats {
		assert.Len(t, s.HoleCards, 2)
	}

	assert.Contains(t, eventTypes(evs), event.TypeHandStarted)
	assert.Equal(t, int64(30_000), g.TotalChips())
}

func TestHeadsUpDealerPostsSmallBlind(t *testing.T) {
	g, tbl, _ := newTestTable(10_000, 10_000)
	dealHand(t, g, tbl, baseTime)

	assert.Equal(t, tbl.DealerSeat, tbl.SmallBlindSeat)
	assert.NotEqual(t, tbl.SmallBlindSeat, tbl.BigBlindSeat)
	// The dealer acts first before the flop when heads-up.
	assert.Equal(t, tbl.DealerSeat, tbl.ActionSeat)
}

func TestFoldToOneAwardsPotUncontested(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionFold, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionFold, 0, baseTime, evs))

	assert.Equal(t, game.PhaseHandComplete, tbl.Phase)
	assert.Empty(t, tbl.Pots)
	assert.Equal(t, int64(10_000), g.Players[ids[0]].Chips)
	assert.Equal(t, int64(9_975), g.Players[ids[1]].Chips)
	assert.Equal(t, int64(10_025), g.Players[ids[2]].Chips)
	assert.Equal(t, int64(30_000), g.TotalChips())
	assert.Contains(t, eventTypes(evs), event.TypeHandComplete)
}

func TestTimeoutFoldsWhenFacingBet(t *testing.T) {
	g, tbl, _ := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	// First deadline expires: the dealer owes 50 and is folded.
	evs := event.NewContext()
	r.Advance(g, tbl, baseTime.Add(31*time.Second), evs)

	assert.Equal(t, game.SeatStatusFolded, tbl.Seats[0].Status)
	assert.Equal(t, 1, tbl.ActionSeat)
	timedOut := findTimeout(t, evs)
	assert.Equal(t, string(command.ActionFold), timedOut.Action)
	assert.Equal(t, 0, timedOut.Seat)

	// Second deadline expires: the small blind folds and the hand ends.
	evs = event.NewContext()
	r.Advance(g, tbl, baseTime.Add(62*time.Second), evs)

	assert.Equal(t, game.PhaseHandComplete, tbl.Phase)
	assert.Equal(t, int64(30_000), g.TotalChips())
}

func TestTimeoutChecksWhenBetMatched(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionCall, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionCall, 0, baseTime, evs))

	// The big blind already matches the bet, so the expired deadline checks
	// instead of folding and the flop comes out.
	evs = event.NewContext()
	r.Advance(g, tbl, baseTime.Add(31*time.Second), evs)

	timedOut := findTimeout(t, evs)
	assert.Equal(t, string(command.ActionCheck), timedOut.Action)
	assert.Equal(t, 2, timedOut.Seat)

	assert.Equal(t, game.PhaseFlopBetting, tbl.Phase)
	assert.Len(t, tbl.CommunityCards, 3)
	assert.Equal(t, int64(150), tbl.PotTotal())
	assert.Equal(t, int64(30_000), g.TotalChips())
}

func findTimeout(t *testing.T, evs *event.Context) event.PlayerTimedOut {
	t.Helper()
	for _, e := range evs.Events() {
		if to, ok := e.(event.PlayerTimedOut); ok {
			return to
		}
	}
	t.Fatal("no PlayerTimedOut event emitted")
	return event.PlayerTimedOut{}
}

func TestIllegalIntentDroppedOnTurn(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	// The small blind pre-selects check, which will be illegal facing the
	// big blind once the turn arrives.
	require.NoError(t, r.StoreIntent(tbl, ids[1], command.ActionCheck, 0))

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionCall, 0, baseTime, evs))
	r.Advance(g, tbl, baseTime, evs)

	assert.Equal(t, 1, tbl.ActionSeat)
	assert.Nil(t, tbl.Seats[1].Intent)
	assert.Equal(t, game.SeatStatusActive, tbl.Seats[1].Status)
}

func TestLegalIntentAppliedOnTurn(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	require.NoError(t, r.StoreIntent(tbl, ids[1], command.ActionCall, 0))

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionCall, 0, baseTime, evs))
	r.Advance(g, tbl, baseTime, evs)

	assert.Equal(t, string(command.ActionCall), tbl.Seats[1].LastAction)
	assert.Equal(t, int64(50), tbl.Seats[1].CurrentBet)
	assert.Equal(t, 2, tbl.ActionSeat)
}

func TestHandCompleteWaitsForReviewPeriod(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionFold, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionFold, 0, baseTime, evs))
	require.Equal(t, game.PhaseHandComplete, tbl.Phase)

	// Still inside the review window: nothing moves.
	r.Advance(g, tbl, baseTime.Add(5*time.Second), event.NewContext())
	assert.Equal(t, game.PhaseHandComplete, tbl.Phase)
	assert.Equal(t, int64(1), tbl.HandNumber)

	// Past the window the next hand deals with the button rotated.
	r.Advance(g, tbl, baseTime.Add(16*time.Second), event.NewContext())
	assert.Equal(t, game.PhasePreFlopBetting, tbl.Phase)
	assert.Equal(t, int64(2), tbl.HandNumber)
	assert.Equal(t, 1, tbl.DealerSeat)
	assert.Equal(t, int64(30_000), g.TotalChips())
}

func TestForceFoldEndsHandWhenOneRemains(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	evs := event.NewContext()
	r.ForceFold(g, tbl, ids[0], baseTime, evs)
	assert.Equal(t, game.SeatStatusFolded, tbl.Seats[0].Status)
	assert.Equal(t, 1, tbl.ActionSeat)

	r.ForceFold(g, tbl, ids[1], baseTime, evs)
	assert.Equal(t, game.PhaseHandComplete, tbl.Phase)
	assert.Equal(t, int64(10_025), g.Players[ids[2]].Chips)
	assert.Equal(t, int64(30_000), g.TotalChips())
}

func TestPauseAfterHandDrainsBeforePausing(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	tbl.RequestPause()
	require.Equal(t, game.TableStatusPauseAfterHand, tbl.Status)

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionFold, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionFold, 0, baseTime, evs))
	require.Equal(t, game.PhaseHandComplete, tbl.Phase)

	r.Advance(g, tbl, baseTime.Add(16*time.Second), event.NewContext())
	assert.Equal(t, game.TableStatusPaused, tbl.Status)
	assert.Equal(t, game.PhaseWaitingForPlayers, tbl.Phase)
}

func TestBustedCashPlayerSitsOutUntilRebuy(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	dealHand(t, g, tbl, baseTime)
	r := New()

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionFold, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionFold, 0, baseTime, evs))
	require.Equal(t, game.PhaseHandComplete, tbl.Phase)

	// Simulate the dealer having lost their whole stack this hand.
	g.Players[ids[0]].Chips = 0

	r.Advance(g, tbl, baseTime.Add(16*time.Second), event.NewContext())

	assert.Equal(t, game.PlayerStatusBuyingIn, g.Players[ids[0]].Status)
	assert.Equal(t, game.SeatStatusJoinedWaiting, tbl.Seats[0].Status)
	// Only two funded players remain, the next hand deals heads-up.
	assert.Equal(t, game.PhasePreFlopBetting, tbl.Phase)
	assert.Equal(t, tbl.DealerSeat, tbl.SmallBlindSeat)
}

func TestBustedTournamentPlayerEliminatedAfterCliff(t *testing.T) {
	g, tbl, ids := newTestTable(10_000, 10_000, 10_000)
	g.Format = game.FormatTournament
	g.Config.Blinds.CliffLevel = 1
	g.CurrentLevel = 1
	dealHand(t, g, tbl, baseTime)
	r := New()

	evs := event.NewContext()
	require.NoError(t, r.ApplyAction(g, tbl, ids[0], command.ActionFold, 0, baseTime, evs))
	require.NoError(t, r.ApplyAction(g, tbl, ids[1], command.ActionFold, 0, baseTime, evs))
	require.Equal(t, game.PhaseHandComplete, tbl.Phase)

	g.Players[ids[0]].Chips = 0

	r.Advance(g, tbl, baseTime.Add(16*time.Second), event.NewContext())

	assert.Equal(t, game.PlayerStatusOut, g.Players[ids[0]].Status)
	assert.Nil(t, g.Players[ids[0]].TableID)
	assert.Equal(t, game.SeatStatusEmpty, tbl.Seats[0].Status)
}

func TestFailedDealRefundsPostsAndPausesTable(t *testing.T) {
	// 27 seats want 54 hole cards, more than one deck holds, so the deal
	// fails partway with blinds already posted.
	chips := make([]int64, 27)
	for i := range chips {
		chips[i] = 1_000
	}
	g, tbl, _ := newTestTable(chips...)

	evs := event.NewContext()
	New().Advance(g, tbl, baseTime, evs)

	assert.Contains(t, eventTypes(evs), event.TypeSystemError)
	assert.Equal(t, game.TableStatusPaused, tbl.Status)
	assert.Equal(t, game.PhaseWaitingForPlayers, tbl.Phase)
	assert.Empty(t, tbl.Pots)
	assert.Equal(t, int64(27_000), g.TotalChips())
	for _, p := range g.Players {
		assert.Equal(t, int64(1_000), p.Chips)
	}
}
