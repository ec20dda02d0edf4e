package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardroomlabs/cardroom/internal/engine/blinds"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() FormatConfig {
	return FormatConfig{
		SeatsPerTable: 9,
		MinPlayers:    2,
		StartingChips: 10_000,
		Blinds:        blinds.Schedule{Levels: []blinds.Level{{SmallBlind: 25, BigBlind: 50}}},
	}
}

func newScheduledGame(players int, startTime time.Time) (*Game, []uuid.UUID) {
	g := New("test game", FormatTournament, uuid.New(), startTime, testConfig(), baseTime)
	ids := make([]uuid.UUID, players)
	for i := range ids {
		id := uuid.New()
		ids[i] = id
		g.Players[id] = &Player{
			UserID:   id,
			Username: fmt.Sprintf("player%d", i),
			Status:   PlayerStatusRegistered,
			Chips:    g.Config.StartingChips,
		}
	}
	return g, ids
}

func TestNormalizeFillsDefaults(t *testing.T) {
	var cfg FormatConfig
	cfg.Normalize()

	assert.Equal(t, DefaultSeatsPerTable, cfg.SeatsPerTable)
	assert.Equal(t, DefaultMinPlayers, cfg.MinPlayers)
	assert.Equal(t, DefaultActionTimeout, cfg.ActionTimeout)
	assert.Equal(t, DefaultReviewPeriod, cfg.ReviewPeriod)
	assert.Equal(t, DefaultSeatingLeadTime, cfg.SeatingLeadTime)
}

func TestSeatingOpensAtLeadTime(t *testing.T) {
	start := baseTime.Add(10 * time.Minute)
	g, _ := newScheduledGame(12, start)

	// Too early: nothing moves.
	g.Advance(baseTime, event.NewContext())
	assert.Equal(t, StatusScheduled, g.Status)
	assert.Empty(t, g.Tables)

	// Lead time reached: tables open and players are spread evenly.
	evs := event.NewContext()
	g.Advance(start.Add(-DefaultSeatingLeadTime), evs)

	assert.Equal(t, StatusSeating, g.Status)
	require.Len(t, g.Tables, 2)
	for _, tbl := range g.Tables {
		assert.Equal(t, 6, tbl.OccupiedCount())
		assert.Equal(t, TableStatusPaused, tbl.Status)
	}
	for _, p := range g.Players {
		require.NotNil(t, p.TableID)
	}
}

func TestStartGuards(t *testing.T) {
	start := baseTime.Add(10 * time.Minute)
	g, _ := newScheduledGame(3, start)

	assert.ErrorIs(t, g.Start(start, event.NewContext()), ErrWrongStatus)

	g.Advance(start.Add(-DefaultSeatingLeadTime), event.NewContext())
	require.Equal(t, StatusSeating, g.Status)

	assert.ErrorIs(t, g.Start(start.Add(-time.Second), event.NewContext()), ErrStartTimeNotReached)

	evs := event.NewContext()
	require.NoError(t, g.Start(start, evs))
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, start, g.LevelStartedAt)
	for _, tbl := range g.Tables {
		assert.Equal(t, TableStatusPlaying, tbl.Status)
	}
}

func TestStartNeedsMinimumPlayers(t *testing.T) {
	start := baseTime.Add(10 * time.Minute)
	g, _ := newScheduledGame(1, start)
	g.Advance(start.Add(-DefaultSeatingLeadTime), event.NewContext())
	require.Equal(t, StatusSeating, g.Status)

	assert.ErrorIs(t, g.Start(start, event.NewContext()), ErrNotEnoughPlayers)
}

// activeGameWithTables builds an active game and seats occupancies[i] players
// at table i, bypassing the seating flow.
func activeGameWithTables(occupancies ...int) *Game {
	g := New("test game", FormatTournament, uuid.New(), baseTime, testConfig(), baseTime)
	g.Status = StatusActive

	n := 0
	for _, occ := range occupancies {
		tbl := NewTable(g.Config.SeatsPerTable)
		g.Tables[tbl.ID] = tbl
		for i := 0; i < occ; i++ {
			id := uuid.New()
			tableID := tbl.ID
			g.Players[id] = &Player{
				UserID:   id,
				Username: fmt.Sprintf("player%d", n),
				Status:   PlayerStatusActive,
				Chips:    10_000,
				TableID:  &tableID,
			}
			tbl.SeatPlayer(id)
			n++
		}
	}
	return g
}

func occupancyBounds(g *Game) (int, int) {
	minOcc, maxOcc := -1, 0
	for _, tbl := range g.Tables {
		occ := tbl.OccupiedCount()
		if minOcc == -1 || occ < minOcc {
			minOcc = occ
		}
		if occ > maxOcc {
			maxOcc = occ
		}
	}
	return minOcc, maxOcc
}

// assertSeatingConsistent checks every player is seated exactly where their
// TableID says, and nobody was dropped.
func assertSeatingConsistent(t *testing.T, g *Game) {
	t.Helper()
	seated := 0
	for _, tbl := range g.Tables {
		for _, s := range tbl.Seats {
			if !s.Occupied() {
				continue
			}
			seated++
			p := g.Players[*s.PlayerID]
			require.NotNil(t, p)
			require.NotNil(t, p.TableID)
			assert.Equal(t, tbl.ID, *p.TableID)
		}
	}
	assert.Equal(t, len(g.Players), seated)
}

func TestRebalanceRestoresTolerance(t *testing.T) {
	g := activeGameWithTables(9, 2)
	require.True(t, g.NeedsRebalance())

	g.Rebalance(baseTime, event.NewContext())

	minOcc, maxOcc := occupancyBounds(g)
	assert.LessOrEqual(t, maxOcc-minOcc, 1)
	assert.Len(t, g.Tables, 2)
	assertSeatingConsistent(t, g)
	assert.False(t, g.NeedsRebalance())
}

func TestRebalanceBreaksSurplusTable(t *testing.T) {
	g := activeGameWithTables(3, 3)
	require.True(t, g.NeedsRebalance())

	g.Rebalance(baseTime, event.NewContext())

	assert.Len(t, g.Tables, 1)
	for _, tbl := range g.Tables {
		assert.Equal(t, 6, tbl.OccupiedCount())
	}
	assertSeatingConsistent(t, g)
}

func TestRebalanceGrowsTableSet(t *testing.T) {
	g := activeGameWithTables(9)

	// Four late registrants are waiting without a seat.
	for i := 0; i < 4; i++ {
		id := uuid.New()
		g.Players[id] = &Player{UserID: id, Username: fmt.Sprintf("late%d", i), Status: PlayerStatusRegistered, Chips: 10_000}
	}
	require.True(t, g.NeedsRebalance())

	g.Rebalance(baseTime, event.NewContext())

	assert.Len(t, g.Tables, 2)
	minOcc, maxOcc := occupancyBounds(g)
	assert.LessOrEqual(t, maxOcc-minOcc, 1)
	assertSeatingConsistent(t, g)
}

func TestBalancedGameNeedsNoRebalance(t *testing.T) {
	g := activeGameWithTables(6, 5)
	assert.False(t, g.NeedsRebalance())
}

func TestSeatNewPlayerPicksLeastOccupiedTable(t *testing.T) {
	g := activeGameWithTables(5, 3)

	id := uuid.New()
	p := &Player{UserID: id, Username: "late", Status: PlayerStatusRegistered, Chips: 10_000}
	g.Players[id] = p

	require.True(t, g.SeatNewPlayer(p, baseTime, event.NewContext()))
	require.NotNil(t, p.TableID)
	tbl := g.Tables[*p.TableID]
	assert.Equal(t, 4, tbl.OccupiedCount())
}

func TestSeatNewPlayerFailsWhenFull(t *testing.T) {
	g := activeGameWithTables(9)

	id := uuid.New()
	p := &Player{UserID: id, Username: "late", Status: PlayerStatusRegistered, Chips: 10_000}
	g.Players[id] = p

	assert.False(t, g.SeatNewPlayer(p, baseTime, event.NewContext()))
	assert.Nil(t, p.TableID)
}

func TestPauseWaitsForHandsToDrain(t *testing.T) {
	g := activeGameWithTables(3)
	var tbl *Table
	for _, each := range g.Tables {
		tbl = each
	}
	tbl.Status = TableStatusPlaying
	tbl.Phase = PhaseFlopBetting

	g.RequestPause(baseTime, event.NewContext())

	// A hand is in the air: the pause is pending, not applied.
	assert.Equal(t, StatusActive, g.Status)
	assert.Equal(t, StatusPaused, g.Pending)
	assert.Equal(t, TableStatusPauseAfterHand, tbl.Status)

	// Hand completes and the table drains; the pending status lands.
	tbl.Status = TableStatusPaused
	tbl.Phase = PhaseWaitingForPlayers
	g.ResolvePending(baseTime, event.NewContext())

	assert.Equal(t, StatusPaused, g.Status)
	assert.Empty(t, g.Pending)
}

func TestPauseAppliesImmediatelyWhenIdle(t *testing.T) {
	g := activeGameWithTables(3)

	evs := event.NewContext()
	g.RequestPause(baseTime, evs)

	assert.Equal(t, StatusPaused, g.Status)
	assert.Empty(t, g.Pending)
}

func TestResumeReopensTables(t *testing.T) {
	g := activeGameWithTables(3)
	g.RequestPause(baseTime, event.NewContext())
	require.Equal(t, StatusPaused, g.Status)

	g.Resume(baseTime, event.NewContext())

	assert.Equal(t, StatusActive, g.Status)
	for _, tbl := range g.Tables {
		assert.Equal(t, TableStatusPlaying, tbl.Status)
	}
}

func TestTournamentEndsWithOneFundedPlayer(t *testing.T) {
	g := activeGameWithTables(2)
	for _, p := range g.Players {
		p.Chips = 0
		break
	}

	g.Advance(baseTime, event.NewContext())

	assert.Equal(t, StatusCompleted, g.Status)
	assert.True(t, g.Completed())
}

func TestBlindLevelAdvancesOnSchedule(t *testing.T) {
	g := activeGameWithTables(4)
	g.Config.LevelDuration = 10 * time.Minute

	// First active tick anchors the level clock.
	g.Advance(baseTime, event.NewContext())
	require.Equal(t, 0, g.CurrentLevel)
	require.Equal(t, baseTime, g.LevelStartedAt)

	g.Advance(baseTime.Add(9*time.Minute), event.NewContext())
	assert.Equal(t, 0, g.CurrentLevel)

	evs := event.NewContext()
	g.Advance(baseTime.Add(10*time.Minute), evs)
	assert.Equal(t, 1, g.CurrentLevel)
	assert.Equal(t, baseTime.Add(10*time.Minute), g.LevelStartedAt)
	assert.True(t, evs.Any())
}

func TestCashGameIgnoresLevelDuration(t *testing.T) {
	g := activeGameWithTables(4)
	g.Format = FormatCash
	g.Config.LevelDuration = 10 * time.Minute

	g.Advance(baseTime, event.NewContext())
	g.Advance(baseTime.Add(time.Hour), event.NewContext())

	assert.Equal(t, 0, g.CurrentLevel)
}

func TestRebalancePassPausesAndResumesTables(t *testing.T) {
	g := activeGameWithTables(9, 2)
	for _, tbl := range g.Tables {
		tbl.Status = TableStatusPlaying
	}

	// Drift detected: the game drains its tables for a balancing pass.
	g.Advance(baseTime, event.NewContext())
	assert.Equal(t, StatusBalancing, g.Status)
	for _, tbl := range g.Tables {
		assert.Equal(t, TableStatusPaused, tbl.Status)
	}

	// Next tick all tables are paused, so the move happens and play resumes.
	g.Advance(baseTime.Add(time.Second), event.NewContext())
	assert.Equal(t, StatusActive, g.Status)
	minOcc, maxOcc := occupancyBounds(g)
	assert.LessOrEqual(t, maxOcc-minOcc, 1)
	for _, tbl := range g.Tables {
		assert.Equal(t, TableStatusPlaying, tbl.Status)
	}
}
