package game

import (
	"fmt"
	"time"

	"github.com/cardroomlabs/cardroom/internal/engine/event"
)

// SetStatus transitions the game-level status and records the fact.
func (g *Game) SetStatus(next Status, now time.Time, evs *event.Context) {
	if g.Status == next {
		return
	}
	old := g.Status
	g.Status = next
	evs.Emit(event.GameStatusChanged{
		Base:      event.NewBase(g.ID, now),
		OldStatus: string(old),
		NewStatus: string(next),
	})
}

// Advance evaluates the game-level transition rules for one tick. Table
// phase advancement is the table rules' concern and happens separately.
func (g *Game) Advance(now time.Time, evs *event.Context) {
	switch g.Status {
	case StatusScheduled:
		if !now.Before(g.StartTime.Add(-g.Config.SeatingLeadTime)) {
			g.openSeating(now, evs)
			g.SetStatus(StatusSeating, now, evs)
		}

	case StatusActive:
		g.advanceBlindLevel(now, evs)

		if g.Format == FormatTournament && g.Pending == "" && g.fundedPlayerCount() <= 1 {
			g.RequestEnd(now, evs)
		}

		if g.Pending == "" && g.NeedsRebalance() {
			g.SetStatus(StatusBalancing, now, evs)
			for _, t := range g.Tables {
				t.RequestPause()
			}
		}

		g.ResolvePending(now, evs)

	case StatusBalancing:
		if g.AllTablesPaused() {
			g.Rebalance(now, evs)
			for _, t := range g.Tables {
				t.Resume()
			}
			g.SetStatus(StatusActive, now, evs)
		}

	case StatusPaused, StatusSeating, StatusCompleted:
		// Nothing automatic; these move on commands only.
	}
}

// ResolvePending flips the game status once every table has drained after a
// pause or end request. Called again after table advancement so a pause that
// completed mid-tick takes effect in the same tick.
func (g *Game) ResolvePending(now time.Time, evs *event.Context) {
	if g.Pending == "" || !g.AllTablesPaused() {
		return
	}
	target := g.Pending
	g.Pending = ""
	g.SetStatus(target, now, evs)
}

// RequestPause starts the two-phase pause.
func (g *Game) RequestPause(now time.Time, evs *event.Context) {
	g.Pending = StatusPaused
	for _, t := range g.Tables {
		t.RequestPause()
	}
	g.ResolvePending(now, evs)
}

// RequestEnd drains all tables and completes the game.
func (g *Game) RequestEnd(now time.Time, evs *event.Context) {
	g.Pending = StatusCompleted
	for _, t := range g.Tables {
		t.RequestPause()
	}
	g.ResolvePending(now, evs)
}

// Resume flips a paused game and all its tables back to playing.
func (g *Game) Resume(now time.Time, evs *event.Context) {
	for _, t := range g.Tables {
		t.Resume()
	}
	g.SetStatus(StatusActive, now, evs)
}

// Start moves a seated game into active play. The caller has already
// verified the issuer is the owner.
func (g *Game) Start(now time.Time, evs *event.Context) error {
	if g.Status != StatusSeating {
		return ErrWrongStatus
	}
	if now.Before(g.StartTime) {
		return ErrStartTimeNotReached
	}
	if g.seatedPlayerCount() < g.Config.MinPlayers {
		return ErrNotEnoughPlayers
	}

	for _, t := range g.Tables {
		t.Resume()
	}
	g.LevelStartedAt = now
	g.SetStatus(StatusActive, now, evs)
	return nil
}

// advanceBlindLevel moves a tournament to the next blind level when the
// level duration has elapsed.
func (g *Game) advanceBlindLevel(now time.Time, evs *event.Context) {
	if g.Format != FormatTournament || g.Config.LevelDuration <= 0 {
		return
	}
	if g.LevelStartedAt.IsZero() {
		g.LevelStartedAt = now
		return
	}
	if now.Sub(g.LevelStartedAt) < g.Config.LevelDuration {
		return
	}

	g.CurrentLevel++
	g.LevelStartedAt = now
	lvl := g.CurrentBlinds()
	evs.Emit(event.GameMessage{
		Base:    event.NewBase(g.ID, now),
		Message: fmt.Sprintf("blinds up: %d/%d (level %d)", lvl.SmallBlind, lvl.BigBlind, g.CurrentLevel+1),
	})
}

func (g *Game) seatedPlayerCount() int {
	n := 0
	for _, t := range g.Tables {
		n += t.OccupiedCount()
	}
	return n
}

func (g *Game) fundedPlayerCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Status != PlayerStatusOut && p.Funded() {
			n++
		}
	}
	return n
}
