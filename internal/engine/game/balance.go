package game

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/event"
)

// openSeating creates tables sized to ceil(playerCount/seatsPerTable) and
// distributes the registered players round-robin, so table sizes differ by
// at most one. All new tables start paused.
func (g *Game) openSeating(now time.Time, evs *event.Context) {
	players := g.seatablePlayers()

	tableCount := (len(players) + g.Config.SeatsPerTable - 1) / g.Config.SeatsPerTable
	if tableCount < 1 {
		tableCount = 1
	}

	tables := make([]*Table, 0, tableCount)
	for i := 0; i < tableCount; i++ {
		t := NewTable(g.Config.SeatsPerTable)
		g.Tables[t.ID] = t
		tables = append(tables, t)
	}

	for i, p := range players {
		t := tables[i%tableCount]
		g.seatAt(t, p, now, evs)
	}
}

// SeatNewPlayer places a late registrant at the least-occupied table with an
// open seat. Returns false when every table is full; the next rebalance pass
// will grow the table set and pick the player up.
func (g *Game) SeatNewPlayer(p *Player, now time.Time, evs *event.Context) bool {
	var target *Table
	for _, t := range g.sortedTables() {
		if t.OccupiedCount() >= len(t.Seats) {
			continue
		}
		if target == nil || t.OccupiedCount() < target.OccupiedCount() {
			target = t
		}
	}
	if target == nil {
		return false
	}
	g.seatAt(target, p, now, evs)
	return true
}

// NeedsRebalance reports whether table occupancy drifted outside the ±1
// tolerance, the table count no longer matches the player count, or players
// are waiting without a seat.
func (g *Game) NeedsRebalance() bool {
	if len(g.Tables) == 0 {
		return false
	}

	seatable := len(g.seatablePlayers()) + g.seatedPlayerCount()
	desired := (seatable + g.Config.SeatsPerTable - 1) / g.Config.SeatsPerTable
	if desired < 1 {
		desired = 1
	}
	if desired != len(g.Tables) {
		return true
	}
	if len(g.seatablePlayers()) > 0 {
		return true
	}

	minOcc, maxOcc := -1, 0
	for _, t := range g.Tables {
		occ := t.OccupiedCount()
		if minOcc == -1 || occ < minOcc {
			minOcc = occ
		}
		if occ > maxOcc {
			maxOcc = occ
		}
	}
	return maxOcc-minOcc > 1
}

// Rebalance restores the ±1 occupancy tolerance. Only call with every table
// paused: seats move between tables, and a moving seat must not be mid-hand.
// Existing assignments are preserved where possible to minimize churn.
func (g *Game) Rebalance(now time.Time, evs *event.Context) {
	seated := g.seatedPlayerCount()
	waiting := g.seatablePlayers()
	total := seated + len(waiting)

	desired := (total + g.Config.SeatsPerTable - 1) / g.Config.SeatsPerTable
	if desired < 1 {
		desired = 1
	}

	tables := g.sortedTables()

	// Grow the table set first so targets account for new tables.
	for len(tables) < desired {
		t := NewTable(g.Config.SeatsPerTable)
		g.Tables[t.ID] = t
		tables = append(tables, t)
		sort.Slice(tables, func(i, j int) bool { return tables[i].ID.String() < tables[j].ID.String() })
	}

	// Shrink: break the emptiest tables and pool their players.
	pool := make([]*Player, 0, len(waiting))
	pool = append(pool, waiting...)
	for len(tables) > desired {
		sort.Slice(tables, func(i, j int) bool { return tables[i].OccupiedCount() < tables[j].OccupiedCount() })
		victim := tables[0]
		for _, s := range victim.Seats {
			if s.Occupied() {
				p := g.Players[*s.PlayerID]
				p.TableID = nil
				pool = append(pool, p)
			}
		}
		delete(g.Tables, victim.ID)
		tables = tables[1:]
		sort.Slice(tables, func(i, j int) bool { return tables[i].ID.String() < tables[j].ID.String() })
	}

	// Per-table targets: total/desired each, remainder spread one per table.
	base := total / desired
	rem := total % desired
	targets := make(map[uuid.UUID]int, len(tables))
	for i, t := range tables {
		target := base
		if i < rem {
			target++
		}
		targets[t.ID] = target
	}

	// Pull overflow from the most over-full tables, highest seats first.
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].OccupiedCount()-targets[tables[i].ID] > tables[j].OccupiedCount()-targets[tables[j].ID]
	})
	for _, t := range tables {
		for t.OccupiedCount() > targets[t.ID] {
			for i := len(t.Seats) - 1; i >= 0; i-- {
				if t.Seats[i].Occupied() {
					p := g.Players[*t.Seats[i].PlayerID]
					p.TableID = nil
					*t.Seats[i] = Seat{Status: SeatStatusEmpty}
					pool = append(pool, p)
					break
				}
			}
		}
	}

	// Deterministic pool order before refilling.
	sort.Slice(pool, func(i, j int) bool { return pool[i].UserID.String() < pool[j].UserID.String() })

	sort.Slice(tables, func(i, j int) bool { return tables[i].ID.String() < tables[j].ID.String() })
	for _, p := range pool {
		for _, t := range tables {
			if t.OccupiedCount() < targets[t.ID] {
				g.seatAt(t, p, now, evs)
				break
			}
		}
	}
}

// seatAt seats the player and records the move.
func (g *Game) seatAt(t *Table, p *Player, now time.Time, evs *event.Context) {
	if t.SeatPlayer(p.UserID) < 0 {
		return
	}
	from := p.TableID
	id := t.ID
	p.TableID = &id
	evs.Emit(event.PlayerMoved{
		Base:        event.NewBase(g.ID, now),
		UserID:      p.UserID,
		FromTableID: from,
		ToTableID:   t.ID,
	})
}

// seatablePlayers returns, in deterministic order, the players who should
// hold a seat but currently do not.
func (g *Game) seatablePlayers() []*Player {
	players := make([]*Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.CanBeSeated() && p.TableID == nil {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].UserID.String() < players[j].UserID.String() })
	return players
}

func (g *Game) sortedTables() []*Table {
	tables := make([]*Table, 0, len(g.Tables))
	for _, t := range g.Tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID.String() < tables[j].ID.String() })
	return tables
}
