package manager

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardroomlabs/cardroom/internal/engine/command"
	"github.com/cardroomlabs/cardroom/internal/engine/event"
	"github.com/cardroomlabs/cardroom/internal/engine/game"
)

// apply evaluates one command against current state. Every validation
// failure becomes a UserMessage to the issuer and nothing else changes;
// commands never throw out of the tick.
func (m *Manager) apply(cmd command.Command, now time.Time, evs *event.Context) {
	var err error

	switch c := cmd.(type) {
	case command.RegisterForGame:
		err = m.register(c, now, evs)
	case command.UnregisterFromGame:
		err = m.unregister(c, now, evs)
	case command.StartGame:
		err = m.adminOnly(c, func() error { return m.game.Start(now, evs) })
	case command.PauseGame:
		err = m.adminOnly(c, func() error {
			if m.game.Status != game.StatusActive {
				return game.ErrWrongStatus
			}
			m.game.RequestPause(now, evs)
			return nil
		})
	case command.ResumeGame:
		err = m.adminOnly(c, func() error {
			if m.game.Status != game.StatusPaused {
				return game.ErrWrongStatus
			}
			m.game.Resume(now, evs)
			return nil
		})
	case command.EndGame:
		err = m.adminOnly(c, func() error {
			if m.game.Completed() {
				return game.ErrWrongStatus
			}
			m.game.RequestEnd(now, evs)
			return nil
		})
	case command.BuyIn:
		err = m.buyIn(c, now, evs)
	case command.Rebuy:
		err = m.rebuy(c, now, evs)
	case command.AddOn:
		err = m.addOn(c, now, evs)
	case command.LeaveGame:
		err = m.leave(c, now, evs)
	case command.SitOut:
		err = m.sitOut(c, now, evs)
	case command.ComeBack:
		err = m.comeBack(c)
	case command.PlayerAction:
		err = m.playerAction(c, now, evs)
	case command.PlayerIntent:
		err = m.playerIntent(c)
	case command.PostBlind:
		err = m.postBlind(c)
	case command.ShowCards:
		err = m.showCards(c, now, evs)
	default:
		err = game.ErrWrongStatus
	}

	if err != nil {
		evs.Emit(event.UserMessage{
			Base:     event.NewBase(m.game.ID, now),
			UserID:   cmd.IssuingUser(),
			Severity: event.SeverityError,
			Message:  err.Error(),
		})
	}
}

// adminOnly gates a command to the game owner.
func (m *Manager) adminOnly(cmd command.Command, fn func() error) error {
	if !m.game.IsOwner(cmd.IssuingUser()) {
		return game.ErrNotOwner
	}
	return fn()
}

func (m *Manager) register(c command.RegisterForGame, now time.Time, evs *event.Context) error {
	g := m.game
	issuer := c.IssuingUser()

	if p, ok := g.Players[issuer]; ok && p.Status != game.PlayerStatusOut {
		return game.ErrAlreadyRegistered
	}

	switch g.Status {
	case game.StatusScheduled, game.StatusSeating:
	case game.StatusActive:
		// Late registration is a cash-table affordance only.
		if g.Format != game.FormatCash {
			return game.ErrWrongStatus
		}
	default:
		return game.ErrWrongStatus
	}

	p := &game.Player{
		UserID:   issuer,
		Username: c.Username,
		Status:   game.PlayerStatusRegistered,
	}
	if g.Format == game.FormatTournament {
		// Tournament entry is the fixed buy-in for the fixed stack.
		p.Chips = g.Config.StartingChips
		p.TotalBuyIn = g.Config.BuyInMin
	}
	g.Players[issuer] = p

	if g.Status != game.StatusScheduled {
		g.SeatNewPlayer(p, now, evs)
	}

	evs.Emit(event.PlayerRegistered{
		Base:     event.NewBase(g.ID, now),
		UserID:   issuer,
		Username: c.Username,
	})
	return nil
}

func (m *Manager) unregister(c command.UnregisterFromGame, now time.Time, evs *event.Context) error {
	g := m.game
	p, ok := g.Players[c.IssuingUser()]
	if !ok || p.Status == game.PlayerStatusOut {
		return game.ErrNotRegistered
	}
	if g.Status != game.StatusScheduled && g.Status != game.StatusSeating {
		return game.ErrWrongStatus
	}

	if p.TableID != nil {
		if t, ok := g.Table(*p.TableID); ok {
			t.RemovePlayer(p.UserID)
		}
		p.TableID = nil
	}
	p.Status = game.PlayerStatusOut

	evs.Emit(event.PlayerUnregistered{
		Base:   event.NewBase(g.ID, now),
		UserID: p.UserID,
	})
	return nil
}

func (m *Manager) buyIn(c command.BuyIn, now time.Time, evs *event.Context) error {
	g := m.game
	if g.Format != game.FormatCash {
		return game.ErrWrongStatus
	}
	p, ok := g.Players[c.IssuingUser()]
	if !ok || p.Status == game.PlayerStatusOut {
		return game.ErrNotRegistered
	}
	if c.Amount < g.Config.BuyInMin || (g.Config.BuyInMax > 0 && c.Amount > g.Config.BuyInMax) {
		return game.ErrInvalidAmount
	}

	p.Chips += c.Amount
	p.TotalBuyIn += c.Amount
	if p.Status == game.PlayerStatusRegistered || p.Status == game.PlayerStatusBuyingIn {
		p.Status = game.PlayerStatusActive
	}

	evs.Emit(event.PlayerBuyIn{
		Base:   event.NewBase(g.ID, now),
		UserID: p.UserID,
		Amount: c.Amount,
		Kind:   "buy_in",
	})
	return nil
}

func (m *Manager) rebuy(c command.Rebuy, now time.Time, evs *event.Context) error {
	g := m.game
	if g.Format != game.FormatTournament {
		return game.ErrWrongStatus
	}
	p, ok := g.Players[c.IssuingUser()]
	if !ok || p.Status == game.PlayerStatusOut {
		return game.ErrNotRegistered
	}
	if !g.Config.Blinds.RebuyAllowed(g.CurrentLevel) {
		return game.ErrRebuyClosed
	}
	if p.Funded() {
		return game.ErrInvalidAmount
	}

	chips := g.Config.RebuyChips
	if chips <= 0 {
		chips = g.Config.StartingChips
	}
	p.Chips += chips
	p.TotalRebuy += chips
	if p.Status == game.PlayerStatusBuyingIn {
		p.Status = game.PlayerStatusActive
	}

	evs.Emit(event.PlayerBuyIn{
		Base:   event.NewBase(g.ID, now),
		UserID: p.UserID,
		Amount: chips,
		Kind:   "rebuy",
	})
	return nil
}

func (m *Manager) addOn(c command.AddOn, now time.Time, evs *event.Context) error {
	g := m.game
	if g.Format != game.FormatTournament {
		return game.ErrWrongStatus
	}
	p, ok := g.Players[c.IssuingUser()]
	if !ok || p.Status == game.PlayerStatusOut {
		return game.ErrNotRegistered
	}
	if !g.Config.Blinds.AddOnAllowed(g.CurrentLevel) || g.Config.AddOnChips <= 0 {
		return game.ErrAddOnClosed
	}

	p.Chips += g.Config.AddOnChips
	p.TotalAddOn += g.Config.AddOnChips

	evs.Emit(event.PlayerBuyIn{
		Base:   event.NewBase(g.ID, now),
		UserID: p.UserID,
		Amount: g.Config.AddOnChips,
		Kind:   "add_on",
	})
	return nil
}

func (m *Manager) leave(c command.LeaveGame, now time.Time, evs *event.Context) error {
	g := m.game
	p, ok := g.Players[c.IssuingUser()]
	if !ok || p.Status == game.PlayerStatusOut {
		return game.ErrNotRegistered
	}

	if p.TableID != nil {
		if t, ok := g.Table(*p.TableID); ok {
			if t.HandInProgress() && t.SeatOf(p.UserID) >= 0 {
				// The seat keeps its posted chips until the hand settles;
				// finishHand empties it once the player is out.
				m.rules.ForceFold(g, t, p.UserID, now, evs)
			} else {
				t.RemovePlayer(p.UserID)
			}
		}
		p.TableID = nil
	}
	p.Status = game.PlayerStatusOut

	evs.Emit(event.GameMessage{
		Base:    event.NewBase(g.ID, now),
		Message: p.Username + " left the game",
	})
	return nil
}

func (m *Manager) sitOut(c command.SitOut, now time.Time, evs *event.Context) error {
	g := m.game
	p, ok := g.Players[c.IssuingUser()]
	if !ok || p.Status == game.PlayerStatusOut {
		return game.ErrNotRegistered
	}

	p.Status = game.PlayerStatusAway
	if t, ok := g.PlayerTable(p.UserID); ok {
		if seat := t.SeatOf(p.UserID); seat >= 0 && t.Seats[seat].InHand() && t.HandInProgress() {
			m.rules.ForceFold(g, t, p.UserID, now, evs)
		} else if seat >= 0 {
			t.Seats[seat].Status = game.SeatStatusAway
		}
	}
	return nil
}

func (m *Manager) comeBack(c command.ComeBack) error {
	g := m.game
	p, ok := g.Players[c.IssuingUser()]
	if !ok || p.Status != game.PlayerStatusAway {
		return game.ErrNotRegistered
	}

	p.Status = game.PlayerStatusActive
	if t, ok := g.PlayerTable(p.UserID); ok {
		if seat := t.SeatOf(p.UserID); seat >= 0 {
			t.Seats[seat].Status = game.SeatStatusJoinedWaiting
			// Returning players owe a dead blind rather than waiting for
			// the big blind to reach them.
			t.Seats[seat].PendingBlind = true
		}
	}
	return nil
}

func (m *Manager) playerAction(c command.PlayerAction, now time.Time, evs *event.Context) error {
	t, err := m.targetTable(c.IssuingUser(), c.TableID)
	if err != nil {
		return err
	}
	return m.rules.ApplyAction(m.game, t, c.IssuingUser(), c.Action, c.Amount, now, evs)
}

func (m *Manager) playerIntent(c command.PlayerIntent) error {
	t, err := m.targetTable(c.IssuingUser(), c.TableID)
	if err != nil {
		return err
	}
	return m.rules.StoreIntent(t, c.IssuingUser(), c.Action, c.Amount)
}

func (m *Manager) postBlind(c command.PostBlind) error {
	t, err := m.targetTable(c.IssuingUser(), c.TableID)
	if err != nil {
		return err
	}
	seat := t.SeatOf(c.IssuingUser())
	if seat < 0 {
		return game.ErrNotRegistered
	}
	t.Seats[seat].PendingBlind = true
	return nil
}

func (m *Manager) showCards(c command.ShowCards, now time.Time, evs *event.Context) error {
	t, err := m.targetTable(c.IssuingUser(), c.TableID)
	if err != nil {
		return err
	}
	return m.rules.Reveal(m.game, t, c.IssuingUser(), now, evs)
}

// targetTable resolves a command's table: the explicit id when given,
// otherwise the issuer's seat assignment.
func (m *Manager) targetTable(issuer uuid.UUID, tableID uuid.UUID) (*game.Table, error) {
	if tableID != uuid.Nil {
		t, ok := m.game.Table(tableID)
		if !ok {
			return nil, game.ErrTableNotFound
		}
		return t, nil
	}
	t, ok := m.game.PlayerTable(issuer)
	if !ok {
		return nil, game.ErrTableNotFound
	}
	return t, nil
}
