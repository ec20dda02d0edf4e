// Package command defines the closed set of commands the engine accepts.
// Commands are pure data: validity is evaluated only at apply-time against
// current game state, never at submission.
package command

import "github.com/google/uuid"

// Type discriminates command variants on the wire.
type Type string

const (
	TypeRegisterForGame    Type = "register_for_game"
	TypeUnregisterFromGame Type = "unregister_from_game"
	TypeStartGame          Type = "start_game"
	TypePauseGame          Type = "pause_game"
	TypeResumeGame         Type = "resume_game"
	TypeEndGame            Type = "end_game"
	TypeBuyIn              Type = "buy_in"
	TypeRebuy              Type = "rebuy"
	TypeAddOn              Type = "add_on"
	TypeLeaveGame          Type = "leave_game"
	TypeSitOut             Type = "sit_out"
	TypeComeBack           Type = "come_back"
	TypePlayerAction       Type = "player_action"
	TypePlayerIntent       Type = "player_intent"
	TypePostBlind          Type = "post_blind"
	TypeShowCards          Type = "show_cards"
)

// Command is one request to mutate a game. The issuing user is never part of
// the wire form; the transport layer injects it from the authenticated
// session before submission.
type Command interface {
	CommandType() Type
	CommandGameID() uuid.UUID
	IssuingUser() uuid.UUID
}

// TableScoped marks commands that target one table of a game.
type TableScoped interface {
	Command
	CommandTableID() uuid.UUID
}

// Base carries the fields common to every command.
type Base struct {
	GameID uuid.UUID `json:"game_id"`
	Issuer uuid.UUID `json:"-"`
}

func (b Base) CommandGameID() uuid.UUID { return b.GameID }
func (b Base) IssuingUser() uuid.UUID   { return b.Issuer }

// TableBase extends Base with a table target.
type TableBase struct {
	Base
	TableID uuid.UUID `json:"table_id"`
}

func (b TableBase) CommandTableID() uuid.UUID { return b.TableID }

// RegisterForGame asks to join a game before or during play.
type RegisterForGame struct {
	Base
	Username string `json:"username" validate:"required,min=1,max=50"`
}

func (RegisterForGame) CommandType() Type { return TypeRegisterForGame }

// UnregisterFromGame withdraws a registration before the game starts.
type UnregisterFromGame struct {
	Base
}

func (UnregisterFromGame) CommandType() Type { return TypeUnregisterFromGame }

// StartGame moves a seated game into active play. Owner only.
type StartGame struct {
	Base
}

func (StartGame) CommandType() Type { return TypeStartGame }

// PauseGame requests a two-phase pause: tables drain their current hand
// before the game-level status flips. Owner only.
type PauseGame struct {
	Base
}

func (PauseGame) CommandType() Type { return TypePauseGame }

// ResumeGame restarts a paused game. Owner only.
type ResumeGame struct {
	Base
}

func (ResumeGame) CommandType() Type { return TypeResumeGame }

// EndGame completes a game after draining in-flight hands. Owner only.
type EndGame struct {
	Base
}

func (EndGame) CommandType() Type { return TypeEndGame }

// BuyIn converts bankroll into table chips.
type BuyIn struct {
	Base
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

func (BuyIn) CommandType() Type { return TypeBuyIn }

// Rebuy tops a busted stack back up; tournament rules gate it to levels
// before the cliff.
type Rebuy struct {
	Base
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

func (Rebuy) CommandType() Type { return TypeRebuy }

// AddOn buys the fixed add-on amount at or after the cliff level.
type AddOn struct {
	Base
}

func (AddOn) CommandType() Type { return TypeAddOn }

// LeaveGame removes the player from further play; they are marked out, not
// deleted.
type LeaveGame struct {
	Base
}

func (LeaveGame) CommandType() Type { return TypeLeaveGame }

// SitOut marks a player away; their seats fold by default.
type SitOut struct {
	Base
}

func (SitOut) CommandType() Type { return TypeSitOut }

// ComeBack returns an away player to active play.
type ComeBack struct {
	Base
}

func (ComeBack) CommandType() Type { return TypeComeBack }

// Action is a betting action name.
type Action string

const (
	ActionFold  Action = "fold"
	ActionCheck Action = "check"
	ActionCall  Action = "call"
	ActionBet   Action = "bet"
	ActionRaise Action = "raise"
	ActionAllIn Action = "all_in"
)

// PlayerAction is a betting action at a table.
type PlayerAction struct {
	TableBase
	Action Action `json:"action" validate:"required,oneof=fold check call bet raise all_in"`
	Amount int64  `json:"amount,omitempty" validate:"gte=0"`
}

func (PlayerAction) CommandType() Type { return TypePlayerAction }

// PlayerIntent pre-selects an action to apply when the player's turn
// arrives, replacing the timeout default if still legal.
type PlayerIntent struct {
	TableBase
	Action Action `json:"action" validate:"required,oneof=fold check call bet raise all_in"`
	Amount int64  `json:"amount,omitempty" validate:"gte=0"`
}

func (PlayerIntent) CommandType() Type { return TypePlayerIntent }

// PostBlind posts a due blind out of turn (returning or newly seated player).
type PostBlind struct {
	TableBase
}

func (PostBlind) CommandType() Type { return TypePostBlind }

// ShowCards voluntarily reveals hole cards after a hand.
type ShowCards struct {
	TableBase
}

func (ShowCards) CommandType() Type { return TypeShowCards }
