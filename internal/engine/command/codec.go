package command

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Envelope is the wire form of a command: a type discriminator plus the
// variant's payload. Decoding is an explicit switch over the closed set; no
// runtime type registry exists or is wanted.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses an envelope into its concrete command variant.
func Decode(env Envelope) (Command, error) {
	var (
		cmd Command
		err error
	)

	switch env.Type {
	case TypeRegisterForGame:
		cmd, err = decodeAs[RegisterForGame](env.Payload)
	case TypeUnregisterFromGame:
		cmd, err = decodeAs[UnregisterFromGame](env.Payload)
	case TypeStartGame:
		cmd, err = decodeAs[StartGame](env.Payload)
	case TypePauseGame:
		cmd, err = decodeAs[PauseGame](env.Payload)
	case TypeResumeGame:
		cmd, err = decodeAs[ResumeGame](env.Payload)
	case TypeEndGame:
		cmd, err = decodeAs[EndGame](env.Payload)
	case TypeBuyIn:
		cmd, err = decodeAs[BuyIn](env.Payload)
	case TypeRebuy:
		cmd, err = decodeAs[Rebuy](env.Payload)
	case TypeAddOn:
		cmd, err = decodeAs[AddOn](env.Payload)
	case TypeLeaveGame:
		cmd, err = decodeAs[LeaveGame](env.Payload)
	case TypeSitOut:
		cmd, err = decodeAs[SitOut](env.Payload)
	case TypeComeBack:
		cmd, err = decodeAs[ComeBack](env.Payload)
	case TypePlayerAction:
		cmd, err = decodeAs[PlayerAction](env.Payload)
	case TypePlayerIntent:
		cmd, err = decodeAs[PlayerIntent](env.Payload)
	case TypePostBlind:
		cmd, err = decodeAs[PostBlind](env.Payload)
	case TypeShowCards:
		cmd, err = decodeAs[ShowCards](env.Payload)
	default:
		return nil, fmt.Errorf("unknown command type %q", env.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	return cmd, nil
}

// DecodeFor decodes an envelope and stamps the target game and the
// authenticated issuer onto the command, overriding anything the client
// wrote in the payload.
func DecodeFor(env Envelope, gameID, issuer uuid.UUID) (Command, error) {
	cmd, err := Decode(env)
	if err != nil {
		return nil, err
	}
	return stamp(cmd, gameID, issuer), nil
}

func stamp(cmd Command, gameID, issuer uuid.UUID) Command {
	switch c := cmd.(type) {
	case RegisterForGame:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case UnregisterFromGame:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case StartGame:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case PauseGame:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case ResumeGame:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case EndGame:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case BuyIn:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case Rebuy:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case AddOn:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case LeaveGame:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case SitOut:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case ComeBack:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case PlayerAction:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case PlayerIntent:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case PostBlind:
		c.GameID, c.Issuer = gameID, issuer
		return c
	case ShowCards:
		c.GameID, c.Issuer = gameID, issuer
		return c
	}
	return cmd
}

func decodeAs[T Command](payload json.RawMessage) (T, error) {
	var cmd T
	if len(payload) == 0 {
		return cmd, nil
	}
	err := json.Unmarshal(payload, &cmd)
	return cmd, err
}
