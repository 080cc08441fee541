// Package types holds the wire messages shared by the HTTP and websocket
// transports.
package types

import (
	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
)

// Client message types.
const (
	MsgCreateGame     = "create_game"
	MsgJoinGame       = "join_game"
	MsgSubmitLineup   = "submit_lineup"
	MsgSubmitLineupXY = "submit_lineup_xy"
	MsgMovePiece      = "move_piece"
	MsgMovePieceXY    = "move_piece_xy"
	MsgChooseWeapon   = "choose_weapon"
)

// Server message types.
const (
	MsgSnapshot = "snapshot"
	MsgResult   = "result"
	MsgError    = "error"
)

type ClientMessage struct {
	Type     string          `json:"type"`
	PlayerID engine.PlayerID `json:"player_id,omitempty"`

	// create_game
	Rules *engine.Rules `json:"rules,omitempty"`

	// submit_lineup / submit_lineup_xy
	Positions []engine.CellIndex `json:"positions,omitempty"`
	Xs        []int              `json:"xs,omitempty"`
	Ys        []int              `json:"ys,omitempty"`
	Pieces    []engine.Piece     `json:"pieces,omitempty"`

	// move_piece / move_piece_xy
	From  *engine.CellIndex `json:"from,omitempty"`
	To    *engine.CellIndex `json:"to,omitempty"`
	FromX *int              `json:"fromX,omitempty"`
	FromY *int              `json:"fromY,omitempty"`
	ToX   *int              `json:"toX,omitempty"`
	ToY   *int              `json:"toY,omitempty"`

	// choose_weapon
	Choice engine.Choice `json:"choice,omitempty"`
}

type ServerMessage struct {
	Type    string             `json:"type"` // "snapshot" | "result" | "error"
	Version int                `json:"version"`
	State   *engine.PlayerView `json:"state,omitempty"`
	Events  []engine.Event     `json:"events,omitempty"`
	Error   *ErrorBody         `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string           `json:"code"`
	Kind    engine.ErrorKind `json:"kind,omitempty"`
	Message string           `json:"message"`
}

// NewErrorBody describes err for a client. Errors that are not rule
// rejections are reported as "Internal" without their text.
func NewErrorBody(err error) *ErrorBody {
	code := engine.CodeOf(err)
	if code == "" {
		return &ErrorBody{Code: "Internal", Message: "internal error"}
	}
	return &ErrorBody{Code: code, Kind: engine.KindOf(err), Message: err.Error()}
}

// ToCommand turns m into an engine command issued by actor. Coordinate forms
// are converted to cell indices; malformed input yields the same rule errors
// the engine uses.
func ToCommand(m ClientMessage, actor engine.PlayerID, code engine.GameID) (engine.Command, error) {
	cmd := engine.Command{Actor: actor, GameID: code, From: engine.NoCell, To: engine.NoCell}

	switch m.Type {
	case MsgCreateGame:
		cmd.Type = engine.CmdCreateGame
		cmd.Rules = m.Rules

	case MsgJoinGame:
		cmd.Type = engine.CmdJoinGame

	case MsgSubmitLineup:
		cmd.Type = engine.CmdSubmitLineup
		cmd.Positions = m.Positions
		cmd.Pieces = m.Pieces

	case MsgSubmitLineupXY:
		if len(m.Xs) != len(m.Ys) || len(m.Xs) != len(m.Pieces) {
			return engine.Command{}, engine.ErrLineupLengthMismatch
		}
		cmd.Type = engine.CmdSubmitLineup
		cmd.Positions = make([]engine.CellIndex, len(m.Xs))
		for i := range m.Xs {
			idx, err := engine.ToIdx(m.Xs[i], m.Ys[i])
			if err != nil {
				return engine.Command{}, err
			}
			cmd.Positions[i] = idx
		}
		cmd.Pieces = m.Pieces

	case MsgMovePiece:
		if m.From == nil || m.To == nil {
			return engine.Command{}, engine.ErrBadCell
		}
		cmd.Type = engine.CmdMovePiece
		cmd.From, cmd.To = *m.From, *m.To

	case MsgMovePieceXY:
		if m.FromX == nil || m.FromY == nil || m.ToX == nil || m.ToY == nil {
			return engine.Command{}, engine.ErrBadCell
		}
		from, err := engine.ToIdx(*m.FromX, *m.FromY)
		if err != nil {
			return engine.Command{}, err
		}
		to, err := engine.ToIdx(*m.ToX, *m.ToY)
		if err != nil {
			return engine.Command{}, err
		}
		cmd.Type = engine.CmdMovePiece
		cmd.From, cmd.To = from, to

	case MsgChooseWeapon:
		cmd.Type = engine.CmdChooseWeapon
		cmd.Choice = m.Choice

	default:
		return engine.Command{}, engine.ErrUnsupportedCommand
	}
	return cmd, nil
}
