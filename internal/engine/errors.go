package engine

import "errors"

// ErrorKind groups rejections so callers can decide how to present them.
type ErrorKind string

const (
	KindStructural    ErrorKind = "structural"
	KindAuthorization ErrorKind = "authorization"
	KindPhase         ErrorKind = "phase"
	KindPlacement     ErrorKind = "placement"
	KindMovement      ErrorKind = "movement"
	KindArithmetic    ErrorKind = "arithmetic"
)

// RuleError is a rejected action. Every RuleError is a package-level sentinel,
// compare with errors.Is.
type RuleError struct {
	Code    string
	Kind    ErrorKind
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func newRuleError(kind ErrorKind, code, msg string) *RuleError {
	return &RuleError{Code: code, Kind: kind, Message: msg}
}

var (
	ErrBadCell                = newRuleError(KindStructural, "BadCell", "bad cell")
	ErrLineupLengthMismatch   = newRuleError(KindStructural, "LineupLengthMismatch", "lineup length mismatch")
	ErrLineupPositionsEmpty   = newRuleError(KindStructural, "LineupPositionsEmpty", "lineup positions empty")
	ErrOnlyRpsAllowed         = newRuleError(KindStructural, "OnlyRpsAllowed", "only R/P/S allowed")
	ErrMustHaveExactlyOneFlag = newRuleError(KindStructural, "MustHaveExactlyOneFlag", "lineup must have exactly one flag")
	ErrUnsupportedCommand     = newRuleError(KindStructural, "UnsupportedCommand", "unsupported command")
	ErrUnknownRule            = newRuleError(KindStructural, "UnknownRule", "unknown rule")

	ErrNotParticipant     = newRuleError(KindAuthorization, "NotParticipant", "not a participant")
	ErrNotYourTurn        = newRuleError(KindAuthorization, "NotYourTurn", "not your turn")
	ErrNotAllowedJoinGame = newRuleError(KindAuthorization, "NotAllowedJoinGame", "not allowed to join game")

	ErrNoGame                     = newRuleError(KindPhase, "NoGame", "no such game")
	ErrBadPhase                   = newRuleError(KindPhase, "BadPhase", "bad phase")
	ErrGameNotActive              = newRuleError(KindPhase, "GameNotActive", "game not active")
	ErrGameFinished               = newRuleError(KindPhase, "GameFinished", "game already finished")
	ErrPlayer0LineupAlreadyPlaced = newRuleError(KindPhase, "Player0LineupAlreadyPlaced", "player0 lineup already placed")
	ErrPlayer1LineupAlreadyPlaced = newRuleError(KindPhase, "Player1LineupAlreadyPlaced", "player1 lineup already placed")
	ErrTieInProgress              = newRuleError(KindPhase, "TieInProgress", "tie in progress")
	ErrNoTiePending               = newRuleError(KindPhase, "NoTiePending", "no tie pending")
	ErrAlreadyChose               = newRuleError(KindPhase, "AlreadyChose", "already chose")

	ErrPlayer0BadRow       = newRuleError(KindPlacement, "Player0BadRow", "player0: bad row")
	ErrPlayer1BadRow       = newRuleError(KindPlacement, "Player1BadRow", "player1: bad row")
	ErrCellTaken           = newRuleError(KindPlacement, "CellTaken", "cell already taken")
	ErrCannotStackOwnPiece = newRuleError(KindPlacement, "CannotStackOwnPiece", "cannot stack own piece")

	ErrInvalidMove = newRuleError(KindMovement, "InvalidMove", "invalid move")

	ErrOverflow = newRuleError(KindArithmetic, "Overflow", "overflow")
)

// KindOf returns the category of a rule rejection, or "" for any other error.
func KindOf(err error) ErrorKind {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// CodeOf returns the stable code of a rule rejection, or "" for any other error.
func CodeOf(err error) string {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func lineupAlreadyPlaced(o Owner) error {
	if o == OwnerP1 {
		return ErrPlayer1LineupAlreadyPlaced
	}
	return ErrPlayer0LineupAlreadyPlaced
}

func badRow(o Owner) error {
	if o == OwnerP1 {
		return ErrPlayer1BadRow
	}
	return ErrPlayer0BadRow
}
