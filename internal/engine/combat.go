package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outcome of a combat, seen from the attacker.
type Outcome int8

const (
	OutcomeDefenderWins Outcome = -1
	OutcomeTie          Outcome = 0
	OutcomeAttackerWins Outcome = 1
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAttackerWins:
		return "attacker_wins"
	case OutcomeDefenderWins:
		return "defender_wins"
	default:
		return "tie"
	}
}

// Choice is a blind tie-break pick. ChoiceNone means "not chosen yet".
type Choice uint8

const (
	ChoiceNone Choice = iota
	ChoiceRock
	ChoicePaper
	ChoiceScissors
)

var choiceNames = [...]string{"none", "rock", "paper", "scissors"}

func (c Choice) String() string {
	if int(c) < len(choiceNames) {
		return choiceNames[c]
	}
	return fmt.Sprintf("choice(%d)", uint8(c))
}

func (c Choice) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Choice) UnmarshalText(b []byte) error {
	for i, name := range choiceNames {
		if strings.EqualFold(string(b), name) {
			*c = Choice(i)
			return nil
		}
	}
	return fmt.Errorf("unknown choice %q", b)
}

func (c Choice) Valid() bool { return c >= ChoiceRock && c <= ChoiceScissors }

func (c Choice) piece() Piece {
	switch c {
	case ChoiceRock:
		return PieceRock
	case ChoicePaper:
		return PiecePaper
	case ChoiceScissors:
		return PieceScissors
	default:
		return PieceEmpty
	}
}

// Beats is the cyclic rule: Rock beats Scissors, Scissors beats Paper, Paper
// beats Rock.
func Beats(a, b Piece) bool {
	switch {
	case a == PieceRock && b == PieceScissors:
		return true
	case a == PieceScissors && b == PiecePaper:
		return true
	case a == PiecePaper && b == PieceRock:
		return true
	}
	return false
}

// DecideChoices compares two tie-break choices from a's side.
func DecideChoices(a, b Choice) Outcome {
	return rps(a.piece(), b.piece())
}

func rps(a, b Piece) Outcome {
	switch {
	case a == b:
		return OutcomeTie
	case Beats(a, b):
		return OutcomeAttackerWins
	default:
		return OutcomeDefenderWins
	}
}

// CombatRule decides a fight between two occupied cells. Flag captures are
// settled before the rule is consulted.
type CombatRule func(attacker, defender Piece) Outcome

// ClassicCombat: R/P/S fight cyclically, identical pieces tie, a Trap kills any
// attacker and stays in place, a Flag cannot win a fight.
func ClassicCombat(attacker, defender Piece) Outcome {
	switch {
	case defender == PieceTrap:
		return OutcomeDefenderWins
	case attacker.IsRPS() && defender.IsRPS():
		return rps(attacker, defender)
	case attacker.IsRPS():
		return OutcomeAttackerWins
	default:
		return OutcomeDefenderWins
	}
}

// InertTrapCombat is ClassicCombat with a Trap that any attacker removes.
func InertTrapCombat(attacker, defender Piece) Outcome {
	if defender == PieceTrap && attacker.IsRPS() {
		return OutcomeAttackerWins
	}
	return ClassicCombat(attacker, defender)
}

type TrapRule string

const (
	TrapDeadly TrapRule = "deadly"
	TrapInert  TrapRule = "inert"
)

func ParseTrapRule(s string) (TrapRule, error) {
	switch TrapRule(strings.ToLower(s)) {
	case TrapDeadly:
		return TrapDeadly, nil
	case TrapInert:
		return TrapInert, nil
	}
	return "", fmt.Errorf("%w: trap rule %q", ErrUnknownRule, s)
}

func (t *TrapRule) UnmarshalText(b []byte) error {
	rule, err := ParseTrapRule(string(b))
	if err != nil {
		return err
	}
	*t = rule
	return nil
}

// Rules are fixed at game creation.
type Rules struct {
	AnnihilationWin bool     `json:"annihilation_win" yaml:"annihilation_win"`
	Trap            TrapRule `json:"trap" yaml:"trap_rule"`
	// Combat overrides the rule selected by Trap. It is not serialized.
	Combat CombatRule `json:"-" yaml:"-"`
}

func DefaultRules() Rules {
	return Rules{AnnihilationWin: true, Trap: TrapDeadly}
}

// UnmarshalJSON decodes on top of the current value, so fields missing from
// data keep it. An unset Rules starts from DefaultRules.
func (r *Rules) UnmarshalJSON(data []byte) error {
	type plain Rules
	if r.Trap == "" && !r.AnnihilationWin && r.Combat == nil {
		*r = DefaultRules()
	}
	return json.Unmarshal(data, (*plain)(r))
}

// Validate rejects a trap rule other than deadly or inert. A custom Combat
// rule replaces the trap rule and is always accepted.
func (r Rules) Validate() error {
	if r.Combat != nil {
		return nil
	}
	switch r.Trap {
	case TrapDeadly, TrapInert:
		return nil
	}
	return fmt.Errorf("%w: trap rule %q", ErrUnknownRule, r.Trap)
}

// Resolve runs the configured combat rule.
func (r Rules) Resolve(attacker, defender Piece) Outcome {
	if r.Combat != nil {
		return r.Combat(attacker, defender)
	}
	if r.Trap == TrapInert {
		return InertTrapCombat(attacker, defender)
	}
	return ClassicCombat(attacker, defender)
}
