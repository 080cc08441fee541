package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rpsPieces = []Piece{PieceRock, PiecePaper, PieceScissors}

func TestBeatsIsCyclic(t *testing.T) {
	assert.True(t, Beats(PieceRock, PieceScissors))
	assert.True(t, Beats(PieceScissors, PiecePaper))
	assert.True(t, Beats(PiecePaper, PieceRock))

	for _, a := range rpsPieces {
		assert.False(t, Beats(a, a))
		for _, d := range rpsPieces {
			if a != d {
				assert.NotEqual(t, Beats(a, d), Beats(d, a), "%s/%s", a, d)
			}
		}
	}
}

func TestClassicCombatIsDeterministic(t *testing.T) {
	for _, a := range rpsPieces {
		for _, d := range rpsPieces {
			first := ClassicCombat(a, d)
			for i := 0; i < 10; i++ {
				require.Equal(t, first, ClassicCombat(a, d))
			}
			switch {
			case a == d:
				assert.Equal(t, OutcomeTie, first)
			case Beats(a, d):
				assert.Equal(t, OutcomeAttackerWins, first)
			default:
				assert.Equal(t, OutcomeDefenderWins, first)
			}
		}
	}
}

func TestSpecialPieces(t *testing.T) {
	cases := []struct {
		name     string
		rule     CombatRule
		attacker Piece
		defender Piece
		want     Outcome
	}{
		{name: "deadly trap", rule: ClassicCombat, attacker: PieceRock, defender: PieceTrap, want: OutcomeDefenderWins},
		{name: "flag attacks", rule: ClassicCombat, attacker: PieceFlag, defender: PieceScissors, want: OutcomeDefenderWins},
		{name: "flag into trap", rule: ClassicCombat, attacker: PieceFlag, defender: PieceTrap, want: OutcomeDefenderWins},
		{name: "rps beats flag", rule: ClassicCombat, attacker: PiecePaper, defender: PieceFlag, want: OutcomeAttackerWins},
		{name: "inert trap", rule: InertTrapCombat, attacker: PieceScissors, defender: PieceTrap, want: OutcomeAttackerWins},
		{name: "inert trap still stops a flag", rule: InertTrapCombat, attacker: PieceFlag, defender: PieceTrap, want: OutcomeDefenderWins},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.rule(tc.attacker, tc.defender))
		})
	}
}

func TestDecideChoicesSymmetry(t *testing.T) {
	choices := []Choice{ChoiceRock, ChoicePaper, ChoiceScissors}
	for _, a := range choices {
		for _, b := range choices {
			ab, ba := DecideChoices(a, b), DecideChoices(b, a)
			if a == b {
				assert.Equal(t, OutcomeTie, ab)
				assert.Equal(t, OutcomeTie, ba)
				continue
			}
			assert.NotEqual(t, OutcomeTie, ab)
			assert.Equal(t, -ab, ba, "%s vs %s", a, b)
		}
	}
}

func TestRulesResolve(t *testing.T) {
	assert.Equal(t, OutcomeDefenderWins, DefaultRules().Resolve(PieceRock, PieceTrap))
	assert.Equal(t, OutcomeAttackerWins, Rules{Trap: TrapInert}.Resolve(PieceRock, PieceTrap))

	custom := Rules{Combat: func(Piece, Piece) Outcome { return OutcomeTie }}
	assert.Equal(t, OutcomeTie, custom.Resolve(PieceRock, PieceScissors))

	rule, err := ParseTrapRule("INERT")
	require.NoError(t, err)
	assert.Equal(t, TrapInert, rule)
	_, err = ParseTrapRule("sticky")
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestRulesJSONKeepsMissingFields(t *testing.T) {
	var fresh Rules
	require.NoError(t, json.Unmarshal([]byte(`{"trap":"inert"}`), &fresh))
	assert.Equal(t, Rules{AnnihilationWin: true, Trap: TrapInert}, fresh)

	server := Rules{AnnihilationWin: false, Trap: TrapDeadly}
	require.NoError(t, json.Unmarshal([]byte(`{"trap":"INERT"}`), &server))
	assert.Equal(t, Rules{AnnihilationWin: false, Trap: TrapInert}, server)

	var partial Rules
	require.NoError(t, json.Unmarshal([]byte(`{"annihilation_win":false}`), &partial))
	assert.Equal(t, Rules{AnnihilationWin: false, Trap: TrapDeadly}, partial)

	var bogus Rules
	err := json.Unmarshal([]byte(`{"trap":"bogus"}`), &bogus)
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
	assert.NoError(t, Rules{Trap: TrapInert}.Validate())
	assert.NoError(t, Rules{Combat: ClassicCombat}.Validate())
	assert.ErrorIs(t, Rules{}.Validate(), ErrUnknownRule)
	assert.ErrorIs(t, Rules{Trap: "bogus"}.Validate(), ErrUnknownRule)
	assert.Equal(t, KindStructural, KindOf(Rules{Trap: "bogus"}.Validate()))
}
