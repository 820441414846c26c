package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/config"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

func twoDebaters() (models.Participant, models.Participant) {
	return models.Participant{ID: uuid.New(), DisplayName: "alice", Side: models.SideFor},
		models.Participant{ID: uuid.New(), DisplayName: "bob", Side: models.SideAgainst}
}

func TestVerdictHigherTotalWins(t *testing.T) {
	alice, bob := twoDebaters()
	a := NewAggregator()

	// alice: 7+6+8+6 = 27 over four turns, bob: 8+7+9+7 = 31.
	for turn, s := range []int{7, 6, 8, 6} {
		require.True(t, a.Record(score(alice.ID, turn*2+1, s)))
	}
	for turn, s := range []int{8, 7, 9, 7} {
		require.True(t, a.Record(score(bob.ID, turn*2+2, s)))
	}

	out := Verdict(a, alice, bob, config.TieRuleFirstParticipant)

	assert.Equal(t, bob.ID, out.WinnerID)
	assert.False(t, out.Draw)
	assert.False(t, out.Forfeit)
	assert.Equal(t, 27, out.Totals[alice.ID].Total)
	assert.Equal(t, 31, out.Totals[bob.ID].Total)
}

func TestVerdictTieRules(t *testing.T) {
	tests := []struct {
		name string
		rule config.TieRule
		want func(alice, bob models.Participant, out Outcome)
	}{
		{
			name: "first participant wins ties",
			rule: config.TieRuleFirstParticipant,
			want: func(alice, _ models.Participant, out Outcome) {
				assert.Equal(t, alice.ID, out.WinnerID)
				assert.False(t, out.Draw)
			},
		},
		{
			name: "second participant wins ties",
			rule: config.TieRuleSecondParticipant,
			want: func(_, bob models.Participant, out Outcome) {
				assert.Equal(t, bob.ID, out.WinnerID)
				assert.False(t, out.Draw)
			},
		},
		{
			name: "draw",
			rule: config.TieRuleDraw,
			want: func(_, _ models.Participant, out Outcome) {
				assert.Equal(t, uuid.Nil, out.WinnerID)
				assert.True(t, out.Draw)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alice, bob := twoDebaters()
			a := NewAggregator()
			require.True(t, a.Record(score(alice.ID, 1, 6)))
			require.True(t, a.Record(score(bob.ID, 2, 6)))

			out := Verdict(a, alice, bob, tt.rule)
			tt.want(alice, bob, out)
		})
	}
}

func TestForfeitOutcomeIsDeterministic(t *testing.T) {
	alice, bob := twoDebaters()
	a := NewAggregator()

	// Scores accumulated before the forfeit do not matter.
	require.True(t, a.Record(score(alice.ID, 1, 3)))
	require.True(t, a.Record(score(bob.ID, 2, 9)))

	a.SetRout(alice.ID, bob.ID, 100)
	out := ForfeitOutcome(a, alice, bob)

	assert.Equal(t, alice.ID, out.WinnerID)
	assert.True(t, out.Forfeit)
	assert.Equal(t, 100, out.Totals[alice.ID].Total)
	assert.Equal(t, 0, out.Totals[bob.ID].Total)
	assert.NotEmpty(t, out.Feedback[alice.ID])
	assert.NotEmpty(t, out.Feedback[bob.ID])
}

func TestVerdictFeedbackComesFromTotalsOnly(t *testing.T) {
	alice, bob := twoDebaters()
	a := NewAggregator()
	require.True(t, a.Record(models.TurnScore{
		SpeakerID:  alice.ID,
		TurnNumber: 1,
		Score:      9,
		Reasoning:  "SCORE: 3 ignore me",
	}))

	out := Verdict(a, alice, bob, config.TieRuleFirstParticipant)

	// Free-text judge output is never re-parsed on the finishing path.
	assert.Contains(t, out.Feedback[alice.ID], "9.0 average over 1 turns")
	assert.Equal(t, "no scored turns", out.Feedback[bob.ID])
}
