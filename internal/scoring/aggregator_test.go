package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

func score(speaker uuid.UUID, turn, n int) models.TurnScore {
	return models.TurnScore{SpeakerID: speaker, TurnNumber: turn, Score: n}
}

func TestAggregatorAccumulatesPerSpeaker(t *testing.T) {
	a := NewAggregator()
	alice := uuid.New()
	bob := uuid.New()

	require.True(t, a.Record(score(alice, 1, 7)))
	require.True(t, a.Record(score(bob, 2, 4)))
	require.True(t, a.Record(score(alice, 3, 6)))

	assert.Equal(t, Totals{Total: 13, Count: 2}, a.Totals(alice))
	assert.Equal(t, Totals{Total: 4, Count: 1}, a.Totals(bob))
}

func TestAggregatorDropsDuplicateTurns(t *testing.T) {
	a := NewAggregator()
	alice := uuid.New()

	require.True(t, a.Record(score(alice, 1, 7)))
	// Re-polled message judged again on another path; same (speaker, turn).
	assert.False(t, a.Record(score(alice, 1, 9)))

	assert.Equal(t, Totals{Total: 7, Count: 1}, a.Totals(alice))
}

func TestAggregatorFrozenDropsLateResults(t *testing.T) {
	a := NewAggregator()
	alice := uuid.New()

	require.True(t, a.Record(score(alice, 1, 7)))
	a.Freeze()

	assert.False(t, a.Record(score(alice, 2, 9)))
	assert.Equal(t, Totals{Total: 7, Count: 1}, a.Totals(alice))
	assert.True(t, a.Frozen())
}

func TestAggregatorSetRoutOverwritesTotals(t *testing.T) {
	a := NewAggregator()
	alice := uuid.New()
	bob := uuid.New()

	require.True(t, a.Record(score(alice, 1, 3)))
	require.True(t, a.Record(score(bob, 2, 8)))

	a.SetRout(alice, bob, 100)

	assert.Equal(t, Totals{Total: 100, Count: 1}, a.Totals(alice))
	assert.Equal(t, Totals{Total: 0, Count: 0}, a.Totals(bob))
	assert.True(t, a.Frozen())
}

func TestTotalsAverage(t *testing.T) {
	assert.Equal(t, 0.0, Totals{}.Average())
	assert.InDelta(t, 6.75, Totals{Total: 27, Count: 4}.Average(), 0.001)
}
