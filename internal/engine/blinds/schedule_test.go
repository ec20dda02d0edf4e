package blinds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule() Schedule {
	return Schedule{
		Levels: []Level{
			{SmallBlind: 25, BigBlind: 50},
			{SmallBlind: 50, BigBlind: 100},
		},
		GrowthFactor: 2,
	}
}

func TestExplicitLevels(t *testing.T) {
	s := testSchedule()

	assert.Equal(t, Level{SmallBlind: 25, BigBlind: 50}, s.Level(0))
	assert.Equal(t, Level{SmallBlind: 50, BigBlind: 100}, s.Level(1))
}

func TestComputedLevelsBeyondHorizon(t *testing.T) {
	s := testSchedule()

	// Level 2 is the first computed level: 100 * 2^1.
	assert.Equal(t, int64(200), s.Level(2).BigBlind)
	assert.Equal(t, int64(100), s.Level(2).SmallBlind)

	// Level 3: 100 * 2^2.
	lvl3 := s.Level(3)
	assert.Equal(t, int64(400), lvl3.BigBlind)
	assert.Equal(t, int64(200), lvl3.SmallBlind)
}

func TestComputedLevelsAreDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		a := testSchedule().Level(3)
		b := testSchedule().Level(3)
		require.Equal(t, a, b)
	}
}

func TestNegativeIndexClampsToFirstLevel(t *testing.T) {
	s := testSchedule()
	assert.Equal(t, s.Level(0), s.Level(-1))
}

func TestAntesBeginAtConfiguredLevel(t *testing.T) {
	s := testSchedule()
	s.AnteStartLevel = 2

	assert.Zero(t, s.Level(0).Ante)
	assert.Zero(t, s.Level(1).Ante)
	assert.Equal(t, int64(20), s.Level(2).Ante) // 200 / 10
}

func TestExplicitAnteIsPreserved(t *testing.T) {
	s := Schedule{
		Levels:         []Level{{SmallBlind: 25, BigBlind: 50}, {SmallBlind: 50, BigBlind: 100, Ante: 15}},
		GrowthFactor:   2,
		AnteStartLevel: 1,
	}
	assert.Equal(t, int64(15), s.Level(1).Ante)
}

func TestCliffLevel(t *testing.T) {
	s := testSchedule()
	s.CliffLevel = 2

	assert.True(t, s.RebuyAllowed(0))
	assert.True(t, s.RebuyAllowed(1))
	assert.False(t, s.RebuyAllowed(2))

	assert.False(t, s.AddOnAllowed(1))
	assert.True(t, s.AddOnAllowed(2))
}

func TestNoCliffMeansRebuysStayOpen(t *testing.T) {
	s := testSchedule()
	assert.True(t, s.RebuyAllowed(50))
	assert.False(t, s.AddOnAllowed(50))
}
