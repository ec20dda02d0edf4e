package cards

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeckHolds52UniqueCards(t *testing.T) {
	d := NewDeck()
	require.Equal(t, 52, d.Remaining())

	drawn, err := d.Draw(52)
	require.NoError(t, err)

	seen := make(map[Card]bool, 52)
	for _, c := range drawn {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
	assert.Len(t, seen, 52)
}

func TestDrawPastEndFails(t *testing.T) {
	d := NewDeck()
	_, err := d.Draw(50)
	require.NoError(t, err)

	_, err = d.Draw(3)
	assert.ErrorIs(t, err, ErrDeckExhausted)
	assert.Equal(t, 2, d.Remaining())
}

func TestSeededDeckIsReproducible(t *testing.T) {
	a := NewDeckWithRand(rand.New(rand.NewSource(42)))
	b := NewDeckWithRand(rand.New(rand.NewSource(42)))

	drawnA, err := a.Draw(52)
	require.NoError(t, err)
	drawnB, err := b.Draw(52)
	require.NoError(t, err)
	assert.Equal(t, drawnA, drawnB)
}

func TestExcludingDealtCards(t *testing.T) {
	dealt := []Card{
		{Suit: "♠", Rank: "A"},
		{Suit: "♥", Rank: "K"},
		{Suit: "♦", Rank: "7"},
	}
	d := NewDeckExcluding(dealt)
	require.Equal(t, 49, d.Remaining())

	drawn, err := d.Draw(49)
	require.NoError(t, err)
	for _, c := range drawn {
		for _, excluded := range dealt {
			assert.NotEqual(t, excluded, c)
		}
	}
}
