package blackjack

import (
	"testing"

	"github.com/lox/blackjackstats/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShoeComposition(t *testing.T) {
	t.Parallel()
	for _, decks := range []int{6, 7, 8} {
		shoe := NewShoe(randutil.New(int64(decks)), decks)
		require.Equal(t, decks*52, shoe.Size())
		assert.Equal(t, decks*52, shoe.Remaining())
		assert.Equal(t, decks*26, shoe.CutCard())

		counts := make(map[Card]int)
		for shoe.Remaining() > 0 {
			c, err := shoe.Draw()
			require.NoError(t, err)
			counts[c]++
		}
		assert.Len(t, counts, 52)
		for c, n := range counts {
			assert.Equal(t, decks, n, "card %s", c)
		}
	}
}

func TestShoeDeterministicWithSeed(t *testing.T) {
	t.Parallel()
	a := NewShoe(randutil.New(7), 6)
	b := NewShoe(randutil.New(7), 6)
	for range 50 {
		ca, _ := a.Draw()
		cb, _ := b.Draw()
		assert.Equal(t, ca, cb)
	}
}

func TestShoeExhausted(t *testing.T) {
	t.Parallel()
	shoe := NewStackedShoe(MustParseCards("As Kd")...)
	_, err := shoe.Draw()
	require.NoError(t, err)
	_, err = shoe.Draw()
	require.NoError(t, err)
	_, err = shoe.Draw()
	assert.ErrorIs(t, err, ErrShoeExhausted)
}

func TestShoeNeedsReshuffle(t *testing.T) {
	t.Parallel()
	shoe := NewShoe(randutil.New(1), 6)
	require.Equal(t, 312, shoe.Size())

	for shoe.Remaining() > shoe.CutCard()+1 {
		_, err := shoe.Draw()
		require.NoError(t, err)
	}
	assert.False(t, shoe.NeedsReshuffle())

	_, err := shoe.Draw()
	require.NoError(t, err)
	assert.True(t, shoe.NeedsReshuffle())

	shoe.Reshuffle()
	assert.Equal(t, 312, shoe.Remaining())
	assert.False(t, shoe.NeedsReshuffle())
}

func TestStackedShoeOrder(t *testing.T) {
	t.Parallel()
	cards := MustParseCards("8h 8d 6c Ks")
	shoe := NewStackedShoe(cards...)
	assert.Equal(t, 0, shoe.CutCard())
	for _, want := range cards {
		got, err := shoe.Draw()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.True(t, shoe.NeedsReshuffle())
}
