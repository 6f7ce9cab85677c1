package blackjack

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardValues(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 11, NewCard(Ace, Spades).Value())
	assert.Equal(t, 2, NewCard(Two, Hearts).Value())
	assert.Equal(t, 10, NewCard(Ten, Hearts).Value())
	assert.Equal(t, 10, NewCard(Jack, Hearts).Value())
	assert.Equal(t, 10, NewCard(King, Clubs).Value())
	assert.Equal(t, "10♥", NewCard(Ten, Hearts).String())
	assert.Equal(t, "A♠", NewCard(Ace, Spades).String())
}

func TestParseCard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    Card
		wantErr bool
	}{
		{input: "As", want: NewCard(Ace, Spades)},
		{input: "10h", want: NewCard(Ten, Hearts)},
		{input: "Td", want: NewCard(Ten, Diamonds)},
		{input: "kc", want: NewCard(King, Clubs)},
		{input: "Q♣", want: NewCard(Queen, Clubs)},
		{input: "7♥", want: NewCard(Seven, Hearts)},
		{input: "Xs", wantErr: true},
		{input: "Ax", wantErr: true},
		{input: "A", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCard(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCards(t *testing.T) {
	t.Parallel()
	cards, err := ParseCards("As, 10h Kd")
	require.NoError(t, err)
	assert.Equal(t, []Card{NewCard(Ace, Spades), NewCard(Ten, Hearts), NewCard(King, Diamonds)}, cards)

	_, err = ParseCards("As Zz")
	assert.Error(t, err)
}

func TestCardJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(NewCard(Queen, Diamonds))
	require.NoError(t, err)
	assert.JSONEq(t, `{"suit":"♦","rank":"Q","value":10}`, string(data))

	var c Card
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, NewCard(Queen, Diamonds), c)
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	for _, a := range Actions {
		parsed, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
	_, err := ParseAction("surrender")
	assert.Error(t, err)
}
