package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/fileutil"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReplays() []game.Replay {
	return []game.Replay{
		{
			Round:       1,
			Variant:     game.Regular,
			Dealer:      blackjack.MustParseCards("10s 7h"),
			DealerTotal: 17,
			Players: []game.ReplayPlayer{{
				ID:          "p1",
				Name:        "AI 1",
				Type:        game.AI,
				CoinsBefore: 100,
				CoinsAfter:  105,
				Delta:       5,
				Hands:       []game.HandView{{Cards: blackjack.MustParseCards("10d 9c"), Bet: 5, Total: 19, Outcome: game.Win, Returned: 10}},
			}},
			Decisions: []game.Decision{{
				PlayerID:      "p1",
				Player:        "AI 1",
				Action:        "stand",
				Total:         19,
				Probabilities: map[blackjack.Action]int{blackjack.Stand: 80, blackjack.Hit: 10},
			}},
		},
		{Round: 2, Variant: game.Regular, DealerTotal: 20},
	}
}

func TestReplayFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replays.json")
	require.NoError(t, fileutil.WriteJSON(path, sampleReplays()))

	cmd := &ReplayCmd{File: path}
	replays, err := cmd.load(context.Background())
	require.NoError(t, err)
	require.Len(t, replays, 2)
	assert.Equal(t, game.Win, replays[0].Players[0].Hands[0].Outcome)
	assert.Equal(t, 80, replays[0].Decisions[0].Probabilities[blackjack.Stand])

	_, err = (&ReplayCmd{File: filepath.Join(t.TempDir(), "missing.json")}).load(context.Background())
	assert.Error(t, err)
}

func TestFetchReplays(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/replays" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(sampleReplays())
	}))
	defer ts.Close()

	replays, err := fetchReplays(context.Background(), ts.Client(), ts.URL+"/")
	require.NoError(t, err)
	assert.Len(t, replays, 2)

	_, err = fetchReplays(context.Background(), ts.Client(), ts.URL+"/nope")
	assert.ErrorContains(t, err, "404")
}

func TestWriteReplays(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReplays(&buf, sampleReplays(), false))
	assert.Contains(t, buf.String(), "Round 1")
	assert.Contains(t, buf.String(), "AI 1 stand on 19")
	assert.Contains(t, buf.String(), "Round 2")

	buf.Reset()
	require.NoError(t, writeReplays(&buf, sampleReplays()[:1], true))
	var decoded []game.Replay
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 17, decoded[0].DealerTotal)

	assert.Error(t, writeReplays(&buf, nil, false))
}
