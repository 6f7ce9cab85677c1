package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lox/blackjackstats/internal/fileutil"
	"github.com/lox/blackjackstats/internal/game"
	"github.com/lox/blackjackstats/internal/tui"
)

// ReplayCmd prints resolved rounds
type ReplayCmd struct {
	File   string `arg:"" optional:"" type:"path" help:"Replay file written by simulate --replays"`
	Server string `short:"s" default:"http://localhost:8080" help:"Server to fetch recent rounds from when no file is given"`
	Limit  int    `help:"Show at most this many of the latest rounds (0 = all)"`
	JSON   bool   `name:"json" help:"Print rounds as JSON"`
}

func (c *ReplayCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	replays, err := c.load(ctx)
	if err != nil {
		return err
	}
	if c.Limit > 0 && c.Limit < len(replays) {
		replays = replays[len(replays)-c.Limit:]
	}
	return writeReplays(os.Stdout, replays, c.JSON)
}

func (c *ReplayCmd) load(ctx context.Context) ([]game.Replay, error) {
	if c.File != "" {
		var replays []game.Replay
		ok, err := fileutil.ReadJSON(c.File, &replays)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("replay file %s does not exist", c.File)
		}
		return replays, nil
	}
	return fetchReplays(ctx, http.DefaultClient, c.Server)
}

// fetchReplays reads the recent-round history from a running server
func fetchReplays(ctx context.Context, client *http.Client, base string) ([]game.Replay, error) {
	url := strings.TrimSuffix(base, "/") + "/api/replays"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch replays: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var replays []game.Replay
	if err := json.NewDecoder(resp.Body).Decode(&replays); err != nil {
		return nil, fmt.Errorf("failed to decode replays: %w", err)
	}
	return replays, nil
}

func writeReplays(w io.Writer, replays []game.Replay, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(replays)
	}
	if len(replays) == 0 {
		return errors.New("no rounds to show")
	}
	for _, r := range replays {
		for _, line := range tui.DescribeReplay(r) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
