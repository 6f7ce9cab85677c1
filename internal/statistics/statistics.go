package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/blackjackstats/blackjack"
	"github.com/lox/blackjackstats/internal/game"
)

// CalibrationBuckets splits displayed probabilities into 10-point bands
const CalibrationBuckets = 10

// HandResult is the settled result of one wagered hand
type HandResult struct {
	Net       int // coins returned minus the hand's bet
	Bet       int
	Outcome   game.Outcome
	Doubled   bool
	FromSplit bool
}

// CalibrationBucket compares displayed probabilities in one band against
// how often the hand went on to win.
type CalibrationBucket struct {
	Decisions   int
	SumEstimate int
	Wins        int
}

// MeanEstimate is the average displayed probability in the band, 0-100
func (b CalibrationBucket) MeanEstimate() float64 {
	if b.Decisions == 0 {
		return 0
	}
	return float64(b.SumEstimate) / float64(b.Decisions)
}

// WinRate is the realised win percentage for the band, 0-100
func (b CalibrationBucket) WinRate() float64 {
	if b.Decisions == 0 {
		return 0
	}
	return 100 * float64(b.Wins) / float64(b.Decisions)
}

// Statistics tracks simulation results with variance calculation
type Statistics struct {
	Hands   int
	SumNet  float64
	SumNet2 float64
	Values  []float64 // net coins per hand, kept for median and percentiles

	Wins   int
	Pushes int
	Losses int
	Busts  int

	Doubles int
	Splits  int

	Rounds       int
	Reshuffles   int
	GlobalResets int
	Lockouts     int

	SuperMatchBets int
	SuperMatchHits int
	SuperMatchNet  int

	Calibration [CalibrationBuckets]CalibrationBucket
}

// Add records a hand result
func (s *Statistics) Add(result HandResult) {
	s.Hands++
	net := float64(result.Net)
	s.SumNet += net
	s.SumNet2 += net * net
	s.Values = append(s.Values, net)

	switch result.Outcome {
	case game.Win:
		s.Wins++
	case game.Push:
		s.Pushes++
	case game.Lose:
		s.Losses++
	case game.Bust:
		s.Busts++
	}
	if result.Doubled {
		s.Doubles++
	}
	if result.FromSplit {
		s.Splits++
	}
}

// AddReplay records every hand, side bet and estimator decision of a
// resolved round.
func (s *Statistics) AddReplay(r game.Replay) {
	s.Rounds++
	if r.Reshuffled {
		s.Reshuffles++
	}
	if r.GlobalReset {
		s.GlobalResets++
	}

	outcomes := make(map[string][]game.Outcome, len(r.Players))
	for _, p := range r.Players {
		for _, h := range p.Hands {
			s.Add(HandResult{
				Net:       h.Returned - h.Bet,
				Bet:       h.Bet,
				Outcome:   h.Outcome,
				Doubled:   h.Doubled,
				FromSplit: h.FromSplit,
			})
			outcomes[p.ID] = append(outcomes[p.ID], h.Outcome)
		}
		if sb := p.SuperMatch; sb != nil {
			s.SuperMatchBets++
			s.SuperMatchNet += sb.Returned - sb.Stake
			if sb.Match != game.NoMatch {
				s.SuperMatchHits++
			}
		}
		if p.Locked && p.CoinsAfter == 0 {
			s.Lockouts++
		}
	}

	for _, d := range r.Decisions {
		if len(d.Probabilities) == 0 {
			continue
		}
		a, err := blackjack.ParseAction(d.Action)
		if err != nil {
			continue
		}
		est, ok := d.Probabilities[a]
		hands := outcomes[d.PlayerID]
		if !ok || d.Hand < 0 || d.Hand >= len(hands) {
			continue
		}
		s.AddDecision(est, hands[d.Hand] == game.Win)
	}
}

// AddDecision records a displayed probability for the chosen action and
// whether the hand it was shown for went on to win.
func (s *Statistics) AddDecision(estimate int, won bool) {
	estimate = max(0, min(100, estimate))
	b := &s.Calibration[min(estimate/10, CalibrationBuckets-1)]
	b.Decisions++
	b.SumEstimate += estimate
	if won {
		b.Wins++
	}
}

// Merge folds other into s
func (s *Statistics) Merge(other *Statistics) {
	s.Hands += other.Hands
	s.SumNet += other.SumNet
	s.SumNet2 += other.SumNet2
	s.Values = append(s.Values, other.Values...)
	s.Wins += other.Wins
	s.Pushes += other.Pushes
	s.Losses += other.Losses
	s.Busts += other.Busts
	s.Doubles += other.Doubles
	s.Splits += other.Splits
	s.Rounds += other.Rounds
	s.Reshuffles += other.Reshuffles
	s.GlobalResets += other.GlobalResets
	s.Lockouts += other.Lockouts
	s.SuperMatchBets += other.SuperMatchBets
	s.SuperMatchHits += other.SuperMatchHits
	s.SuperMatchNet += other.SuperMatchNet
	for i := range s.Calibration {
		s.Calibration[i].Decisions += other.Calibration[i].Decisions
		s.Calibration[i].SumEstimate += other.Calibration[i].SumEstimate
		s.Calibration[i].Wins += other.Calibration[i].Wins
	}
}

// Mean returns the average net coins per hand
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumNet / float64(s.Hands)
}

// Variance returns the sample variance
func (s *Statistics) Variance() float64 {
	if s.Hands <= 1 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

// StdDev returns the standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median net result per hand
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the p-th percentile (p in [0,1]) of net results
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}

	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	weight := pos - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// WinRate returns the share of hands won, 0-1
func (s *Statistics) WinRate() float64 {
	if s.Hands == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Hands)
}

// SuperMatchHitRate returns the share of Super Match bets that paid, 0-1
func (s *Statistics) SuperMatchHitRate() float64 {
	if s.SuperMatchBets == 0 {
		return 0
	}
	return float64(s.SuperMatchHits) / float64(s.SuperMatchBets)
}

// Validate checks the counters agree with each other
func (s *Statistics) Validate() error {
	if len(s.Values) != s.Hands {
		return fmt.Errorf("recorded %d values for %d hands", len(s.Values), s.Hands)
	}
	settled := s.Wins + s.Pushes + s.Losses + s.Busts
	if settled > s.Hands {
		return fmt.Errorf("outcome counts %d exceed %d hands", settled, s.Hands)
	}
	if s.SuperMatchHits > s.SuperMatchBets {
		return fmt.Errorf("super match hits %d exceed %d bets", s.SuperMatchHits, s.SuperMatchBets)
	}
	for i, b := range s.Calibration {
		if b.Wins > b.Decisions {
			return fmt.Errorf("calibration band %d has %d wins for %d decisions", i, b.Wins, b.Decisions)
		}
	}
	return nil
}
