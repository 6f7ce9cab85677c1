package game

import "fmt"

// Phase is a state of the round machine
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseBetting
	PhaseSuperMatch
	PhaseDealing
	PhaseSwitch
	PhasePlaying
	PhaseDealer
	PhaseResult
)

var phaseNames = [...]string{"setup", "betting", "superMatch", "dealing", "switch", "playing", "dealer", "result"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// inRound reports whether stakes are on the table and unresolved
func (p Phase) inRound() bool {
	return p > PhaseBetting && p < PhaseResult
}
