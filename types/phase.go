package types

import (
	"encoding/json"
	"fmt"
)

// Phase identifies one of the six ordered workflow phases of a voting
// session. Phases advance one step at a time through the admin transition
// operations, and jump back to PhaseRegisteringVoters only through a session
// reset.
type Phase uint8

const (
	// PhaseRegisteringVoters is the initial phase, where the
	// administrator registers the voters
	PhaseRegisteringVoters Phase = iota
	// PhaseProposalsRegistrationStarted is the phase where registered
	// voters submit their proposals
	PhaseProposalsRegistrationStarted
	// PhaseProposalsRegistrationEnded is the phase between proposal
	// submission and the voting session
	PhaseProposalsRegistrationEnded
	// PhaseVotingSessionStarted is the phase where registered voters cast
	// their votes
	PhaseVotingSessionStarted
	// PhaseVotingSessionEnded is the phase between vote casting and the
	// tally
	PhaseVotingSessionEnded
	// PhaseVotesTallied is the terminal phase of a session, reached once
	// the winner has been computed
	PhaseVotesTallied
)

var phaseNames = [...]string{
	"RegisteringVoters",
	"ProposalsRegistrationStarted",
	"ProposalsRegistrationEnded",
	"VotingSessionStarted",
	"VotingSessionEnded",
	"VotesTallied",
}

func (p Phase) String() string {
	if int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
	return phaseNames[p]
}

// MarshalJSON encodes the Phase by its name
func (p Phase) MarshalJSON() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("unknown phase %d", uint8(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a Phase from its name
func (p *Phase) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for i, name := range phaseNames {
		if name == s {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", s)
}
