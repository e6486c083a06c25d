package types

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Signal names used to route signal payloads to their observers
const (
	SignalVoterRegistered    = "voter-registered"
	SignalPhaseChanged       = "phase-changed"
	SignalProposalRegistered = "proposal-registered"
	SignalVoteCast           = "vote-cast"
)

// Signal is implemented by the payloads emitted by the voting session
type Signal interface {
	// SignalName returns the name under which the payload is emitted
	SignalName() string
}

// SignalRecord is a journaled signal as stored in the database
type SignalRecord struct {
	ID               uint64          `json:"id"`
	Name             string          `json:"name"`
	Payload          json.RawMessage `json:"payload"`
	InsertedDatetime time.Time       `json:"insertedDatetime"`
}

// VoterRegistered is emitted when the administrator registers a new voter
type VoterRegistered struct {
	Voter common.Address `json:"voter"`
}

// SignalName returns the signal name of VoterRegistered
func (s VoterRegistered) SignalName() string { return SignalVoterRegistered }

// PhaseChanged is emitted on every phase transition, including the jump back
// to RegisteringVoters on session reset
type PhaseChanged struct {
	Previous Phase `json:"previous"`
	New      Phase `json:"new"`
}

// SignalName returns the signal name of PhaseChanged
func (s PhaseChanged) SignalName() string { return SignalPhaseChanged }

// ProposalRegistered is emitted when a voter submits a new proposal
type ProposalRegistered struct {
	ProposalID uint64 `json:"proposalId"`
}

// SignalName returns the signal name of ProposalRegistered
func (s ProposalRegistered) SignalName() string { return SignalProposalRegistered }

// VoteCast is emitted when a voter casts its vote
type VoteCast struct {
	Voter      common.Address `json:"voter"`
	ProposalID uint64         `json:"proposalId"`
}

// SignalName returns the signal name of VoteCast
func (s VoteCast) SignalName() string { return SignalVoteCast }
