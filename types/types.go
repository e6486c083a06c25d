package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// Participant contains the voting state of a registered identity
type Participant struct {
	Registered bool `json:"registered"`
	HasVoted   bool `json:"hasVoted"`
	// VotedProposal is the index of the chosen proposal, meaningful only
	// when HasVoted is true
	VotedProposal uint64 `json:"votedProposal"`
}

// Proposal represents a candidate option submitted by a registered voter.
// Proposals are identified by their position in the session's append-only
// sequence, which is stable for the whole session.
type Proposal struct {
	Description string `json:"description"`
	VoteCount   uint64 `json:"voteCount"`
}

// VoterRecord pairs a voter address with its Participant state, used to
// enumerate the otherwise unordered participants mapping
type VoterRecord struct {
	Address     common.Address `json:"address"`
	Participant `json:"participant"`
}

// SessionSnapshot contains the full state of a voting session, used to
// persist and restore the live session
type SessionSnapshot struct {
	Phase           Phase         `json:"phase"`
	WinningProposal uint64        `json:"winningProposal"`
	Voters          []VoterRecord `json:"voters"`
	Proposals       []Proposal    `json:"proposals"`
}
