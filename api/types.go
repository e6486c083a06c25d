package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/mickablondo/voting-node/types"
)

type registerVoterReq struct {
	// common.Address Unmarshaler takes care of parsing the hex
	// representation of the address
	Voter common.Address `json:"voter"`
}

type addProposalReq struct {
	Description string `json:"description"`
}

type addVoteReq struct {
	ProposalID uint64 `json:"proposalId"`
}

type sessionResp struct {
	Phase      types.Phase `json:"phase"`
	NVoters    int         `json:"nVoters"`
	NProposals int         `json:"nProposals"`
}

type phaseResp struct {
	Phase types.Phase `json:"phase"`
}

type proposalResp struct {
	ProposalID  uint64 `json:"proposalId"`
	Description string `json:"description"`
}

type voteResp struct {
	Voter      common.Address `json:"voter"`
	ProposalID uint64         `json:"proposalId"`
}

type winnerResp struct {
	ProposalID  uint64 `json:"proposalId"`
	Description string `json:"description"`
}
