package store

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/mickablondo/voting-node/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/pebbledb"
)

func newTestStore(c *qt.C) *SessionStore {
	database, err := pebbledb.New(db.Options{Path: c.TempDir()})
	c.Assert(err, qt.IsNil)
	return New(database)
}

func TestLoadWithoutSnapshot(t *testing.T) {
	c := qt.New(t)
	s := newTestStore(c)

	snapshot, err := s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(snapshot, qt.IsNil)
}

func TestSaveAndLoad(t *testing.T) {
	c := qt.New(t)
	s := newTestStore(c)

	snapshot := types.SessionSnapshot{
		Phase:           types.PhaseVotingSessionStarted,
		WinningProposal: 0,
		Voters: []types.VoterRecord{
			{
				Address: common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"),
				Participant: types.Participant{
					Registered:    true,
					HasVoted:      true,
					VotedProposal: 0,
				},
			},
		},
		Proposals: []types.Proposal{
			{Description: "X", VoteCount: 1},
			{Description: "Y", VoteCount: 0},
		},
	}
	err := s.Save(snapshot)
	c.Assert(err, qt.IsNil)

	loaded, err := s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(*loaded, qt.DeepEquals, snapshot)

	// a second Save replaces the previous snapshot
	snapshot.Phase = types.PhaseVotesTallied
	snapshot.Proposals[0].VoteCount = 2
	err = s.Save(snapshot)
	c.Assert(err, qt.IsNil)

	loaded, err = s.Load()
	c.Assert(err, qt.IsNil)
	c.Assert(loaded.Phase, qt.Equals, types.PhaseVotesTallied)
	c.Assert(loaded.Proposals[0].VoteCount, qt.Equals, uint64(2))
}
