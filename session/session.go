// Package session implements the voting workflow state machine: the phase
// transitions, the voter and proposal registries, the vote casting and the
// tally. Exactly one session is live at a time; resetting logically starts a
// new session while keeping the administrator authority.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mickablondo/voting-node/events"
	"github.com/mickablondo/voting-node/types"
	"go.vocdoni.io/dvote/log"
)

var (
	// ErrUnauthorized is returned when the caller of an admin operation
	// is not the administrator
	ErrUnauthorized = errors.New("caller is not the administrator")
	// ErrNotAVoter is returned when an address is not a registered voter
	ErrNotAVoter = errors.New("not a registered voter")
	// ErrInvalidPhaseTransition is returned when an operation is called
	// while the session is not in the phase that the operation requires
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	// ErrAlreadyRegistered is returned when registering a voter twice
	ErrAlreadyRegistered = errors.New("voter already registered")
	// ErrEmptyProposal is returned when submitting a proposal with an
	// empty description
	ErrEmptyProposal = errors.New("proposal description is empty")
	// ErrDuplicateProposal is returned when submitting a description that
	// already exists in the current session
	ErrDuplicateProposal = errors.New("proposal already submitted")
	// ErrNoProposals is returned when an operation needs at least one
	// proposal and none has been submitted
	ErrNoProposals = errors.New("no proposals submitted")
	// ErrProposalNotFound is returned when a proposal index is out of
	// bounds
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrVotingClosed is returned when casting a vote outside the
	// VotingSessionStarted phase
	ErrVotingClosed = errors.New("voting session is not open")
	// ErrAlreadyVoted is returned when a voter tries to vote twice
	ErrAlreadyVoted = errors.New("voter has already voted")
	// ErrHasNotVoted is returned when looking up the vote of a voter that
	// has not voted yet
	ErrHasNotVoted = errors.New("voter has not voted yet")
	// ErrTallyNotDone is returned when asking for the winner before the
	// votes have been tallied
	ErrTallyNotDone = errors.New("votes have not been tallied yet")
	// ErrSessionNotResettable is returned when resetting the session from
	// a phase/state combination that does not allow it
	ErrSessionNotResettable = errors.New("session can not be reset")
)

// AdminAuthority is the external authority consulted as a capability check
// before any admin operation
type AdminAuthority interface {
	IsAdmin(addr common.Address) bool
}

// Persister stores the session snapshot after every successful mutation, so
// a restarted node can resume the workflow where it stopped
type Persister interface {
	Save(snapshot types.SessionSnapshot) error
}

// Options is used to pass the collaborators of a new Session
type Options struct {
	// Authority authenticates the administrator. Mandatory.
	Authority AdminAuthority
	// Events receives the emitted signals. Optional.
	Events *events.Manager
	// Persister stores the session snapshots. Optional.
	Persister Persister
}

// Session is the voting workflow state machine. All operations are
// serialized: a mutating call either fully applies its effects or fails
// before mutating anything observable.
type Session struct {
	mu        sync.Mutex
	authority AdminAuthority
	events    *events.Manager
	persister Persister

	phase           types.Phase
	winningProposal uint64
	participants    map[common.Address]*types.Participant
	// voters keeps the registration order of the participants, needed to
	// enumerate and clear the mapping on reset
	voters    []common.Address
	proposals []types.Proposal
}

// New returns a new Session in the RegisteringVoters phase
func New(opts Options) (*Session, error) {
	if opts.Authority == nil {
		return nil, fmt.Errorf("can not create the session without an" +
			" administrator authority")
	}
	return &Session{
		authority:    opts.Authority,
		events:       opts.Events,
		persister:    opts.Persister,
		phase:        types.PhaseRegisteringVoters,
		participants: make(map[common.Address]*types.Participant),
	}, nil
}

// Restore loads the given snapshot as the live session state
func (s *Session) Restore(snapshot types.SessionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = snapshot.Phase
	s.winningProposal = snapshot.WinningProposal
	s.participants = make(map[common.Address]*types.Participant)
	s.voters = nil
	for _, v := range snapshot.Voters {
		participant := v.Participant
		s.participants[v.Address] = &participant
		s.voters = append(s.voters, v.Address)
	}
	s.proposals = append([]types.Proposal(nil), snapshot.Proposals...)
}

// Snapshot returns a copy of the full session state
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() types.SessionSnapshot {
	snapshot := types.SessionSnapshot{
		Phase:           s.phase,
		WinningProposal: s.winningProposal,
		Proposals:       append([]types.Proposal(nil), s.proposals...),
	}
	for _, addr := range s.voters {
		snapshot.Voters = append(snapshot.Voters, types.VoterRecord{
			Address:     addr,
			Participant: *s.participants[addr],
		})
	}
	return snapshot
}

// emit must be called with the session lock held, after all the mutations of
// the operation have been applied
func (s *Session) emit(signal types.Signal) {
	if s.events != nil {
		s.events.Emit(signal)
	}
}

// persist must be called with the session lock held. A snapshot write
// failure does not fail the operation: the in-memory session stays
// authoritative.
func (s *Session) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(s.snapshot()); err != nil {
		log.Warnw("can not persist the session snapshot", "err", err)
	}
}

func errWrongPhase(required types.Phase) error {
	return fmt.Errorf("%w: the session must be in the %s phase",
		ErrInvalidPhaseTransition, required)
}

// Phase returns the current workflow phase. Readable by anyone.
func (s *Session) Phase() types.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// WinningProposal returns the winning proposal index. Readable by anyone,
// meaningful only once the phase is VotesTallied.
func (s *Session) WinningProposal() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winningProposal
}

// NVoters returns the number of registered voters
func (s *Session) NVoters() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voters)
}

// NProposals returns the number of submitted proposals
func (s *Session) NProposals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.proposals)
}

// RegisterVoter registers the given voter. Admin-only, RegisteringVoters
// phase only.
func (s *Session) RegisterVoter(caller, voter common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authority.IsAdmin(caller) {
		return ErrUnauthorized
	}
	if s.phase != types.PhaseRegisteringVoters {
		return errWrongPhase(types.PhaseRegisteringVoters)
	}
	if p, ok := s.participants[voter]; ok && p.Registered {
		return ErrAlreadyRegistered
	}

	s.participants[voter] = &types.Participant{Registered: true}
	s.voters = append(s.voters, voter)
	s.emit(types.VoterRegistered{Voter: voter})
	s.persist()
	return nil
}

// advance moves the session from the exact predecessor phase to the next
// one. Admin-only.
func (s *Session) advance(caller common.Address, from, to types.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authority.IsAdmin(caller) {
		return ErrUnauthorized
	}
	if s.phase != from {
		return errWrongPhase(from)
	}

	s.phase = to
	s.emit(types.PhaseChanged{Previous: from, New: to})
	s.persist()
	return nil
}

// StartProposalsRegistration advances the session from RegisteringVoters to
// ProposalsRegistrationStarted
func (s *Session) StartProposalsRegistration(caller common.Address) error {
	return s.advance(caller, types.PhaseRegisteringVoters,
		types.PhaseProposalsRegistrationStarted)
}

// StopProposalsRegistration advances the session from
// ProposalsRegistrationStarted to ProposalsRegistrationEnded
func (s *Session) StopProposalsRegistration(caller common.Address) error {
	return s.advance(caller, types.PhaseProposalsRegistrationStarted,
		types.PhaseProposalsRegistrationEnded)
}

// StartVotingSession advances the session from ProposalsRegistrationEnded to
// VotingSessionStarted
func (s *Session) StartVotingSession(caller common.Address) error {
	return s.advance(caller, types.PhaseProposalsRegistrationEnded,
		types.PhaseVotingSessionStarted)
}

// StopVotingSession advances the session from VotingSessionStarted to
// VotingSessionEnded
func (s *Session) StopVotingSession(caller common.Address) error {
	return s.advance(caller, types.PhaseVotingSessionStarted,
		types.PhaseVotingSessionEnded)
}

// AddProposal appends a new proposal with the given description. Registered
// voters only, ProposalsRegistrationStarted phase only. Returns the index of
// the new proposal.
func (s *Session) AddProposal(caller common.Address, description string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.participants[caller]; !ok || !p.Registered {
		return 0, ErrNotAVoter
	}
	if s.phase != types.PhaseProposalsRegistrationStarted {
		return 0, errWrongPhase(types.PhaseProposalsRegistrationStarted)
	}
	if len(description) == 0 {
		return 0, ErrEmptyProposal
	}
	for i := range s.proposals {
		if s.proposals[i].Description == description {
			return 0, ErrDuplicateProposal
		}
	}

	s.proposals = append(s.proposals, types.Proposal{Description: description})
	proposalID := uint64(len(s.proposals) - 1)
	s.emit(types.ProposalRegistered{ProposalID: proposalID})
	s.persist()
	return proposalID, nil
}

// AddVote casts the caller's vote for the given proposal. Registered voters
// only, VotingSessionStarted phase only, once per voter per session.
func (s *Session) AddVote(caller common.Address, proposalID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[caller]
	if !ok || !participant.Registered {
		return ErrNotAVoter
	}
	if len(s.proposals) == 0 {
		return ErrNoProposals
	}
	if proposalID >= uint64(len(s.proposals)) {
		return ErrProposalNotFound
	}
	if s.phase != types.PhaseVotingSessionStarted {
		return ErrVotingClosed
	}
	if participant.HasVoted {
		return ErrAlreadyVoted
	}

	s.proposals[proposalID].VoteCount++
	participant.HasVoted = true
	participant.VotedProposal = proposalID
	s.emit(types.VoteCast{Voter: caller, ProposalID: proposalID})
	s.persist()
	return nil
}

// Vote returns the proposal index chosen by the given voter. Restricted to
// registered voters: any voter can audit any other's choice once voting has
// started.
func (s *Session) Vote(caller, voter common.Address) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.participants[caller]; !ok || !p.Registered {
		return 0, ErrNotAVoter
	}
	target, ok := s.participants[voter]
	if !ok || !target.Registered {
		return 0, ErrNotAVoter
	}
	if s.phase < types.PhaseVotingSessionStarted {
		return 0, fmt.Errorf("%w: the voting session has not started yet",
			ErrInvalidPhaseTransition)
	}
	if !target.HasVoted {
		return 0, ErrHasNotVoted
	}
	return target.VotedProposal, nil
}

// TallyVotes computes the winning proposal and advances the session to
// VotesTallied. Admin-only, VotingSessionEnded phase only. A single linear
// scan with a strict comparison, so the first proposal among ties wins.
func (s *Session) TallyVotes(caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authority.IsAdmin(caller) {
		return ErrUnauthorized
	}
	if len(s.proposals) == 0 {
		return ErrNoProposals
	}
	if s.phase != types.PhaseVotingSessionEnded {
		return errWrongPhase(types.PhaseVotingSessionEnded)
	}

	var winner uint64
	for i := range s.proposals {
		if s.proposals[i].VoteCount > s.proposals[winner].VoteCount {
			winner = uint64(i)
		}
	}
	s.winningProposal = winner
	s.phase = types.PhaseVotesTallied
	s.emit(types.PhaseChanged{
		Previous: types.PhaseVotingSessionEnded,
		New:      types.PhaseVotesTallied,
	})
	s.persist()
	return nil
}

// ResetSession clears the registries and returns the session to the
// RegisteringVoters phase. Admin-only. Allowed from VotesTallied, or from
// any phase past ProposalsRegistrationEnded when no proposal was ever
// submitted (a session without proposals can never be tallied).
func (s *Session) ResetSession(caller common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.authority.IsAdmin(caller) {
		return ErrUnauthorized
	}
	resettable := s.phase == types.PhaseVotesTallied ||
		(s.phase >= types.PhaseProposalsRegistrationEnded && len(s.proposals) == 0)
	if !resettable {
		return ErrSessionNotResettable
	}

	previous := s.phase
	s.phase = types.PhaseRegisteringVoters
	s.winningProposal = 0
	s.proposals = nil
	for _, addr := range s.voters {
		delete(s.participants, addr)
	}
	s.voters = nil
	s.emit(types.PhaseChanged{
		Previous: previous,
		New:      types.PhaseRegisteringVoters,
	})
	s.persist()
	return nil
}

// Proposal returns the description of the proposal at the given index.
// Restricted to registered voters.
func (s *Session) Proposal(caller common.Address, proposalID uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.participants[caller]; !ok || !p.Registered {
		return "", ErrNotAVoter
	}
	if len(s.proposals) == 0 {
		return "", ErrNoProposals
	}
	if proposalID >= uint64(len(s.proposals)) {
		return "", ErrProposalNotFound
	}
	return s.proposals[proposalID].Description, nil
}

// WinnerProposal returns the description of the winning proposal. Readable
// by anyone once the votes have been tallied.
func (s *Session) WinnerProposal() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.proposals) == 0 {
		return "", ErrNoProposals
	}
	if s.phase != types.PhaseVotesTallied {
		return "", ErrTallyNotDone
	}
	return s.proposals[s.winningProposal].Description, nil
}
