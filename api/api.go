// Package api exposes the voting session operations over HTTP. The caller
// identity is taken from the X-Caller header; the session itself decides
// whether that identity may perform the requested operation.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/mickablondo/voting-node/db"
	"github.com/mickablondo/voting-node/session"
	"github.com/mickablondo/voting-node/types"
	"go.vocdoni.io/dvote/log"
)

// CallerHeader is the HTTP header carrying the hex address of the caller
const CallerHeader = "X-Caller"

// API allows external requests to the Node
type API struct {
	r       *gin.Engine
	s       *session.Session
	journal *db.SQLite
}

// New returns a new API with the endpoints, without starting to listen. The
// journal is optional; when nil the /signals endpoint is not registered.
func New(s *session.Session, journal *db.SQLite) (*API, error) {
	if s == nil {
		return nil, fmt.Errorf("can not create the API without a session")
	}

	a := API{s: s, journal: journal}

	r := gin.Default()

	r.GET("/session", a.getSession)
	r.GET("/session/phase", a.getPhase)
	r.POST("/session/proposals/start", a.transition(s.StartProposalsRegistration))
	r.POST("/session/proposals/end", a.transition(s.StopProposalsRegistration))
	r.POST("/session/voting/start", a.transition(s.StartVotingSession))
	r.POST("/session/voting/end", a.transition(s.StopVotingSession))
	r.POST("/session/tally", a.transition(s.TallyVotes))
	r.POST("/session/reset", a.transition(s.ResetSession))

	r.POST("/voters", a.postRegisterVoter)
	r.POST("/proposals", a.postAddProposal)
	r.GET("/proposals/:index", a.getProposal)
	r.POST("/votes", a.postAddVote)
	r.GET("/votes/:voter", a.getVote)
	r.GET("/winner", a.getWinner)
	r.GET("/winner/index", a.getWinnerIndex)

	if journal != nil {
		r.GET("/signals", a.getSignals)
	}

	a.r = r

	return &a, nil
}

// Serve serves the API at the given port
func (a *API) Serve(port string) error {
	return a.r.Run(":" + port)
}

type errorMsg struct {
	Message string `json:"message"`
}

func returnErr(c *gin.Context, err error) {
	log.Warnw("HTTP API Bad request error", "err", err)
	status := http.StatusBadRequest
	if errors.Is(err, session.ErrUnauthorized) ||
		errors.Is(err, session.ErrNotAVoter) {
		status = http.StatusForbidden
	}
	c.JSON(status, errorMsg{
		Message: err.Error(),
	})
}

// caller parses the caller address from the request header
func caller(c *gin.Context) (common.Address, error) {
	h := c.GetHeader(CallerHeader)
	if h == "" {
		return common.Address{}, fmt.Errorf("missing %s header", CallerHeader)
	}
	if !common.IsHexAddress(h) {
		return common.Address{}, fmt.Errorf("invalid caller address %q", h)
	}
	return common.HexToAddress(h), nil
}

// transition wraps an admin session operation into a handler returning the
// phase reached after the operation
func (a *API) transition(op func(common.Address) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		addr, err := caller(c)
		if err != nil {
			returnErr(c, err)
			return
		}
		if err := op(addr); err != nil {
			returnErr(c, err)
			return
		}
		c.JSON(http.StatusOK, phaseResp{Phase: a.s.Phase()})
	}
}

func (a *API) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionResp{
		Phase:      a.s.Phase(),
		NVoters:    a.s.NVoters(),
		NProposals: a.s.NProposals(),
	})
}

func (a *API) getPhase(c *gin.Context) {
	c.JSON(http.StatusOK, phaseResp{Phase: a.s.Phase()})
}

func (a *API) postRegisterVoter(c *gin.Context) {
	addr, err := caller(c)
	if err != nil {
		returnErr(c, err)
		return
	}

	var d registerVoterReq
	if err := c.ShouldBindJSON(&d); err != nil {
		returnErr(c, err)
		return
	}

	if err := a.s.RegisterVoter(addr, d.Voter); err != nil {
		returnErr(c, err)
		return
	}
	log.Debugf("[voter=%s] registered", d.Voter.Hex())
	c.JSON(http.StatusOK, d.Voter)
}

func (a *API) postAddProposal(c *gin.Context) {
	addr, err := caller(c)
	if err != nil {
		returnErr(c, err)
		return
	}

	var d addProposalReq
	if err := c.ShouldBindJSON(&d); err != nil {
		returnErr(c, err)
		return
	}

	proposalID, err := a.s.AddProposal(addr, d.Description)
	if err != nil {
		returnErr(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalID)
}

func (a *API) getProposal(c *gin.Context) {
	addr, err := caller(c)
	if err != nil {
		returnErr(c, err)
		return
	}

	indexStr := c.Param("index")
	index, err := strconv.ParseUint(indexStr, 10, 64)
	if err != nil {
		returnErr(c, err)
		return
	}

	description, err := a.s.Proposal(addr, index)
	if err != nil {
		returnErr(c, err)
		return
	}
	c.JSON(http.StatusOK, proposalResp{
		ProposalID:  index,
		Description: description,
	})
}

func (a *API) postAddVote(c *gin.Context) {
	addr, err := caller(c)
	if err != nil {
		returnErr(c, err)
		return
	}

	var d addVoteReq
	if err := c.ShouldBindJSON(&d); err != nil {
		returnErr(c, err)
		return
	}

	if err := a.s.AddVote(addr, d.ProposalID); err != nil {
		returnErr(c, err)
		return
	}
	c.JSON(http.StatusOK, voteResp{Voter: addr, ProposalID: d.ProposalID})
}

func (a *API) getVote(c *gin.Context) {
	addr, err := caller(c)
	if err != nil {
		returnErr(c, err)
		return
	}

	voterStr := c.Param("voter")
	if !common.IsHexAddress(voterStr) {
		returnErr(c, fmt.Errorf("invalid voter address %q", voterStr))
		return
	}
	voter := common.HexToAddress(voterStr)

	proposalID, err := a.s.Vote(addr, voter)
	if err != nil {
		returnErr(c, err)
		return
	}
	c.JSON(http.StatusOK, voteResp{Voter: voter, ProposalID: proposalID})
}

func (a *API) getWinner(c *gin.Context) {
	description, err := a.s.WinnerProposal()
	if err != nil {
		returnErr(c, err)
		return
	}
	c.JSON(http.StatusOK, winnerResp{
		ProposalID:  a.s.WinningProposal(),
		Description: description,
	})
}

func (a *API) getWinnerIndex(c *gin.Context) {
	c.JSON(http.StatusOK, a.s.WinningProposal())
}

func (a *API) getSignals(c *gin.Context) {
	var (
		records []types.SignalRecord
		err     error
	)
	if name := c.Query("name"); name != "" {
		records, err = a.journal.ReadSignalsByName(name)
	} else {
		records, err = a.journal.ReadSignals()
	}
	if err != nil {
		returnErr(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
