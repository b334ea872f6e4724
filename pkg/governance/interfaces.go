package governance

import (
	"math/big"
	"time"
)

// Ledger defines the balance primitives the governance engine drives.
// The engine wraps every Transfer with the dynamic burn rule; callers
// must not move funds around it.
type Ledger interface {
	BalanceOf(address string) *big.Int
	TotalSupply() *big.Int
	Transfer(from, to string, amount *big.Int) error
	Mint(to string, amount *big.Int) error
	Burn(from string, amount *big.Int) error
}

// Clock supplies the current time. Mutating operations read it exactly
// once per call.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Pauser is the circuit-breaker primitive.
type Pauser interface {
	Paused() bool
	Pause()
	Unpause()
}

// ProposalStore defines methods for storing proposals, vote records
// and approver lists.
type ProposalStore interface {
	SaveProposal(proposal *Proposal) error
	GetProposal(id uint64) (*Proposal, error)
	ListProposals() ([]*Proposal, error)
	LastProposalID() (uint64, error)

	HasVoted(proposalID uint64, voter string) (bool, error)

	// RecordVote persists the updated tally and the voter's write-once
	// record as a single unit, so neither can land without the other.
	RecordVote(proposal *Proposal, voter string) error

	AddApproval(proposalID uint64, approver string) error
	ListApprovals(proposalID uint64) ([]string, error)
}

// EventSink receives audit records emitted on every state transition.
type EventSink interface {
	Emit(event Event)
}

// Event is an audit record. Payload carries the full type-specific
// detail of the transition.
type Event struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// Event kinds.
const (
	EventProposalCreated     = "proposal.created"
	EventVoteCast            = "vote.cast"
	EventProposalExecuted    = "proposal.executed"
	EventAnnualBurnExecuted  = "burn.annual"
	EventWithdrawalExecuted  = "withdrawal.executed"
	EventAllocationReclaimed = "withdrawal.reclaimed"
)
