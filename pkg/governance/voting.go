package governance

import (
	"fmt"
	"math/big"
)

// VotingEngine records one weighted vote per address per proposal.
// Treasury-restricted proposals use the privileged weighting rules;
// everything else weighs votes by voter balance and may burn a voting
// fee. Callers serialize access through the Service.
type VotingEngine struct {
	store    ProposalStore
	clock    Clock
	ledger   Ledger
	params   *Params
	treasury *TreasuryState
	events   EventSink
}

// NewVotingEngine creates a voting engine over shared governance state.
func NewVotingEngine(store ProposalStore, clock Clock, ledger Ledger, params *Params, treasury *TreasuryState, events EventSink) *VotingEngine {
	return &VotingEngine{
		store:    store,
		clock:    clock,
		ledger:   ledger,
		params:   params,
		treasury: treasury,
		events:   events,
	}
}

// VoteCast is the payload of a vote.cast event.
type VoteCast struct {
	ProposalID uint64   `json:"proposal_id"`
	Voter      string   `json:"voter"`
	Support    bool     `json:"support"`
	Weight     *big.Int `json:"weight"`
}

// Vote casts a vote. The fee burn for ordinary proposals only happens
// once every check has passed, so a rejected vote leaves no trace.
func (v *VotingEngine) Vote(proposalID uint64, voter string, support bool) error {
	proposal, err := v.store.GetProposal(proposalID)
	if err != nil {
		return fmt.Errorf("failed to get proposal: %w", err)
	}
	if proposal == nil {
		return ErrProposalNotFound
	}

	now := v.clock.Now()
	if now.Before(proposal.StartTime) || now.After(proposal.EndTime) {
		return ErrVotingWindow
	}

	voted, err := v.store.HasVoted(proposalID, voter)
	if err != nil {
		return fmt.Errorf("failed to check vote record: %w", err)
	}
	if voted {
		return ErrDuplicateVote
	}

	balance := v.ledger.BalanceOf(voter)

	var weight *big.Int
	var burnFee bool
	if proposal.Type.TreasuryRestricted() {
		weight, err = v.treasuryWeight(balance)
		if err != nil {
			return err
		}
	} else {
		weight, burnFee, err = v.ordinaryWeight(balance)
		if err != nil {
			return err
		}
	}
	if weight.Sign() <= 0 {
		return ErrZeroWeight
	}

	// All checks passed; side effects from here on.
	if burnFee {
		if err := v.ledger.Burn(voter, v.params.VotingFee); err != nil {
			return fmt.Errorf("failed to burn voting fee: %w", err)
		}
	}

	if support {
		proposal.VotesFor.Add(proposal.VotesFor, weight)
	} else {
		proposal.VotesAgainst.Add(proposal.VotesAgainst, weight)
	}
	if proposal.Type.TreasuryRestricted() {
		proposal.UniqueVoters++
	}

	if err := v.store.RecordVote(proposal, voter); err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}

	v.events.Emit(newEvent(EventVoteCast, now, VoteCast{
		ProposalID: proposalID,
		Voter:      voter,
		Support:    support,
		Weight:     new(big.Int).Set(weight),
	}))
	return nil
}

// treasuryWeight computes the weight for treasury-restricted
// proposals: the voter must hold at least 5% of the treasury
// allocation, and the weight is a capped fraction of the balance.
func (v *VotingEngine) treasuryWeight(balance *big.Int) (*big.Int, error) {
	// balance >= allocation / 20, compared without division loss.
	scaled := new(big.Int).Mul(balance, big.NewInt(20))
	if scaled.Cmp(v.treasury.Allocation) < 0 {
		return nil, fmt.Errorf("%w: balance below 5%% of treasury allocation", ErrIneligibleVoter)
	}

	weight := new(big.Int).Mul(balance, new(big.Int).SetUint64(v.params.TreasuryVoteWeightRate))
	weight.Div(weight, big.NewInt(10_000))
	if weight.Cmp(v.params.TreasuryMaxVoteWeight) > 0 {
		weight.Set(v.params.TreasuryMaxVoteWeight)
	}
	return weight, nil
}

// ordinaryWeight computes the flat balance weight for every other
// proposal kind and reports whether the voting fee is owed.
func (v *VotingEngine) ordinaryWeight(balance *big.Int) (*big.Int, bool, error) {
	burnFee := v.params.VotingFee.Sign() > 0
	if burnFee && balance.Cmp(v.params.VotingFee) < 0 {
		return nil, false, fmt.Errorf("%w: balance below voting fee", ErrIneligibleVoter)
	}
	return new(big.Int).Set(balance), burnFee, nil
}
