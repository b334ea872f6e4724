package governance

import (
	"fmt"
	"time"
)

// pauseState remembers when the circuit breaker was last engaged so
// the developer's forced unpause can be time-gated.
type pauseState struct {
	pausedAt time.Time
}

// Executor gates proposal execution on the timelock, the quorum tiers
// and the multi-sig approvals, then dispatches the type-specific
// effect. Callers serialize access through the Service.
type Executor struct {
	store       ProposalStore
	clock       Clock
	params      *Params
	treasury    *TreasuryState
	treasuryCtl *TreasuryController
	withdrawals *WithdrawalScheduler
	pauser      Pauser
	pause       *pauseState
	events      EventSink
	transfer    TransferFunc
}

// ProposalExecuted is the payload of a proposal.executed event.
// Applied is false when the proposal reached quorum but lost its
// majority vote, or when a developer withdrawal window had expired.
type ProposalExecuted struct {
	ProposalID uint64       `json:"proposal_id"`
	Type       ProposalType `json:"type"`
	Applied    bool         `json:"applied"`
}

// Execute finalizes a proposal. Every gate must pass or the call fails
// without mutating anything. Once the gates pass the proposal is
// consumed permanently, even when it loses the majority vote; only a
// winning proposal has its effect applied.
func (e *Executor) Execute(proposalID uint64) error {
	proposal, err := e.store.GetProposal(proposalID)
	if err != nil {
		return fmt.Errorf("failed to get proposal: %w", err)
	}
	if proposal == nil {
		return ErrProposalNotFound
	}

	now := e.clock.Now()
	if !now.After(proposal.EndTime.Add(e.params.TimelockDelay)) {
		return ErrTimelockNotElapsed
	}
	if proposal.Executed {
		return ErrAlreadyExecuted
	}

	total := proposal.TotalVotes()
	if total.Cmp(e.params.EmergencyQuorum) < 0 {
		return fmt.Errorf("%w: below emergency voting threshold", ErrQuorumNotMet)
	}
	if proposal.Type.FundsProposal() && total.Cmp(e.params.FundsQuorum) < 0 {
		return fmt.Errorf("%w: below funds proposal threshold", ErrQuorumNotMet)
	}
	if proposal.Type.TreasuryRestricted() && proposal.UniqueVoters < e.params.TreasuryMinVoters {
		return fmt.Errorf("%w: not enough unique treasury voters", ErrQuorumNotMet)
	}
	if proposal.Type == ProposalTypeTreasurySpending {
		approvals, err := e.store.ListApprovals(proposalID)
		if err != nil {
			return fmt.Errorf("failed to list approvals: %w", err)
		}
		if len(approvals) < e.params.MultiSigApprovals {
			return fmt.Errorf("%w: not enough multi-sig approvals", ErrQuorumNotMet)
		}
		if total.Cmp(e.treasury.Quorum) < 0 {
			return fmt.Errorf("%w: below treasury quorum", ErrQuorumNotMet)
		}
	}

	applied := false
	if proposal.VotesFor.Cmp(proposal.VotesAgainst) > 0 {
		applied, err = e.apply(proposal, now)
		if err != nil {
			return err
		}
	}

	proposal.Executed = true
	if err := e.store.SaveProposal(proposal); err != nil {
		return fmt.Errorf("failed to save proposal: %w", err)
	}

	e.events.Emit(newEvent(EventProposalExecuted, now, ProposalExecuted{
		ProposalID: proposalID,
		Type:       proposal.Type,
		Applied:    applied,
	}))
	return nil
}

// apply dispatches the type-specific effect of a winning proposal.
// The returned flag is false only for a withdrawal whose window had
// already expired; that proposal is still consumed.
func (e *Executor) apply(proposal *Proposal, now time.Time) (bool, error) {
	switch p := proposal.Payload.(type) {
	case AnnualBurnPayload:
		e.params.AnnualBurnEnabled = p.Enable

	case AnnualBurnRatePayload:
		if p.Rate < 1 || p.Rate > 10 {
			return false, fmt.Errorf("%w: annual burn rate %d out of range [1,10]", ErrValidation, p.Rate)
		}
		e.params.AnnualBurnRate = p.Rate

	case DeveloperWithdrawalPayload:
		expired, err := e.withdrawals.Withdraw(proposal.ID, p.Amount)
		if err != nil {
			return false, err
		}
		if expired {
			return false, nil
		}

	case WithdrawalLimitPayload:
		e.params.WithdrawalLimit.Set(p.Limit)

	case WithdrawalBurnPayload:
		e.params.WithdrawalBurnPercent = p.Percent

	case TransferFeeRatePayload:
		if p.Rate < 1 || p.Rate > 20 {
			return false, fmt.Errorf("%w: transfer fee rate %d out of range [1,20]", ErrValidation, p.Rate)
		}
		e.params.TransferFeeRate = p.Rate

	case EmergencyControlPayload:
		if p.Pause {
			e.pauser.Pause()
			e.pause.pausedAt = now
		} else {
			e.pauser.Unpause()
			e.pause.pausedAt = time.Time{}
		}

	case VotingFeePayload:
		e.params.VotingFee.Set(p.Fee)

	case EmergencyThresholdPayload:
		e.params.EmergencyQuorum.Set(p.Threshold)

	case DynamicBurnParamsPayload:
		if p.MinRate < 1 || p.MinRate >= p.MidRate || p.MidRate >= p.MaxRate || p.MaxRate > 1000 {
			return false, fmt.Errorf("%w: burn rates must satisfy 1 <= min < mid < max <= 1000", ErrValidation)
		}
		e.params.BurnTier1.Set(p.Tier1)
		e.params.BurnTier2.Set(p.Tier2)
		e.params.BurnTier3.Set(p.Tier3)
		e.params.MinBurnRate = p.MinRate
		e.params.MidBurnRate = p.MidRate
		e.params.MaxBurnRate = p.MaxRate

	case TreasurySpendingPayload:
		if err := e.treasuryCtl.Disburse(p.Recipient, p.Amount, e.transfer); err != nil {
			return false, err
		}

	case TreasuryAllocationPayload:
		e.treasury.Allocation.Set(p.Allocation)
		e.treasury.Quorum.Set(p.Quorum)

	case TreasuryVoteWeightPayload:
		e.params.TreasuryVoteWeightRate = p.RateBP

	case TimelockDelayPayload:
		e.params.TimelockDelay = p.Delay

	case TreasuryParticipationPayload:
		e.params.TreasuryMinVoters = p.MinVoters
		e.params.TreasuryMaxVoteWeight.Set(p.MaxWeight)

	default:
		return false, fmt.Errorf("%w: unknown proposal type %q", ErrValidation, proposal.Type)
	}

	return true, nil
}
