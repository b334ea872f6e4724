package governance

import (
	"fmt"
	"math/big"
	"time"
)

// Registry creates and stores proposals. Each proposal kind gets its
// own constructor with kind-specific validation; a failed validation
// consumes no id. Callers serialize access through the Service.
type Registry struct {
	store    ProposalStore
	clock    Clock
	ledger   Ledger
	params   *Params
	treasury *TreasuryState
	vesting  *VestingState
	events   EventSink

	nextID uint64
}

// NewRegistry creates a registry whose id sequence continues after the
// highest stored proposal id.
func NewRegistry(store ProposalStore, clock Clock, ledger Ledger, params *Params, treasury *TreasuryState, vesting *VestingState, events EventSink) (*Registry, error) {
	last, err := store.LastProposalID()
	if err != nil {
		return nil, fmt.Errorf("failed to read last proposal id: %w", err)
	}
	return &Registry{
		store:    store,
		clock:    clock,
		ledger:   ledger,
		params:   params,
		treasury: treasury,
		vesting:  vesting,
		events:   events,
		nextID:   last + 1,
	}, nil
}

// ProposalCreated is the payload of a proposal.created event.
type ProposalCreated struct {
	ProposalID uint64       `json:"proposal_id"`
	Type       ProposalType `json:"type"`
	Proposer   string       `json:"proposer"`
	EndTime    time.Time    `json:"end_time"`
	Payload    Payload      `json:"payload"`
}

// create allocates the next id and stores a proposal with a fresh
// three-day voting window.
func (r *Registry) create(proposer string, payload Payload) (uint64, error) {
	now := r.clock.Now()
	proposal := &Proposal{
		ID:           r.nextID,
		Type:         payload.Kind(),
		Payload:      payload,
		Proposer:     proposer,
		StartTime:    now,
		EndTime:      now.Add(VotingPeriod),
		VotesFor:     big.NewInt(0),
		VotesAgainst: big.NewInt(0),
	}

	if err := r.store.SaveProposal(proposal); err != nil {
		return 0, fmt.Errorf("failed to save proposal: %w", err)
	}

	r.nextID++
	r.events.Emit(newEvent(EventProposalCreated, now, ProposalCreated{
		ProposalID: proposal.ID,
		Type:       proposal.Type,
		Proposer:   proposer,
		EndTime:    proposal.EndTime,
		Payload:    payload,
	}))
	return proposal.ID, nil
}

// ProposeAnnualBurn proposes enabling or disabling the annual burn.
func (r *Registry) ProposeAnnualBurn(proposer string, enable bool) (uint64, error) {
	return r.create(proposer, AnnualBurnPayload{Enable: enable})
}

// ProposeAnnualBurnRate proposes a new annual burn rate in [1,10].
func (r *Registry) ProposeAnnualBurnRate(proposer string, rate uint64) (uint64, error) {
	if rate < 1 || rate > 10 {
		return 0, fmt.Errorf("%w: annual burn rate %d out of range [1,10]", ErrValidation, rate)
	}
	return r.create(proposer, AnnualBurnRatePayload{Rate: rate})
}

// ProposeDeveloperWithdrawal proposes a withdrawal from the developer
// allocation. The amount must fit both the configured limit and the
// remaining allocation.
func (r *Registry) ProposeDeveloperWithdrawal(proposer string, amount *big.Int) (uint64, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: withdrawal amount must be positive", ErrValidation)
	}
	if amount.Cmp(r.params.WithdrawalLimit) > 0 {
		return 0, fmt.Errorf("%w: withdrawal amount exceeds limit", ErrValidation)
	}
	if amount.Cmp(r.vesting.Remaining) > 0 {
		return 0, fmt.Errorf("%w: withdrawal amount exceeds remaining allocation", ErrValidation)
	}
	return r.create(proposer, DeveloperWithdrawalPayload{Amount: new(big.Int).Set(amount)})
}

// ProposeWithdrawalLimit proposes a new developer withdrawal cap.
func (r *Registry) ProposeWithdrawalLimit(proposer string, limit *big.Int) (uint64, error) {
	if limit == nil || limit.Sign() <= 0 {
		return 0, fmt.Errorf("%w: withdrawal limit must be positive", ErrValidation)
	}
	return r.create(proposer, WithdrawalLimitPayload{Limit: new(big.Int).Set(limit)})
}

// ProposeWithdrawalBurn proposes a new withdrawal burn percentage in
// [5,95].
func (r *Registry) ProposeWithdrawalBurn(proposer string, percent uint64) (uint64, error) {
	if percent < 5 || percent > 95 {
		return 0, fmt.Errorf("%w: withdrawal burn %d out of range [5,95]", ErrValidation, percent)
	}
	return r.create(proposer, WithdrawalBurnPayload{Percent: percent})
}

// ProposeTransferFeeRate proposes a new transfer fee rate in [1,20].
func (r *Registry) ProposeTransferFeeRate(proposer string, rate uint64) (uint64, error) {
	if rate < 1 || rate > 20 {
		return 0, fmt.Errorf("%w: transfer fee rate %d out of range [1,20]", ErrValidation, rate)
	}
	return r.create(proposer, TransferFeeRatePayload{Rate: rate})
}

// ProposeEmergencyControl proposes pausing or unpausing the system.
func (r *Registry) ProposeEmergencyControl(proposer string, pause bool) (uint64, error) {
	return r.create(proposer, EmergencyControlPayload{Pause: pause})
}

// ProposeVotingFee proposes a new voting fee.
func (r *Registry) ProposeVotingFee(proposer string, fee *big.Int) (uint64, error) {
	if fee == nil || fee.Sign() < 0 {
		return 0, fmt.Errorf("%w: voting fee must not be negative", ErrValidation)
	}
	return r.create(proposer, VotingFeePayload{Fee: new(big.Int).Set(fee)})
}

// ProposeEmergencyThreshold proposes a new global execution quorum.
func (r *Registry) ProposeEmergencyThreshold(proposer string, threshold *big.Int) (uint64, error) {
	if threshold == nil || threshold.Sign() <= 0 {
		return 0, fmt.Errorf("%w: emergency threshold must be positive", ErrValidation)
	}
	return r.create(proposer, EmergencyThresholdPayload{Threshold: new(big.Int).Set(threshold)})
}

// ProposeDynamicBurnParams proposes a full replacement of the dynamic
// burn schedule. Tiers must strictly descend and rates strictly ascend.
func (r *Registry) ProposeDynamicBurnParams(proposer string, p DynamicBurnParamsPayload) (uint64, error) {
	if p.Tier1 == nil || p.Tier2 == nil || p.Tier3 == nil {
		return 0, fmt.Errorf("%w: all three burn tiers are required", ErrValidation)
	}
	if p.Tier3.Sign() <= 0 {
		return 0, fmt.Errorf("%w: burn tiers must be positive", ErrValidation)
	}
	if p.Tier1.Cmp(p.Tier2) <= 0 || p.Tier2.Cmp(p.Tier3) <= 0 {
		return 0, fmt.Errorf("%w: burn tiers must satisfy tier1 > tier2 > tier3", ErrValidation)
	}
	if p.MinRate < 1 {
		return 0, fmt.Errorf("%w: minimum burn rate must be positive", ErrValidation)
	}
	if p.MinRate >= p.MidRate || p.MidRate >= p.MaxRate {
		return 0, fmt.Errorf("%w: burn rates must satisfy min < mid < max", ErrValidation)
	}
	if p.MaxRate > 1000 {
		return 0, fmt.Errorf("%w: maximum burn rate %d exceeds 1000 per mille", ErrValidation, p.MaxRate)
	}
	payload := DynamicBurnParamsPayload{
		Tier1:   new(big.Int).Set(p.Tier1),
		Tier2:   new(big.Int).Set(p.Tier2),
		Tier3:   new(big.Int).Set(p.Tier3),
		MinRate: p.MinRate,
		MidRate: p.MidRate,
		MaxRate: p.MaxRate,
	}
	return r.create(proposer, payload)
}

// ProposeTreasurySpending proposes disbursing treasury funds.
func (r *Registry) ProposeTreasurySpending(proposer, recipient string, amount *big.Int) (uint64, error) {
	if recipient == "" {
		return 0, fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: spending amount must be positive", ErrValidation)
	}
	if amount.Cmp(r.treasury.Allocation) > 0 {
		return 0, fmt.Errorf("%w: spending amount exceeds treasury allocation", ErrValidation)
	}
	return r.create(proposer, TreasurySpendingPayload{Recipient: recipient, Amount: new(big.Int).Set(amount)})
}

// ProposeTreasuryAllocation proposes a new treasury allocation and
// quorum. The allocation cannot exceed total supply and the quorum
// cannot exceed the allocation.
func (r *Registry) ProposeTreasuryAllocation(proposer string, allocation, quorum *big.Int) (uint64, error) {
	if allocation == nil || allocation.Sign() < 0 {
		return 0, fmt.Errorf("%w: allocation must not be negative", ErrValidation)
	}
	if quorum == nil || quorum.Sign() < 0 {
		return 0, fmt.Errorf("%w: quorum must not be negative", ErrValidation)
	}
	if allocation.Cmp(r.ledger.TotalSupply()) > 0 {
		return 0, fmt.Errorf("%w: allocation exceeds total supply", ErrValidation)
	}
	if quorum.Cmp(allocation) > 0 {
		return 0, fmt.Errorf("%w: quorum exceeds allocation", ErrValidation)
	}
	payload := TreasuryAllocationPayload{
		Allocation: new(big.Int).Set(allocation),
		Quorum:     new(big.Int).Set(quorum),
	}
	return r.create(proposer, payload)
}

// ProposeTreasuryVoteWeight proposes a new treasury vote weight rate
// in basis points.
func (r *Registry) ProposeTreasuryVoteWeight(proposer string, rateBP uint64) (uint64, error) {
	if rateBP < 1 || rateBP > 10_000 {
		return 0, fmt.Errorf("%w: vote weight rate %d out of range [1,10000]", ErrValidation, rateBP)
	}
	return r.create(proposer, TreasuryVoteWeightPayload{RateBP: rateBP})
}

// ProposeTimelockDelay proposes a new execution timelock delay.
func (r *Registry) ProposeTimelockDelay(proposer string, delay time.Duration) (uint64, error) {
	if delay < 0 {
		return 0, fmt.Errorf("%w: timelock delay must not be negative", ErrValidation)
	}
	return r.create(proposer, TimelockDelayPayload{Delay: delay})
}

// ProposeTreasuryParticipation proposes new treasury participation
// rules: minimum unique voters and the vote weight cap.
func (r *Registry) ProposeTreasuryParticipation(proposer string, minVoters int, maxWeight *big.Int) (uint64, error) {
	if minVoters < 1 {
		return 0, fmt.Errorf("%w: minimum voter count must be positive", ErrValidation)
	}
	if maxWeight == nil || maxWeight.Sign() <= 0 {
		return 0, fmt.Errorf("%w: maximum vote weight must be positive", ErrValidation)
	}
	payload := TreasuryParticipationPayload{
		MinVoters: minVoters,
		MaxWeight: new(big.Int).Set(maxWeight),
	}
	return r.create(proposer, payload)
}
