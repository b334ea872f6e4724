package governance

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Viyale/KeeperCoin/pkg/burn"
)

// ServiceConfig seeds the deployment-time governance state.
type ServiceConfig struct {
	// Developer is the address allowed to force an unpause and the
	// recipient of vested withdrawals.
	Developer string

	// Reserve is the account holding the treasury and developer
	// allocations and the balance annual burns are debited from.
	Reserve string

	TreasuryAllocation  *big.Int
	TreasuryQuorum      *big.Int
	DeveloperAllocation *big.Int
}

// Service is the governance engine. It owns the singleton parameter
// set and the treasury and vesting state, serializes every mutating
// call under one mutex, and wraps every token transfer with the burn
// rules. Each call observes a fully committed prior state and either
// commits its entire effect or aborts without partial mutation.
type Service struct {
	mutex sync.Mutex

	ledger Ledger
	clock  Clock
	pauser Pauser
	store  ProposalStore
	events EventSink

	params   *Params
	treasury *TreasuryState
	vesting  *VestingState
	pause    *pauseState

	burner      *burn.Engine
	registry    *Registry
	voting      *VotingEngine
	executor    *Executor
	treasuryCtl *TreasuryController
	withdrawals *WithdrawalScheduler

	developer string
	reserve   string
}

// NewService assembles the governance engine. The caller seeds the
// ledger (including the reserve balance) before any transfers happen.
func NewService(ledger Ledger, clock Clock, pauser Pauser, store ProposalStore, events EventSink, params *Params, cfg ServiceConfig) (*Service, error) {
	if cfg.Developer == "" || cfg.Reserve == "" {
		return nil, fmt.Errorf("developer and reserve addresses are required")
	}
	if cfg.TreasuryAllocation == nil || cfg.TreasuryQuorum == nil || cfg.DeveloperAllocation == nil {
		return nil, fmt.Errorf("treasury allocation, treasury quorum and developer allocation are required")
	}

	now := clock.Now()

	treasury := &TreasuryState{
		Allocation: new(big.Int).Set(cfg.TreasuryAllocation),
		Quorum:     new(big.Int).Set(cfg.TreasuryQuorum),
	}
	vesting := &VestingState{
		DeployedAt:     now,
		Remaining:      new(big.Int).Set(cfg.DeveloperAllocation),
		NextWithdrawal: now.Add(WithdrawalDelay),
	}
	pause := &pauseState{}

	registry, err := NewRegistry(store, clock, ledger, params, treasury, vesting, events)
	if err != nil {
		return nil, err
	}

	s := &Service{
		ledger:    ledger,
		clock:     clock,
		pauser:    pauser,
		store:     store,
		events:    events,
		params:    params,
		treasury:  treasury,
		vesting:   vesting,
		pause:     pause,
		burner:    burn.NewEngine(now),
		registry:  registry,
		developer: cfg.Developer,
		reserve:   cfg.Reserve,
	}

	s.voting = NewVotingEngine(store, clock, ledger, params, treasury, events)
	s.treasuryCtl = NewTreasuryController(store, ledger, treasury, cfg.Reserve)
	s.withdrawals = NewWithdrawalScheduler(clock, ledger, params, vesting, treasury, events, cfg.Reserve, cfg.Developer)
	s.executor = &Executor{
		store:       store,
		clock:       clock,
		params:      params,
		treasury:    treasury,
		treasuryCtl: s.treasuryCtl,
		withdrawals: s.withdrawals,
		pauser:      pauser,
		pause:       pause,
		events:      events,
		transfer:    s.transferLocked,
	}
	return s, nil
}

// guarded runs fn under the service mutex unless the system is paused.
func (s *Service) guarded(fn func() error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.pauser.Paused() {
		s.observePause()
		return ErrPaused
	}
	return fn()
}

// propose runs a registry constructor under the same guard.
func (s *Service) propose(fn func() (uint64, error)) (uint64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.pauser.Paused() {
		s.observePause()
		return 0, ErrPaused
	}
	return fn()
}

// ProposeAnnualBurn proposes enabling or disabling the annual burn.
func (s *Service) ProposeAnnualBurn(proposer string, enable bool) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeAnnualBurn(proposer, enable) })
}

// ProposeAnnualBurnRate proposes a new annual burn rate.
func (s *Service) ProposeAnnualBurnRate(proposer string, rate uint64) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeAnnualBurnRate(proposer, rate) })
}

// ProposeDeveloperWithdrawal proposes a developer withdrawal.
func (s *Service) ProposeDeveloperWithdrawal(proposer string, amount *big.Int) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeDeveloperWithdrawal(proposer, amount) })
}

// ProposeWithdrawalLimit proposes a new developer withdrawal cap.
func (s *Service) ProposeWithdrawalLimit(proposer string, limit *big.Int) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeWithdrawalLimit(proposer, limit) })
}

// ProposeWithdrawalBurn proposes a new withdrawal burn percentage.
func (s *Service) ProposeWithdrawalBurn(proposer string, percent uint64) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeWithdrawalBurn(proposer, percent) })
}

// ProposeTransferFeeRate proposes a new transfer fee rate.
func (s *Service) ProposeTransferFeeRate(proposer string, rate uint64) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeTransferFeeRate(proposer, rate) })
}

// ProposeEmergencyControl proposes pausing or unpausing the system.
func (s *Service) ProposeEmergencyControl(proposer string, pause bool) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeEmergencyControl(proposer, pause) })
}

// ProposeVotingFee proposes a new voting fee.
func (s *Service) ProposeVotingFee(proposer string, fee *big.Int) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeVotingFee(proposer, fee) })
}

// ProposeEmergencyThreshold proposes a new global execution quorum.
func (s *Service) ProposeEmergencyThreshold(proposer string, threshold *big.Int) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeEmergencyThreshold(proposer, threshold) })
}

// ProposeDynamicBurnParams proposes a new dynamic burn schedule.
func (s *Service) ProposeDynamicBurnParams(proposer string, payload DynamicBurnParamsPayload) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeDynamicBurnParams(proposer, payload) })
}

// ProposeTreasurySpending proposes disbursing treasury funds.
func (s *Service) ProposeTreasurySpending(proposer, recipient string, amount *big.Int) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeTreasurySpending(proposer, recipient, amount) })
}

// ProposeTreasuryAllocation proposes a new treasury allocation and quorum.
func (s *Service) ProposeTreasuryAllocation(proposer string, allocation, quorum *big.Int) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeTreasuryAllocation(proposer, allocation, quorum) })
}

// ProposeTreasuryVoteWeight proposes a new treasury vote weight rate.
func (s *Service) ProposeTreasuryVoteWeight(proposer string, rateBP uint64) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeTreasuryVoteWeight(proposer, rateBP) })
}

// ProposeTimelockDelay proposes a new execution timelock delay.
func (s *Service) ProposeTimelockDelay(proposer string, delay time.Duration) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeTimelockDelay(proposer, delay) })
}

// ProposeTreasuryParticipation proposes new treasury participation rules.
func (s *Service) ProposeTreasuryParticipation(proposer string, minVoters int, maxWeight *big.Int) (uint64, error) {
	return s.propose(func() (uint64, error) { return s.registry.ProposeTreasuryParticipation(proposer, minVoters, maxWeight) })
}

// Vote casts a vote on a proposal.
func (s *Service) Vote(proposalID uint64, voter string, support bool) error {
	return s.guarded(func() error { return s.voting.Vote(proposalID, voter, support) })
}

// Execute finalizes a proposal once its gates pass.
func (s *Service) Execute(proposalID uint64) error {
	return s.guarded(func() error { return s.executor.Execute(proposalID) })
}

// Approve appends the caller to a proposal's multi-sig approver list.
func (s *Service) Approve(proposalID uint64, approver string) error {
	return s.guarded(func() error { return s.treasuryCtl.Approve(proposalID, approver) })
}

// ReclaimExpiredAllocation sweeps an expired developer allocation into
// the treasury. Anyone may call it.
func (s *Service) ReclaimExpiredAllocation() error {
	return s.guarded(func() error { return s.withdrawals.Reclaim() })
}

// AnnualBurnExecuted is the payload of a burn.annual event.
type AnnualBurnExecuted struct {
	Amount   *big.Int  `json:"amount"`
	NextBurn time.Time `json:"next_burn"`
}

// Transfer moves tokens between accounts, applying the dynamic burn
// and, when one falls due, the annual burn. The recipient is credited
// with the amount net of the dynamic burn.
func (s *Service) Transfer(from, to string, amount *big.Int) error {
	return s.guarded(func() error { return s.transferLocked(from, to, amount) })
}

// transferLocked is the burn-wrapped transfer path. The caller holds
// the service mutex. Every amount is validated before the first
// ledger write so a failing call leaves no partial mutation.
func (s *Service) transferLocked(from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: transfer amount must be positive", ErrValidation)
	}

	now := s.clock.Now()

	var annualAmount *big.Int
	annualDue := s.params.AnnualBurnEnabled && s.burner.Due(now)
	if annualDue {
		annualAmount = burn.AnnualAmount(s.ledger.TotalSupply(), s.ledger.BalanceOf(s.reserve), s.params.AnnualBurnRate)
		if annualAmount.Sign() == 0 {
			return ErrNothingToBurn
		}
	}

	// A reserve-originated transfer sees the reserve balance net of a
	// due annual burn.
	balance := s.ledger.BalanceOf(from)
	if annualDue && from == s.reserve {
		balance.Sub(balance, annualAmount)
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: balance below transfer amount", ErrInsufficientFunds)
	}

	tiers := burn.Tiers{
		Tier1:   s.params.BurnTier1,
		Tier2:   s.params.BurnTier2,
		Tier3:   s.params.BurnTier3,
		MinRate: s.params.MinBurnRate,
		MidRate: s.params.MidBurnRate,
		MaxRate: s.params.MaxBurnRate,
	}
	burned := burn.Amount(amount, balance, tiers)
	if burned.Cmp(amount) > 0 {
		return fmt.Errorf("%w: burn exceeds transfer amount", ErrValidation)
	}
	net := new(big.Int).Sub(amount, burned)

	if annualDue {
		if err := s.ledger.Burn(s.reserve, annualAmount); err != nil {
			return fmt.Errorf("failed to apply annual burn: %w", err)
		}
		s.burner.Reset(now)
		s.events.Emit(newEvent(EventAnnualBurnExecuted, now, AnnualBurnExecuted{
			Amount:   annualAmount,
			NextBurn: s.burner.NextBurnTime(),
		}))
	}

	if err := s.ledger.Burn(from, burned); err != nil {
		return fmt.Errorf("failed to apply dynamic burn: %w", err)
	}
	if err := s.ledger.Transfer(from, to, net); err != nil {
		return fmt.Errorf("failed to transfer: %w", err)
	}
	return nil
}

// ForceUnpause lets the developer release the circuit breaker after
// seven continuous paused days. It is the only mutating operation
// allowed while paused.
func (s *Service) ForceUnpause(caller string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if caller != s.developer {
		return ErrUnauthorized
	}
	if !s.pauser.Paused() {
		return ErrNotPaused
	}
	s.observePause()
	if s.clock.Now().Before(s.pause.pausedAt.Add(ForcedUnpauseDelay)) {
		return ErrForcedUnpauseUnavailable
	}

	s.pauser.Unpause()
	s.pause.pausedAt = time.Time{}
	return nil
}

// observePause stamps the pause time the first time governance sees an
// engaged pause. A pause flipped outside governance is timed from this
// first observation. Callers hold the service mutex.
func (s *Service) observePause() {
	if s.pause.pausedAt.IsZero() {
		s.pause.pausedAt = s.clock.Now()
	}
}

// GetProposal returns a proposal by id.
func (s *Service) GetProposal(id uint64) (*Proposal, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	proposal, err := s.store.GetProposal(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if proposal == nil {
		return nil, ErrProposalNotFound
	}
	return proposal, nil
}

// ListProposals returns all proposals.
func (s *Service) ListProposals() ([]*Proposal, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.store.ListProposals()
}

// Approvals returns a proposal's approver sequence.
func (s *Service) Approvals(proposalID uint64) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.treasuryCtl.Approvals(proposalID)
}

// Params returns a snapshot of the current governance parameters.
func (s *Service) Params() Params {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := *s.params
	out.BurnTier1 = new(big.Int).Set(s.params.BurnTier1)
	out.BurnTier2 = new(big.Int).Set(s.params.BurnTier2)
	out.BurnTier3 = new(big.Int).Set(s.params.BurnTier3)
	out.VotingFee = new(big.Int).Set(s.params.VotingFee)
	out.EmergencyQuorum = new(big.Int).Set(s.params.EmergencyQuorum)
	out.FundsQuorum = new(big.Int).Set(s.params.FundsQuorum)
	out.TreasuryMaxVoteWeight = new(big.Int).Set(s.params.TreasuryMaxVoteWeight)
	out.WithdrawalLimit = new(big.Int).Set(s.params.WithdrawalLimit)
	return out
}

// Treasury returns a snapshot of the treasury state.
func (s *Service) Treasury() TreasuryState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return TreasuryState{
		Allocation: new(big.Int).Set(s.treasury.Allocation),
		Quorum:     new(big.Int).Set(s.treasury.Quorum),
	}
}

// Vesting returns a snapshot of the developer vesting state.
func (s *Service) Vesting() VestingState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return VestingState{
		DeployedAt:     s.vesting.DeployedAt,
		Remaining:      new(big.Int).Set(s.vesting.Remaining),
		NextWithdrawal: s.vesting.NextWithdrawal,
	}
}

// NextAnnualBurn returns when the next annual burn becomes due.
func (s *Service) NextAnnualBurn() time.Time {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.burner.NextBurnTime()
}
