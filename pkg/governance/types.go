package governance

import (
	"math/big"
	"time"
)

// ProposalType represents the kind of a proposal. The set is closed:
// execution dispatches over exactly these fifteen kinds.
type ProposalType string

const (
	ProposalTypeAnnualBurn            ProposalType = "annual_burn"
	ProposalTypeAnnualBurnRate        ProposalType = "annual_burn_rate"
	ProposalTypeDeveloperWithdrawal   ProposalType = "developer_withdrawal"
	ProposalTypeWithdrawalLimit       ProposalType = "withdrawal_limit"
	ProposalTypeWithdrawalBurn        ProposalType = "withdrawal_burn"
	ProposalTypeTransferFeeRate       ProposalType = "transfer_fee_rate"
	ProposalTypeEmergencyControl      ProposalType = "emergency_control"
	ProposalTypeVotingFee             ProposalType = "voting_fee"
	ProposalTypeEmergencyThreshold    ProposalType = "emergency_threshold"
	ProposalTypeDynamicBurnParams     ProposalType = "dynamic_burn_params"
	ProposalTypeTreasurySpending      ProposalType = "treasury_spending"
	ProposalTypeTreasuryAllocation    ProposalType = "treasury_allocation"
	ProposalTypeTreasuryVoteWeight    ProposalType = "treasury_vote_weight"
	ProposalTypeTimelockDelay         ProposalType = "timelock_delay"
	ProposalTypeTreasuryParticipation ProposalType = "treasury_participation"
)

// TreasuryRestricted reports whether the type follows the privileged
// treasury voting rules (holding threshold, capped weight, unique
// voter tracking).
func (t ProposalType) TreasuryRestricted() bool {
	switch t {
	case ProposalTypeTreasurySpending,
		ProposalTypeTreasuryAllocation,
		ProposalTypeTreasuryVoteWeight,
		ProposalTypeTreasuryParticipation:
		return true
	}
	return false
}

// FundsProposal reports whether the type moves funds and therefore
// needs the higher funds quorum to execute.
func (t ProposalType) FundsProposal() bool {
	return t == ProposalTypeDeveloperWithdrawal || t == ProposalTypeTreasurySpending
}

// Payload is the type-specific body of a proposal. Exactly one payload
// struct exists per proposal kind.
type Payload interface {
	Kind() ProposalType
}

// AnnualBurnPayload enables or disables the annual supply burn.
type AnnualBurnPayload struct {
	Enable bool
}

func (AnnualBurnPayload) Kind() ProposalType { return ProposalTypeAnnualBurn }

// AnnualBurnRatePayload changes the annual burn rate (percent of
// total supply).
type AnnualBurnRatePayload struct {
	Rate uint64
}

func (AnnualBurnRatePayload) Kind() ProposalType { return ProposalTypeAnnualBurnRate }

// DeveloperWithdrawalPayload requests a withdrawal from the developer
// allocation.
type DeveloperWithdrawalPayload struct {
	Amount *big.Int
}

func (DeveloperWithdrawalPayload) Kind() ProposalType { return ProposalTypeDeveloperWithdrawal }

// WithdrawalLimitPayload changes the per-withdrawal developer cap.
type WithdrawalLimitPayload struct {
	Limit *big.Int
}

func (WithdrawalLimitPayload) Kind() ProposalType { return ProposalTypeWithdrawalLimit }

// WithdrawalBurnPayload changes the percentage burned from every
// developer withdrawal.
type WithdrawalBurnPayload struct {
	Percent uint64
}

func (WithdrawalBurnPayload) Kind() ProposalType { return ProposalTypeWithdrawalBurn }

// TransferFeeRatePayload changes the transfer fee rate.
type TransferFeeRatePayload struct {
	Rate uint64
}

func (TransferFeeRatePayload) Kind() ProposalType { return ProposalTypeTransferFeeRate }

// EmergencyControlPayload pauses or unpauses the whole system.
type EmergencyControlPayload struct {
	Pause bool
}

func (EmergencyControlPayload) Kind() ProposalType { return ProposalTypeEmergencyControl }

// VotingFeePayload changes the fee burned from ordinary voters.
type VotingFeePayload struct {
	Fee *big.Int
}

func (VotingFeePayload) Kind() ProposalType { return ProposalTypeVotingFee }

// EmergencyThresholdPayload changes the global execution quorum.
type EmergencyThresholdPayload struct {
	Threshold *big.Int
}

func (EmergencyThresholdPayload) Kind() ProposalType { return ProposalTypeEmergencyThreshold }

// DynamicBurnParamsPayload replaces all six dynamic-burn parameters.
type DynamicBurnParamsPayload struct {
	Tier1   *big.Int
	Tier2   *big.Int
	Tier3   *big.Int
	MinRate uint64
	MidRate uint64
	MaxRate uint64
}

func (DynamicBurnParamsPayload) Kind() ProposalType { return ProposalTypeDynamicBurnParams }

// TreasurySpendingPayload disburses treasury funds to a recipient.
type TreasurySpendingPayload struct {
	Recipient string
	Amount    *big.Int
}

func (TreasurySpendingPayload) Kind() ProposalType { return ProposalTypeTreasurySpending }

// TreasuryAllocationPayload sets the treasury allocation and its
// execution quorum.
type TreasuryAllocationPayload struct {
	Allocation *big.Int
	Quorum     *big.Int
}

func (TreasuryAllocationPayload) Kind() ProposalType { return ProposalTypeTreasuryAllocation }

// TreasuryVoteWeightPayload changes the treasury vote weight rate
// (basis points of voter balance).
type TreasuryVoteWeightPayload struct {
	RateBP uint64
}

func (TreasuryVoteWeightPayload) Kind() ProposalType { return ProposalTypeTreasuryVoteWeight }

// TimelockDelayPayload changes the delay between voting close and
// earliest execution.
type TimelockDelayPayload struct {
	Delay time.Duration
}

func (TimelockDelayPayload) Kind() ProposalType { return ProposalTypeTimelockDelay }

// TreasuryParticipationPayload changes the minimum unique voter count
// and the treasury vote weight cap.
type TreasuryParticipationPayload struct {
	MinVoters int
	MaxWeight *big.Int
}

func (TreasuryParticipationPayload) Kind() ProposalType { return ProposalTypeTreasuryParticipation }

// VotingPeriod is the fixed voting window of every proposal.
const VotingPeriod = 72 * time.Hour

// Proposal represents a governance proposal. Identity and payload are
// immutable; the tally, unique voter count and executed flag are the
// only mutable fields.
type Proposal struct {
	ID       uint64
	Type     ProposalType
	Payload  Payload
	Proposer string

	StartTime time.Time
	EndTime   time.Time

	VotesFor     *big.Int
	VotesAgainst *big.Int

	// UniqueVoters is only meaningful for treasury-restricted types.
	UniqueVoters int

	Executed bool
}

// TotalVotes returns VotesFor + VotesAgainst.
func (p *Proposal) TotalVotes() *big.Int {
	return new(big.Int).Add(p.VotesFor, p.VotesAgainst)
}

// Clone returns a copy of the proposal with its own tally values.
func (p *Proposal) Clone() *Proposal {
	out := *p
	out.VotesFor = new(big.Int).Set(p.VotesFor)
	out.VotesAgainst = new(big.Int).Set(p.VotesAgainst)
	return &out
}

// Params is the singleton governance parameter set. It is owned by the
// Service and mutated only by proposal execution effects; every field
// stays inside the bounds enforced at proposal creation and execution.
type Params struct {
	AnnualBurnEnabled bool
	AnnualBurnRate    uint64 // percent of total supply, [1,10]

	// Dynamic burn schedule: Tier1 > Tier2 > Tier3,
	// MinRate < MidRate < MaxRate (per-mille).
	BurnTier1   *big.Int
	BurnTier2   *big.Int
	BurnTier3   *big.Int
	MinBurnRate uint64
	MidBurnRate uint64
	MaxBurnRate uint64

	TransferFeeRate uint64 // percent, [1,20]
	VotingFee       *big.Int

	EmergencyQuorum *big.Int
	FundsQuorum     *big.Int
	TimelockDelay   time.Duration

	MultiSigApprovals int

	TreasuryVoteWeightRate uint64 // basis points of voter balance
	TreasuryMaxVoteWeight  *big.Int
	TreasuryMinVoters      int

	WithdrawalLimit       *big.Int
	WithdrawalBurnPercent uint64 // [5,95]
	GracePeriod           time.Duration
}

// DefaultParams returns the deployment-time parameter set.
func DefaultParams() *Params {
	return &Params{
		AnnualBurnEnabled: true,
		AnnualBurnRate:    1,

		BurnTier1:   Tokens(100_000),
		BurnTier2:   Tokens(10_000),
		BurnTier3:   Tokens(1_000),
		MinBurnRate: 1,
		MidBurnRate: 5,
		MaxBurnRate: 10,

		TransferFeeRate: 1,
		VotingFee:       big.NewInt(0),

		EmergencyQuorum: Tokens(10_000),
		FundsQuorum:     Tokens(50_000),
		TimelockDelay:   48 * time.Hour,

		MultiSigApprovals: 3,

		TreasuryVoteWeightRate: 100, // 1% of balance
		TreasuryMaxVoteWeight:  Tokens(10_000),
		TreasuryMinVoters:      3,

		WithdrawalLimit:       Tokens(100_000),
		WithdrawalBurnPercent: 10,
		GracePeriod:           365 * 24 * time.Hour,
	}
}

// Tokens converts whole tokens into base units (18 decimals).
func Tokens(n int64) *big.Int {
	out := big.NewInt(n)
	return out.Mul(out, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// TreasuryState holds the community-spendable allocation and the vote
// weight required to execute a spending proposal.
type TreasuryState struct {
	Allocation *big.Int
	Quorum     *big.Int
}

// VestingState tracks the developer's time-locked allowance.
type VestingState struct {
	DeployedAt     time.Time
	Remaining      *big.Int
	NextWithdrawal time.Time
}

// WithdrawalDelay is how long after deployment the first developer
// withdrawal window opens.
const WithdrawalDelay = 5*365*24*time.Hour + 30*24*time.Hour

// WithdrawalInterval is the spacing between developer withdrawal
// windows after a successful withdrawal.
const WithdrawalInterval = 30 * 24 * time.Hour

// ForcedUnpauseDelay is how long the system must stay continuously
// paused before the developer may force an unpause.
const ForcedUnpauseDelay = 7 * 24 * time.Hour
