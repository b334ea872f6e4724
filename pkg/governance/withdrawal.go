package governance

import (
	"fmt"
	"math/big"
)

// WithdrawalScheduler governs the developer's time-locked, capped
// withdrawal allowance. The first window opens five years and thirty
// days after deployment; each successful withdrawal opens a new
// thirty-day window. Once a window plus its grace period lapses
// unclaimed, the remaining allocation can be swept to the treasury by
// anyone. Callers serialize access through the Service.
type WithdrawalScheduler struct {
	clock    Clock
	ledger   Ledger
	params   *Params
	vesting  *VestingState
	treasury *TreasuryState
	events   EventSink

	reserve   string
	developer string
}

// NewWithdrawalScheduler creates a scheduler over shared vesting state.
func NewWithdrawalScheduler(clock Clock, ledger Ledger, params *Params, vesting *VestingState, treasury *TreasuryState, events EventSink, reserve, developer string) *WithdrawalScheduler {
	return &WithdrawalScheduler{
		clock:     clock,
		ledger:    ledger,
		params:    params,
		vesting:   vesting,
		treasury:  treasury,
		events:    events,
		reserve:   reserve,
		developer: developer,
	}
}

// WithdrawalExecuted is the payload of a withdrawal.executed event.
type WithdrawalExecuted struct {
	ProposalID uint64   `json:"proposal_id"`
	Amount     *big.Int `json:"amount"`
	Burned     *big.Int `json:"burned"`
	Net        *big.Int `json:"net"`
	Developer  string   `json:"developer"`
}

// Expired reports whether the current withdrawal window plus grace
// period has lapsed.
func (w *WithdrawalScheduler) Expired() bool {
	return w.clock.Now().After(w.vesting.NextWithdrawal.Add(w.params.GracePeriod))
}

// Withdraw realizes an approved developer withdrawal: burns the
// configured percentage from the reserve, pays the developer the net,
// and advances the next window by thirty days. An expired window is
// reported so the caller can consume the proposal as a no-op.
func (w *WithdrawalScheduler) Withdraw(proposalID uint64, amount *big.Int) (expired bool, err error) {
	now := w.clock.Now()
	if now.After(w.vesting.NextWithdrawal.Add(w.params.GracePeriod)) {
		return true, nil
	}
	if now.Before(w.vesting.NextWithdrawal) {
		return false, ErrWithdrawalNotOpen
	}

	if amount.Cmp(w.params.WithdrawalLimit) > 0 {
		return false, fmt.Errorf("%w: amount exceeds withdrawal limit", ErrInsufficientFunds)
	}
	if amount.Cmp(w.vesting.Remaining) > 0 {
		return false, fmt.Errorf("%w: amount exceeds remaining allocation", ErrInsufficientFunds)
	}

	burned := new(big.Int).Mul(amount, new(big.Int).SetUint64(w.params.WithdrawalBurnPercent))
	burned.Div(burned, big.NewInt(100))
	net := new(big.Int).Sub(amount, burned)

	if err := w.ledger.Burn(w.reserve, burned); err != nil {
		return false, fmt.Errorf("failed to burn withdrawal share: %w", err)
	}
	if err := w.ledger.Transfer(w.reserve, w.developer, net); err != nil {
		return false, fmt.Errorf("failed to pay developer: %w", err)
	}

	w.vesting.Remaining.Sub(w.vesting.Remaining, amount)
	w.vesting.NextWithdrawal = w.vesting.NextWithdrawal.Add(WithdrawalInterval)

	w.events.Emit(newEvent(EventWithdrawalExecuted, now, WithdrawalExecuted{
		ProposalID: proposalID,
		Amount:     new(big.Int).Set(amount),
		Burned:     burned,
		Net:        net,
		Developer:  w.developer,
	}))
	return false, nil
}

// AllocationReclaimed is the payload of a withdrawal.reclaimed event.
type AllocationReclaimed struct {
	Amount *big.Int `json:"amount"`
}

// Reclaim moves the whole remaining developer allocation into the
// treasury once the grace period has lapsed. Permissionless; calling
// it again after the first sweep is a no-op.
func (w *WithdrawalScheduler) Reclaim() error {
	now := w.clock.Now()
	if !now.After(w.vesting.NextWithdrawal.Add(w.params.GracePeriod)) {
		return ErrWithdrawalWindowActive
	}
	if w.vesting.Remaining.Sign() == 0 {
		return nil
	}

	amount := new(big.Int).Set(w.vesting.Remaining)
	w.treasury.Allocation.Add(w.treasury.Allocation, amount)
	w.vesting.Remaining.SetInt64(0)

	w.events.Emit(newEvent(EventAllocationReclaimed, now, AllocationReclaimed{Amount: amount}))
	return nil
}
