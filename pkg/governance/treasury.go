package governance

import (
	"fmt"
	"math/big"
)

// TransferFunc moves tokens through the burn-wrapped transfer path.
type TransferFunc func(from, to string, amount *big.Int) error

// TreasuryController owns the treasury allocation and quorum, the
// multi-sig approver lists, and fund disbursement. Callers serialize
// access through the Service.
type TreasuryController struct {
	store    ProposalStore
	ledger   Ledger
	treasury *TreasuryState
	reserve  string
}

// NewTreasuryController creates a controller over shared treasury state.
func NewTreasuryController(store ProposalStore, ledger Ledger, treasury *TreasuryState, reserve string) *TreasuryController {
	return &TreasuryController{
		store:    store,
		ledger:   ledger,
		treasury: treasury,
		reserve:  reserve,
	}
}

// Approve appends the caller to the proposal's approver sequence. Any
// address holding at least a tenth of the treasury allocation
// qualifies. Repeat calls by the same address append again; the
// sequence is deliberately not deduplicated.
func (c *TreasuryController) Approve(proposalID uint64, approver string) error {
	proposal, err := c.store.GetProposal(proposalID)
	if err != nil {
		return fmt.Errorf("failed to get proposal: %w", err)
	}
	if proposal == nil {
		return ErrProposalNotFound
	}

	scaled := new(big.Int).Mul(c.ledger.BalanceOf(approver), big.NewInt(10))
	if scaled.Cmp(c.treasury.Allocation) < 0 {
		return fmt.Errorf("%w: balance below 10%% of treasury allocation", ErrIneligibleVoter)
	}

	if err := c.store.AddApproval(proposalID, approver); err != nil {
		return fmt.Errorf("failed to record approval: %w", err)
	}
	return nil
}

// Approvals returns the approver sequence for a proposal.
func (c *TreasuryController) Approvals(proposalID uint64) ([]string, error) {
	return c.store.ListApprovals(proposalID)
}

// Disburse pays treasury funds to a recipient through the burn-wrapped
// transfer path and decrements the allocation. Nothing mutates if the
// transfer fails.
func (c *TreasuryController) Disburse(recipient string, amount *big.Int, transfer TransferFunc) error {
	if amount.Cmp(c.treasury.Allocation) > 0 {
		return fmt.Errorf("%w: amount exceeds treasury allocation", ErrInsufficientFunds)
	}
	if err := transfer(c.reserve, recipient, amount); err != nil {
		return fmt.Errorf("failed to disburse treasury funds: %w", err)
	}
	c.treasury.Allocation.Sub(c.treasury.Allocation, amount)
	return nil
}
