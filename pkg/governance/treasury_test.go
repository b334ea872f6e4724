package governance_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Viyale/KeeperCoin/pkg/governance"
)

func TestApproveUnknownProposal(t *testing.T) {
	f := newFixture(t)

	err := f.service.Approve(42, alice)
	assert.ErrorIs(t, err, governance.ErrProposalNotFound)
}

func TestApproveEligibility(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTreasurySpending(alice, "grantee", tokens(1_000))
	require.NoError(t, err)

	err = f.service.Approve(id, dave)
	assert.ErrorIs(t, err, governance.ErrIneligibleVoter)

	// carol holds exactly 10% of the allocation, which qualifies.
	assert.NoError(t, f.service.Approve(id, carol))
}

func TestApprovalsAreNotDeduplicated(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTreasurySpending(alice, "grantee", tokens(1_000))
	require.NoError(t, err)

	require.NoError(t, f.service.Approve(id, carol))
	require.NoError(t, f.service.Approve(id, alice))
	require.NoError(t, f.service.Approve(id, carol))

	approvals, err := f.service.Approvals(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice", "carol"}, approvals)
}

func TestTreasurySpendingLifecycle(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTreasurySpending(alice, "grantee", tokens(1_000))
	require.NoError(t, err)

	require.NoError(t, f.service.Approve(id, alice))
	require.NoError(t, f.service.Approve(id, bob))
	require.NoError(t, f.service.Approve(id, carol))

	reserveBefore := f.ledger.BalanceOf(reserve)
	f.pass(id, alice, bob, carol)

	// The reserve holds well over the top burn tier, so the dynamic
	// burn takes one per mille off the disbursement.
	assert.Equal(t, tokens(999), f.ledger.BalanceOf("grantee"))
	assert.Equal(t, new(big.Int).Sub(reserveBefore, tokens(1_000)), f.ledger.BalanceOf(reserve))
	assert.Equal(t, tokens(99_000), f.service.Treasury().Allocation)
}

func TestTreasurySpendingNeedsApprovals(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTreasurySpending(alice, "grantee", tokens(1_000))
	require.NoError(t, err)

	require.NoError(t, f.service.Approve(id, alice))
	require.NoError(t, f.service.Approve(id, bob))

	f.voteYes(id, alice, bob, carol)
	err = f.execute(id)
	assert.ErrorIs(t, err, governance.ErrQuorumNotMet)

	assert.Zero(t, f.ledger.BalanceOf("grantee").Sign())
	assert.Equal(t, tokens(100_000), f.service.Treasury().Allocation)
}

func TestTreasurySpendingQuorum(t *testing.T) {
	f := newFixture(t)
	f.params.EmergencyQuorum = tokens(100)
	f.params.FundsQuorum = tokens(100)

	id, err := f.service.ProposeTreasurySpending(alice, "grantee", tokens(1_000))
	require.NoError(t, err)

	require.NoError(t, f.service.Approve(id, alice))
	require.NoError(t, f.service.Approve(id, bob))
	require.NoError(t, f.service.Approve(id, carol))

	// bob and carol together carry 300 weight, below the 2k treasury
	// quorum even though every other gate passes.
	f.voteYes(id, bob, carol)
	err = f.execute(id)
	assert.ErrorIs(t, err, governance.ErrQuorumNotMet)
}

func TestRepeatApproverSatisfiesMultiSig(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTreasurySpending(alice, "grantee", tokens(1_000))
	require.NoError(t, err)

	// The approver sequence counts entries, not distinct addresses.
	require.NoError(t, f.service.Approve(id, carol))
	require.NoError(t, f.service.Approve(id, carol))
	require.NoError(t, f.service.Approve(id, carol))

	f.pass(id, alice, bob, carol)
	assert.Equal(t, tokens(999), f.ledger.BalanceOf("grantee"))
}
