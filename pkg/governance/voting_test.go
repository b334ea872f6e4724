package governance_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Viyale/KeeperCoin/pkg/governance"
)

func TestVoteUnknownProposal(t *testing.T) {
	f := newFixture(t)

	err := f.service.Vote(42, alice, true)
	assert.ErrorIs(t, err, governance.ErrProposalNotFound)
}

func TestVoteWindow(t *testing.T) {
	t.Run("closes after the voting period", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.service.ProposeAnnualBurn(alice, true)
		require.NoError(t, err)

		f.clock.Advance(governance.VotingPeriod + time.Second)
		err = f.service.Vote(id, alice, true)
		assert.ErrorIs(t, err, governance.ErrVotingWindow)
	})

	t.Run("accepts a vote at the deadline", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.service.ProposeAnnualBurn(alice, true)
		require.NoError(t, err)

		f.clock.Advance(governance.VotingPeriod)
		assert.NoError(t, f.service.Vote(id, alice, true))
	})
}

func TestDuplicateVote(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeAnnualBurn(alice, true)
	require.NoError(t, err)

	require.NoError(t, f.service.Vote(id, alice, true))
	err = f.service.Vote(id, alice, false)
	assert.ErrorIs(t, err, governance.ErrDuplicateVote)

	proposal, err := f.service.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, tokens(200_000), proposal.VotesFor)
	assert.Zero(t, proposal.VotesAgainst.Sign())
}

func TestOrdinaryVoteWeighsFullBalance(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTransferFeeRate(alice, 5)
	require.NoError(t, err)

	require.NoError(t, f.service.Vote(id, alice, true))
	require.NoError(t, f.service.Vote(id, bob, false))

	proposal, err := f.service.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, tokens(200_000), proposal.VotesFor)
	assert.Equal(t, tokens(20_000), proposal.VotesAgainst)
	assert.Equal(t, 0, proposal.UniqueVoters)
}

func TestVotingFee(t *testing.T) {
	t.Run("burned from the voter", func(t *testing.T) {
		f := newFixture(t)
		f.params.VotingFee = tokens(10)

		id, err := f.service.ProposeAnnualBurn(alice, true)
		require.NoError(t, err)

		supplyBefore := f.ledger.TotalSupply()
		require.NoError(t, f.service.Vote(id, bob, true))

		assert.Equal(t, tokens(19_990), f.ledger.BalanceOf(bob))
		assert.Equal(t, new(big.Int).Sub(supplyBefore, tokens(10)), f.ledger.TotalSupply())

		// The weight is the balance before the fee burn.
		proposal, err := f.service.GetProposal(id)
		require.NoError(t, err)
		assert.Equal(t, tokens(20_000), proposal.VotesFor)
	})

	t.Run("voter below the fee is turned away untouched", func(t *testing.T) {
		f := newFixture(t)
		f.params.VotingFee = tokens(1_000)

		id, err := f.service.ProposeAnnualBurn(alice, true)
		require.NoError(t, err)

		err = f.service.Vote(id, dave, true)
		assert.ErrorIs(t, err, governance.ErrIneligibleVoter)
		assert.Equal(t, tokens(500), f.ledger.BalanceOf(dave))

		// The failed attempt left no vote record behind.
		f.params.VotingFee = tokens(100)
		assert.NoError(t, f.service.Vote(id, dave, true))
	})
}

func TestTreasuryVoteEligibility(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTreasuryVoteWeight(alice, 200)
	require.NoError(t, err)

	// dave holds well under 5% of the treasury allocation.
	err = f.service.Vote(id, dave, true)
	assert.ErrorIs(t, err, governance.ErrIneligibleVoter)

	proposal, err := f.service.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, 0, proposal.UniqueVoters)
	assert.Zero(t, proposal.TotalVotes().Sign())
}

func TestTreasuryVoteWeight(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeTreasuryVoteWeight(alice, 200)
	require.NoError(t, err)

	// Weight is 1% of the balance at the default rate.
	require.NoError(t, f.service.Vote(id, alice, true))
	require.NoError(t, f.service.Vote(id, carol, true))

	proposal, err := f.service.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, tokens(2_100), proposal.VotesFor)
	assert.Equal(t, 2, proposal.UniqueVoters)
}

func TestTreasuryVoteWeightCap(t *testing.T) {
	f := newFixture(t)
	f.params.TreasuryVoteWeightRate = 10_000 // 100% of balance

	id, err := f.service.ProposeTreasuryParticipation(alice, 1, tokens(5_000))
	require.NoError(t, err)

	require.NoError(t, f.service.Vote(id, alice, true))

	proposal, err := f.service.GetProposal(id)
	require.NoError(t, err)
	assert.Equal(t, f.params.TreasuryMaxVoteWeight, proposal.VotesFor)
}

func TestVoteEmitsEvent(t *testing.T) {
	f := newFixture(t)
	id, err := f.service.ProposeAnnualBurn(alice, true)
	require.NoError(t, err)
	require.NoError(t, f.service.Vote(id, bob, false))

	events := f.eventsOfKind(governance.EventVoteCast)
	require.Len(t, events, 1)
	cast, ok := events[0].Payload.(governance.VoteCast)
	require.True(t, ok)
	assert.Equal(t, id, cast.ProposalID)
	assert.Equal(t, bob, cast.Voter)
	assert.False(t, cast.Support)
	assert.Equal(t, tokens(20_000), cast.Weight)
}
