package store_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Viyale/KeeperCoin/pkg/governance"
	"github.com/Viyale/KeeperCoin/pkg/governance/store"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleProposal(id uint64, payload governance.Payload) *governance.Proposal {
	return &governance.Proposal{
		ID:           id,
		Type:         payload.Kind(),
		Payload:      payload,
		Proposer:     "alice",
		StartTime:    testStart,
		EndTime:      testStart.Add(governance.VotingPeriod),
		VotesFor:     big.NewInt(0),
		VotesAgainst: big.NewInt(0),
	}
}

func TestMemoryStoreProposals(t *testing.T) {
	s := store.NewMemoryStore()

	got, err := s.GetProposal(1)
	require.NoError(t, err)
	assert.Nil(t, got)

	saved := sampleProposal(1, governance.AnnualBurnRatePayload{Rate: 5})
	saved.VotesFor = governance.Tokens(100)
	require.NoError(t, s.SaveProposal(saved))

	got, err = s.GetProposal(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.Type, got.Type)
	assert.Equal(t, governance.Tokens(100), got.VotesFor)

	// The store hands out copies in both directions.
	saved.VotesFor.SetInt64(0)
	got.VotesAgainst.SetInt64(99)

	fresh, err := s.GetProposal(1)
	require.NoError(t, err)
	assert.Equal(t, governance.Tokens(100), fresh.VotesFor)
	assert.Zero(t, fresh.VotesAgainst.Sign())
}

func TestMemoryStoreListOrder(t *testing.T) {
	s := store.NewMemoryStore()
	for _, id := range []uint64{3, 1, 2} {
		require.NoError(t, s.SaveProposal(sampleProposal(id, governance.AnnualBurnPayload{Enable: true})))
	}

	proposals, err := s.ListProposals()
	require.NoError(t, err)
	require.Len(t, proposals, 3)
	for i, proposal := range proposals {
		assert.Equal(t, uint64(i+1), proposal.ID)
	}
}

func TestMemoryStoreLastProposalID(t *testing.T) {
	s := store.NewMemoryStore()

	last, err := s.LastProposalID()
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, s.SaveProposal(sampleProposal(7, governance.AnnualBurnPayload{Enable: true})))

	last, err = s.LastProposalID()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), last)
}

func TestMemoryStoreRecordVote(t *testing.T) {
	s := store.NewMemoryStore()

	voted, err := s.HasVoted(1, "alice")
	require.NoError(t, err)
	assert.False(t, voted)

	proposal := sampleProposal(1, governance.AnnualBurnPayload{Enable: true})
	proposal.VotesFor = governance.Tokens(10)
	require.NoError(t, s.RecordVote(proposal, "alice"))

	voted, err = s.HasVoted(1, "alice")
	require.NoError(t, err)
	assert.True(t, voted)

	got, err := s.GetProposal(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, governance.Tokens(10), got.VotesFor)

	voted, err = s.HasVoted(2, "alice")
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestMemoryStoreApprovals(t *testing.T) {
	s := store.NewMemoryStore()

	approvals, err := s.ListApprovals(1)
	require.NoError(t, err)
	assert.Empty(t, approvals)

	require.NoError(t, s.AddApproval(1, "carol"))
	require.NoError(t, s.AddApproval(1, "alice"))
	require.NoError(t, s.AddApproval(1, "carol"))

	approvals, err = s.ListApprovals(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice", "carol"}, approvals)
}
