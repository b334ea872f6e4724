package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Viyale/KeeperCoin/pkg/governance"
	"github.com/Viyale/KeeperCoin/pkg/governance/store"
)

func openSQLite(t *testing.T) (*store.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "governance.db")
	s, err := store.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, _ := openSQLite(t)

	got, err := s.GetProposal(1)
	require.NoError(t, err)
	assert.Nil(t, got)

	saved := sampleProposal(1, governance.DeveloperWithdrawalPayload{Amount: governance.Tokens(10_000)})
	saved.VotesFor = governance.Tokens(250_000)
	saved.VotesAgainst = governance.Tokens(3)
	saved.Executed = true
	require.NoError(t, s.SaveProposal(saved))

	got, err = s.GetProposal(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, governance.ProposalTypeDeveloperWithdrawal, got.Type)
	assert.Equal(t, "alice", got.Proposer)
	assert.True(t, saved.StartTime.Equal(got.StartTime))
	assert.True(t, saved.EndTime.Equal(got.EndTime))
	assert.Equal(t, governance.Tokens(250_000), got.VotesFor)
	assert.Equal(t, governance.Tokens(3), got.VotesAgainst)
	assert.True(t, got.Executed)

	payload, ok := got.Payload.(governance.DeveloperWithdrawalPayload)
	require.True(t, ok)
	assert.Equal(t, governance.Tokens(10_000), payload.Amount)
}

func TestSQLiteStoreSaveIsUpsert(t *testing.T) {
	s, _ := openSQLite(t)

	proposal := sampleProposal(1, governance.EmergencyControlPayload{Pause: true})
	require.NoError(t, s.SaveProposal(proposal))

	proposal.VotesFor = governance.Tokens(42)
	proposal.UniqueVoters = 3
	require.NoError(t, s.SaveProposal(proposal))

	got, err := s.GetProposal(1)
	require.NoError(t, err)
	assert.Equal(t, governance.Tokens(42), got.VotesFor)
	assert.Equal(t, 3, got.UniqueVoters)

	proposals, err := s.ListProposals()
	require.NoError(t, err)
	assert.Len(t, proposals, 1)
}

func TestSQLitePayloadKinds(t *testing.T) {
	s, _ := openSQLite(t)

	payloads := []governance.Payload{
		governance.AnnualBurnPayload{Enable: true},
		governance.AnnualBurnRatePayload{Rate: 3},
		governance.DeveloperWithdrawalPayload{Amount: governance.Tokens(1)},
		governance.WithdrawalLimitPayload{Limit: governance.Tokens(2)},
		governance.WithdrawalBurnPayload{Percent: 15},
		governance.TransferFeeRatePayload{Rate: 4},
		governance.EmergencyControlPayload{Pause: true},
		governance.VotingFeePayload{Fee: governance.Tokens(3)},
		governance.EmergencyThresholdPayload{Threshold: governance.Tokens(4)},
		governance.DynamicBurnParamsPayload{
			Tier1: governance.Tokens(9), Tier2: governance.Tokens(8), Tier3: governance.Tokens(7),
			MinRate: 1, MidRate: 2, MaxRate: 3,
		},
		governance.TreasurySpendingPayload{Recipient: "grantee", Amount: governance.Tokens(5)},
		governance.TreasuryAllocationPayload{Allocation: governance.Tokens(6), Quorum: governance.Tokens(5)},
		governance.TreasuryVoteWeightPayload{RateBP: 150},
		governance.TimelockDelayPayload{Delay: 36 * time.Hour},
		governance.TreasuryParticipationPayload{MinVoters: 4, MaxWeight: governance.Tokens(7)},
	}

	for i, payload := range payloads {
		require.NoError(t, s.SaveProposal(sampleProposal(uint64(i+1), payload)))
	}
	for i, payload := range payloads {
		got, err := s.GetProposal(uint64(i + 1))
		require.NoError(t, err)
		require.NotNil(t, got, "proposal %d", i+1)
		assert.Equal(t, payload.Kind(), got.Type)
		assert.Equal(t, payload, got.Payload)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	s, path := openSQLite(t)

	proposal := sampleProposal(3, governance.TimelockDelayPayload{Delay: 12 * time.Hour})
	require.NoError(t, s.SaveProposal(proposal))
	require.NoError(t, s.RecordVote(proposal, "alice"))
	require.NoError(t, s.AddApproval(3, "carol"))
	require.NoError(t, s.AddApproval(3, "carol"))
	require.NoError(t, s.Close())

	reopened, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	last, err := reopened.LastProposalID()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)

	got, err := reopened.GetProposal(3)
	require.NoError(t, err)
	require.NotNil(t, got)
	payload, ok := got.Payload.(governance.TimelockDelayPayload)
	require.True(t, ok)
	assert.Equal(t, 12*time.Hour, payload.Delay)

	voted, err := reopened.HasVoted(3, "alice")
	require.NoError(t, err)
	assert.True(t, voted)

	approvals, err := reopened.ListApprovals(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "carol"}, approvals)
}

func TestSQLiteStoreRecordVote(t *testing.T) {
	s, _ := openSQLite(t)

	voted, err := s.HasVoted(1, "alice")
	require.NoError(t, err)
	assert.False(t, voted)

	proposal := sampleProposal(1, governance.VotingFeePayload{Fee: governance.Tokens(1)})
	proposal.VotesFor = governance.Tokens(42)
	require.NoError(t, s.RecordVote(proposal, "alice"))
	require.NoError(t, s.RecordVote(proposal, "alice"))

	voted, err = s.HasVoted(1, "alice")
	require.NoError(t, err)
	assert.True(t, voted)

	got, err := s.GetProposal(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, governance.Tokens(42), got.VotesFor)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := store.OpenSQLite("")
	assert.Error(t, err)
}
