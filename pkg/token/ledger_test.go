package token_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Viyale/KeeperCoin/pkg/token"
)

func TestLedgerMint(t *testing.T) {
	ledger := token.NewLedger()

	require.NoError(t, ledger.Mint("alice", big.NewInt(1000)))
	require.NoError(t, ledger.Mint("alice", big.NewInt(500)))

	assert.Equal(t, big.NewInt(1500), ledger.BalanceOf("alice"))
	assert.Equal(t, big.NewInt(1500), ledger.TotalSupply())
	assert.Equal(t, big.NewInt(0), ledger.BalanceOf("bob"))
}

func TestLedgerTransfer(t *testing.T) {
	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint("alice", big.NewInt(1000)))

	require.NoError(t, ledger.Transfer("alice", "bob", big.NewInt(400)))

	assert.Equal(t, big.NewInt(600), ledger.BalanceOf("alice"))
	assert.Equal(t, big.NewInt(400), ledger.BalanceOf("bob"))
	assert.Equal(t, big.NewInt(1000), ledger.TotalSupply())
}

func TestLedgerTransferInsufficientBalance(t *testing.T) {
	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint("alice", big.NewInt(100)))

	err := ledger.Transfer("alice", "bob", big.NewInt(101))
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)

	assert.Equal(t, big.NewInt(100), ledger.BalanceOf("alice"))
	assert.Equal(t, big.NewInt(0), ledger.BalanceOf("bob"))
}

func TestLedgerBurn(t *testing.T) {
	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint("alice", big.NewInt(1000)))

	require.NoError(t, ledger.Burn("alice", big.NewInt(300)))

	assert.Equal(t, big.NewInt(700), ledger.BalanceOf("alice"))
	assert.Equal(t, big.NewInt(700), ledger.TotalSupply())

	err := ledger.Burn("alice", big.NewInt(701))
	assert.ErrorIs(t, err, token.ErrInsufficientBalance)
	assert.Equal(t, big.NewInt(700), ledger.TotalSupply())
}

func TestLedgerBalanceCopyIsolation(t *testing.T) {
	ledger := token.NewLedger()
	require.NoError(t, ledger.Mint("alice", big.NewInt(1000)))

	balance := ledger.BalanceOf("alice")
	balance.SetInt64(0)

	assert.Equal(t, big.NewInt(1000), ledger.BalanceOf("alice"))

	supply := ledger.TotalSupply()
	supply.SetInt64(0)

	assert.Equal(t, big.NewInt(1000), ledger.TotalSupply())
}

func TestPauseSwitch(t *testing.T) {
	pauser := token.NewPauseSwitch()
	assert.False(t, pauser.Paused())

	pauser.Pause()
	assert.True(t, pauser.Paused())

	pauser.Unpause()
	assert.False(t, pauser.Paused())
}
