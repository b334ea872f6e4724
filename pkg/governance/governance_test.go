package governance_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Viyale/KeeperCoin/pkg/governance"
	"github.com/Viyale/KeeperCoin/pkg/governance/store"
	"github.com/Viyale/KeeperCoin/pkg/token"
)

const (
	developer = "dev-wallet"
	reserve   = "reserve"
	alice     = "alice"
	bob       = "bob"
	carol     = "carol"
	dave      = "dave"
	erin      = "erin"
)

var deployTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func tokens(n int64) *big.Int { return governance.Tokens(n) }

// fixture wires a service over the in-memory store with a manual clock
// and a compact voter population:
//
//	alice 200k  eligible treasury voter and approver
//	bob    20k  eligible treasury voter and approver
//	carol  10k  eligible treasury voter, approver at exactly 10%
//	dave    0.5k below every treasury threshold
//	erin    1.5k above the emergency quorum, below the funds quorum
type fixture struct {
	t        *testing.T
	ledger   *token.Ledger
	clock    *manualClock
	pauser   *token.PauseSwitch
	recorder *governance.Recorder
	params   *governance.Params
	service  *governance.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := token.NewLedger()
	clock := &manualClock{now: deployTime}
	pauser := token.NewPauseSwitch()
	recorder := governance.NewRecorder(256)

	params := governance.DefaultParams()
	params.AnnualBurnEnabled = false
	params.EmergencyQuorum = tokens(1_000)
	params.FundsQuorum = tokens(2_000)
	params.TreasuryMinVoters = 2

	treasuryAllocation := tokens(100_000)
	developerAllocation := tokens(500_000)
	require.NoError(t, ledger.Mint(reserve, new(big.Int).Add(treasuryAllocation, developerAllocation)))
	require.NoError(t, ledger.Mint(alice, tokens(200_000)))
	require.NoError(t, ledger.Mint(bob, tokens(20_000)))
	require.NoError(t, ledger.Mint(carol, tokens(10_000)))
	require.NoError(t, ledger.Mint(dave, tokens(500)))
	require.NoError(t, ledger.Mint(erin, tokens(1_500)))

	service, err := governance.NewService(ledger, clock, pauser, store.NewMemoryStore(), recorder, params, governance.ServiceConfig{
		Developer:           developer,
		Reserve:             reserve,
		TreasuryAllocation:  treasuryAllocation,
		TreasuryQuorum:      tokens(2_000),
		DeveloperAllocation: developerAllocation,
	})
	require.NoError(t, err)

	return &fixture{
		t:        t,
		ledger:   ledger,
		clock:    clock,
		pauser:   pauser,
		recorder: recorder,
		params:   params,
		service:  service,
	}
}

func (f *fixture) voteYes(id uint64, voters ...string) {
	f.t.Helper()
	for _, voter := range voters {
		require.NoError(f.t, f.service.Vote(id, voter, true))
	}
}

// execute advances past the voting window and timelock, then executes.
func (f *fixture) execute(id uint64) error {
	f.t.Helper()
	f.clock.Advance(governance.VotingPeriod + f.params.TimelockDelay + time.Minute)
	return f.service.Execute(id)
}

// pass runs the whole happy path: yes votes from the given voters,
// clock past the timelock, execute.
func (f *fixture) pass(id uint64, voters ...string) {
	f.t.Helper()
	f.voteYes(id, voters...)
	require.NoError(f.t, f.execute(id))
}

func (f *fixture) eventsOfKind(kind string) []governance.Event {
	var out []governance.Event
	for _, event := range f.recorder.Events() {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}
