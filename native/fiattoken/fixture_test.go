package fiattoken

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"fiattoken/core/events"
	"fiattoken/core/state"
	"fiattoken/native/bank"
	"fiattoken/native/multisig"
	"fiattoken/storage"
	"fiattoken/storage/trie"
)

func acct(b byte) [20]byte {
	var out [20]byte
	out[0] = b
	out[19] = b
	return out
}

var (
	admin1      = acct(0xa1)
	admin2      = acct(0xa2)
	master1     = acct(0xb1)
	master2     = acct(0xb2)
	owner1      = acct(0xc1)
	owner2      = acct(0xc2)
	pauser1     = acct(0xd1)
	pauser2     = acct(0xd2)
	blocklister = acct(0xe1)
	controller1 = acct(0x11)
	controller2 = acct(0x12)
	controller3 = acct(0x13)
	minter1     = acct(0x21)
	minter2     = acct(0x22)
	alice       = acct(0x31)
	bob         = acct(0x32)
	carol       = acct(0x33)
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	engine   *Engine
	state    *state.Manager
	recorder *events.Recorder
	now      time.Time
}

func defaultGenesis() Genesis {
	return Genesis{
		Admins:        [][20]byte{admin1, admin2},
		MasterMinters: [][20]byte{master1, master2},
		Owners:        [][20]byte{owner1, owner2},
		Pausers:       [][20]byte{pauser1, pauser2},
		Blocklister:   blocklister,
		Metadata:      Metadata{Name: "USD Coin", Symbol: "USDC", Decimals: 6},
	}
}

func newUninitializedFixture(t *testing.T) *fixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tr, err := trie.NewTrie(db, nil)
	require.NoError(t, err)
	manager := state.NewManager(tr)

	f := &fixture{state: manager, recorder: &events.Recorder{}, now: epoch}
	f.engine = NewEngine()
	f.engine.SetState(manager)
	f.engine.SetBank(bank.NewLedger(manager))
	f.engine.SetEmitter(f.recorder)
	f.engine.SetNowFunc(func() time.Time { return f.now })
	return f
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newUninitializedFixture(t)
	require.NoError(t, f.engine.Init(defaultGenesis(), multisig.DefaultConfig()))
	f.recorder.Reset()
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// pass creates action as proposer, approves it with every approver and
// executes it as proposer.
func (f *fixture) pass(t *testing.T, action Action, proposer [20]byte, approvers ...[20]byte) uint32 {
	t.Helper()
	id, err := f.engine.CreateRequest(proposer, action)
	require.NoError(t, err)
	for _, approver := range approvers {
		require.NoError(t, f.engine.ApproveRequest(approver, id))
	}
	require.NoError(t, f.engine.ExecuteRequest(proposer, id))
	return id
}

// bindControllers wires controller1 and controller2 to minter1 and
// controller3 to minter2.
func (f *fixture) bindControllers(t *testing.T) {
	t.Helper()
	f.pass(t, ConfigureControllerAction(controller1, minter1), master1, master1, master2)
	f.pass(t, ConfigureControllerAction(controller2, minter1), master1, master1, master2)
	f.pass(t, ConfigureControllerAction(controller3, minter2), master2, master1, master2)
}

func amount(v uint64) *uint256.Int { return uint256.NewInt(v) }

func requireAmount(t *testing.T, want uint64, got *uint256.Int, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, got)
	if !got.Eq(uint256.NewInt(want)) {
		t.Fatalf("amount mismatch: want %d, got %s", want, got.Dec())
	}
}
