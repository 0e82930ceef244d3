package fiattoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	fterrors "fiattoken/core/errors"
	"fiattoken/core/events"
	"fiattoken/crypto"
	nativecommon "fiattoken/native/common"
	"fiattoken/native/multisig"
	"fiattoken/native/rbac"
)

var errStateNotConfigured = errors.New("fiattoken: state not configured")

// State is the key-value surface every component of the engine persists
// through.
type State interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	KVAppend(key []byte, value []byte) error
	KVRemove(key []byte, value []byte) error
	KVGetList(key []byte, out interface{}) error
}

// Bank is the fungible balance ledger the engine delegates bookkeeping to.
type Bank interface {
	BalanceOf(account [20]byte) (*uint256.Int, error)
	TotalSupply() (*uint256.Int, error)
	Mint(account [20]byte, amount *uint256.Int) error
	Burn(account [20]byte, amount *uint256.Int) error
	Transfer(from, to [20]byte, amount *uint256.Int) error
}

// Engine implements the token's governance core: role checks, the minter
// allowance ledger, multisig requests and the actions they dispatch. Calls
// must be serialised by the host; the engine performs every check before its
// first write but relies on the host to discard partial writes when a
// collaborator fails midway.
type Engine struct {
	state    State
	roles    *rbac.Registry
	requests *multisig.Machine
	bank     Bank
	emitter  events.Emitter
	nowFn    func() time.Time
}

// NewEngine constructs an engine with default no-op dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetState wires the engine and its role registry and request store to the
// state backend.
func (e *Engine) SetState(state State) {
	e.state = state
	if state == nil {
		e.roles = nil
		e.requests = nil
		return
	}
	e.roles = rbac.NewRegistry(state)
	e.requests = multisig.NewMachine(multisig.NewStore(state))
}

// SetBank configures the balance ledger used by token operations.
func (e *Engine) SetBank(bank Bank) { e.bank = bank }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the clock used to stamp and expire requests. Nil
// restores the default UTC clock.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now == nil {
		e.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() time.Time {
	if e == nil || e.nowFn == nil {
		return time.Now().UTC()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errStateNotConfigured
	}
	return nil
}

func (e *Engine) readyBank() error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.bank == nil {
		return fmt.Errorf("fiattoken: bank not configured")
	}
	return nil
}

type settingsRecord struct {
	Paused             bool
	ApprovedForUpgrade bool
	Blocklister        []byte
}

func (e *Engine) loadSettings() (*settingsRecord, error) {
	var rec settingsRecord
	ok, err := e.state.KVGet(settingsKey(), &rec)
	if err != nil {
		return nil, fmt.Errorf("fiattoken: load settings: %w", err)
	}
	if !ok {
		return nil, fterrors.ErrNotInitialized
	}
	return &rec, nil
}

func (e *Engine) storeSettings(rec *settingsRecord) error {
	if err := e.state.KVPut(settingsKey(), rec); err != nil {
		return fmt.Errorf("fiattoken: persist settings: %w", err)
	}
	return nil
}

// Genesis lists the initial role holders and the token metadata.
type Genesis struct {
	Admins        [][20]byte
	MasterMinters [][20]byte
	Owners        [][20]byte
	Pausers       [][20]byte
	Blocklister   [20]byte
	Metadata      Metadata
}

// Init seeds roles and the approval policy. It may run only once.
func (e *Engine) Init(genesis Genesis, cfg multisig.Config) error {
	if err := e.ready(); err != nil {
		return err
	}
	if ok, err := e.state.KVGet(settingsKey(), nil); err != nil {
		return err
	} else if ok {
		return fterrors.ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	meta := genesis.Metadata
	if err := meta.Validate(); err != nil {
		return err
	}
	if _, err := e.roles.EnsureCatalog(rbac.Catalog); err != nil {
		return err
	}
	if err := e.requests.Store().PutConfig(cfg); err != nil {
		return err
	}
	if err := e.state.KVPut(metadataKey(), meta); err != nil {
		return fmt.Errorf("fiattoken: persist metadata: %w", err)
	}
	groups := []struct {
		role     rbac.Role
		accounts [][20]byte
	}{
		{rbac.RoleAdmin, genesis.Admins},
		{rbac.RoleMasterMinter, genesis.MasterMinters},
		{rbac.RoleOwner, genesis.Owners},
		{rbac.RolePauser, genesis.Pausers},
	}
	for _, group := range groups {
		for _, account := range group.accounts {
			if err := e.grantGovernance(account, group.role); err != nil {
				return err
			}
		}
	}
	if _, err := e.roles.Grant(genesis.Blocklister, rbac.RoleBlocklister); err != nil {
		return err
	}
	return e.storeSettings(&settingsRecord{Blocklister: append([]byte(nil), genesis.Blocklister[:]...)})
}

// Initialized reports whether Init has completed.
func (e *Engine) Initialized() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	return e.state.KVGet(settingsKey(), nil)
}

// EnsureRoleCatalog verifies that persisted role bitmaps still decode with
// the compiled role list and records newly appended roles.
func (e *Engine) EnsureRoleCatalog() error {
	if err := e.ready(); err != nil {
		return err
	}
	_, err := e.roles.EnsureCatalog(rbac.Catalog)
	return err
}

// Config returns the approval policy.
func (e *Engine) Config() (multisig.Config, error) {
	if err := e.ready(); err != nil {
		return multisig.Config{}, err
	}
	return e.requests.Config()
}

// --- authorization guards ---

func (e *Engine) requireRole(caller [20]byte, role rbac.Role) error {
	has, err := e.roles.Has(caller, role)
	if err != nil {
		return err
	}
	if !has {
		return fmt.Errorf("%w: %s is not a %s", fterrors.ErrUnauthorized, crypto.AccountString(caller), role)
	}
	return nil
}

func (e *Engine) requireNotBlocklisted(account [20]byte) error {
	blocked, err := e.roles.Has(account, rbac.RoleBlocklisted)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("%w: %s", fterrors.ErrBlocklisted, crypto.AccountString(account))
	}
	return nil
}

func (e *Engine) requireNotPaused() error {
	return nativecommon.Guard(e)
}

// Paused implements common.PauseView.
func (e *Engine) Paused() (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	settings, err := e.loadSettings()
	if err != nil {
		return false, err
	}
	return settings.Paused, nil
}
