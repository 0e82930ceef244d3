package multisig

import (
	"fmt"
	"time"

	fterrors "fiattoken/core/errors"
	"fiattoken/crypto"
)

// Machine drives requests through create, approve, execute and remove. It
// does not know which accounts may act on a request; callers authorise the
// caller before invoking a transition. Approval never triggers execution.
type Machine struct {
	store *Store
}

// NewMachine constructs a state machine over store.
func NewMachine(store *Store) *Machine {
	return &Machine{store: store}
}

// Store exposes the backing store.
func (m *Machine) Store() *Store {
	return m.store
}

// Config returns the approval policy, failing before initialisation.
func (m *Machine) Config() (Config, error) {
	cfg, ok, err := m.store.Config()
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Config{}, fterrors.ErrNotInitialized
	}
	return cfg, nil
}

// Create stores a new request for action with an empty approval set. The
// proposer does not implicitly approve.
func (m *Machine) Create(action []byte, now time.Time) (*Request, error) {
	if _, err := m.Config(); err != nil {
		return nil, err
	}
	id, err := m.store.allocateID()
	if err != nil {
		return nil, err
	}
	req := &Request{
		ID:        id,
		Action:    append([]byte(nil), action...),
		Approvals: [][20]byte{},
		CreatedAt: now.UTC(),
	}
	if err := m.store.Put(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Load fetches a request, failing with ErrNotFound when it is absent.
func (m *Machine) Load(id uint32) (*Request, error) {
	req, ok, err := m.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: multisig request %d", fterrors.ErrNotFound, id)
	}
	return req, nil
}

// Approve records approver on req.
func (m *Machine) Approve(req *Request, approver [20]byte, now time.Time) error {
	cfg, err := m.Config()
	if err != nil {
		return err
	}
	if cfg.Expired(req.CreatedAt, now) {
		return fmt.Errorf("%w: multisig request %d created at %s cannot be approved by %s", fterrors.ErrRequestExpired, req.ID, req.CreatedAt.UTC().Format(time.RFC3339), crypto.AccountString(approver))
	}
	if req.ApprovedBy(approver) {
		return fmt.Errorf("%w: %s already approved multisig request %d", fterrors.ErrAlreadyApproved, crypto.AccountString(approver), req.ID)
	}
	req.Approvals = append(req.Approvals, approver)
	return m.store.Put(req)
}

// CheckExecutable verifies req is unexpired and has reached the threshold.
func (m *Machine) CheckExecutable(req *Request, now time.Time) error {
	cfg, err := m.Config()
	if err != nil {
		return err
	}
	if cfg.Expired(req.CreatedAt, now) {
		return fmt.Errorf("%w: multisig request %d created at %s", fterrors.ErrRequestExpired, req.ID, req.CreatedAt.UTC().Format(time.RFC3339))
	}
	if req.ApprovalCount() < cfg.ApprovalThreshold {
		return fmt.Errorf("multisig request %d: %w", req.ID, fterrors.InsufficientApprovals(req.ApprovalCount(), cfg.ApprovalThreshold))
	}
	return nil
}

// Complete consumes an executed request.
func (m *Machine) Complete(req *Request) error {
	return m.store.Delete(req.ID)
}

// Remove deletes req once it has expired. Requests that never expire can
// never be removed.
func (m *Machine) Remove(req *Request, now time.Time) error {
	cfg, err := m.Config()
	if err != nil {
		return err
	}
	if !cfg.Expired(req.CreatedAt, now) {
		return fmt.Errorf("multisig request %d: %w", req.ID, fterrors.ErrRequestStillValid)
	}
	return m.store.Delete(req.ID)
}

// Status reports the derived status of req.
func (m *Machine) Status(req *Request, now time.Time) (Status, error) {
	cfg, err := m.Config()
	if err != nil {
		return 0, err
	}
	return cfg.Status(req, now), nil
}
