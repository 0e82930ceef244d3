package errors

import (
	stderrors "errors"
	"fmt"
)

// Authorization failures.
var (
	ErrUnauthorized = stderrors.New("fiattoken: unauthorized")
	ErrBlocklisted  = stderrors.New("fiattoken: account blocklisted")
)

// Amount and allowance failures.
var (
	ErrInvalidAmount       = stderrors.New("fiattoken: invalid amount")
	ErrOverflow            = stderrors.New("fiattoken: arithmetic overflow")
	ErrUnderflow           = stderrors.New("fiattoken: arithmetic underflow")
	ErrExceedsAllowance    = stderrors.New("fiattoken: amount exceeds allowance")
	ErrInsufficientBalance = stderrors.New("fiattoken: insufficient balance")
)

// Multisig request failures.
var (
	ErrNotFound              = stderrors.New("fiattoken: not found")
	ErrAlreadyApproved       = stderrors.New("fiattoken: request already approved by account")
	ErrRequestExpired        = stderrors.New("fiattoken: request expired")
	ErrInsufficientApprovals = stderrors.New("fiattoken: insufficient approvals")
	ErrRemovalNotAllowed     = stderrors.New("fiattoken: removal not allowed")
	ErrRequestStillValid     = fmt.Errorf("%w: request still valid", ErrRemovalNotAllowed)
	ErrWrongController       = stderrors.New("fiattoken: wrong controller")
	ErrInvalidRoleGrant      = stderrors.New("fiattoken: invalid role grant")
)

// Call failures raised by the runtime before the engine runs.
var (
	ErrUnknownMethod    = stderrors.New("fiattoken: unknown method")
	ErrInvalidArguments = stderrors.New("fiattoken: invalid arguments")
)

// Lifecycle failures.
var (
	ErrPaused                = stderrors.New("fiattoken: paused")
	ErrNotPaused             = stderrors.New("fiattoken: not paused")
	ErrNotApprovedForUpgrade = stderrors.New("fiattoken: upgrade not approved")
	ErrAlreadyInitialized    = stderrors.New("fiattoken: already initialized")
	ErrNotInitialized        = stderrors.New("fiattoken: not initialized")
	ErrRoleCatalogMismatch   = stderrors.New("fiattoken: role catalog mismatch")
)

// InsufficientApprovalsError reports how far a request is from its approval
// threshold. It matches ErrInsufficientApprovals under errors.Is.
type InsufficientApprovalsError struct {
	Current  uint32
	Required uint32
}

func (e *InsufficientApprovalsError) Error() string {
	return fmt.Sprintf("%s: current %d, required %d", ErrInsufficientApprovals.Error(), e.Current, e.Required)
}

// Is lets errors.Is match the sentinel.
func (e *InsufficientApprovalsError) Is(target error) bool {
	return target == ErrInsufficientApprovals
}

// InsufficientApprovals constructs the typed approvals error.
func InsufficientApprovals(current, required uint32) error {
	return &InsufficientApprovalsError{Current: current, Required: required}
}
