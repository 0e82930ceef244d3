package errors

import stderrors "errors"

type kindEntry struct {
	err  error
	kind string
}

// Ordered so that the more specific sentinel wins when errors wrap others.
var kinds = []kindEntry{
	{ErrUnauthorized, "unauthorized"},
	{ErrBlocklisted, "blocklisted"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrOverflow, "overflow"},
	{ErrUnderflow, "underflow"},
	{ErrExceedsAllowance, "exceeds_allowance"},
	{ErrInsufficientBalance, "insufficient_balance"},
	{ErrNotFound, "not_found"},
	{ErrAlreadyApproved, "already_approved"},
	{ErrRequestExpired, "request_expired"},
	{ErrInsufficientApprovals, "insufficient_approvals"},
	{ErrRequestStillValid, "request_still_valid"},
	{ErrRemovalNotAllowed, "removal_not_allowed"},
	{ErrWrongController, "wrong_controller"},
	{ErrInvalidRoleGrant, "invalid_role_grant"},
	{ErrPaused, "paused"},
	{ErrNotPaused, "not_paused"},
	{ErrNotApprovedForUpgrade, "not_approved_for_upgrade"},
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrNotInitialized, "not_initialized"},
	{ErrRoleCatalogMismatch, "role_catalog_mismatch"},
	{ErrUnknownMethod, "unknown_method"},
	{ErrInvalidArguments, "invalid_arguments"},
}

// Kind returns a stable snake_case label for err. Nil maps to the empty
// string and unrecognised errors to "internal".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kinds {
		if stderrors.Is(err, entry.err) {
			return entry.kind
		}
	}
	return "internal"
}
