package multisig

import (
	"fmt"
	"time"
)

// Status summarises where a stored request sits in its lifecycle.
type Status uint8

const (
	// StatusPending requests are still collecting approvals.
	StatusPending Status = iota
	// StatusApproved requests have reached the threshold and await execution.
	StatusApproved
	// StatusExpired requests can no longer be approved or executed and may be
	// removed.
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusExpired:
		return "expired"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// MarshalText renders the status name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Request is a proposed privileged action awaiting approvals. The action is
// an opaque encoded payload that never changes after creation.
type Request struct {
	ID        uint32
	Action    []byte
	Approvals [][20]byte
	CreatedAt time.Time
}

// ApprovedBy reports whether account already approved the request.
func (r *Request) ApprovedBy(account [20]byte) bool {
	for _, existing := range r.Approvals {
		if existing == account {
			return true
		}
	}
	return false
}

// ApprovalCount returns the number of distinct approvers.
func (r *Request) ApprovalCount() uint32 {
	return uint32(len(r.Approvals))
}

// Status derives the request status under cfg at now.
func (c Config) Status(r *Request, now time.Time) Status {
	switch {
	case c.Expired(r.CreatedAt, now):
		return StatusExpired
	case r.ApprovalCount() >= c.ApprovalThreshold:
		return StatusApproved
	default:
		return StatusPending
	}
}

type requestRecord struct {
	ID        uint32
	Action    []byte
	Approvals [][]byte
	CreatedAt uint64
}

func (r *Request) record() requestRecord {
	approvals := make([][]byte, len(r.Approvals))
	for i := range r.Approvals {
		approvals[i] = append([]byte(nil), r.Approvals[i][:]...)
	}
	return requestRecord{
		ID:        r.ID,
		Action:    append([]byte(nil), r.Action...),
		Approvals: approvals,
		CreatedAt: uint64(r.CreatedAt.UnixNano()),
	}
}

func (rec requestRecord) request() (*Request, error) {
	approvals := make([][20]byte, len(rec.Approvals))
	for i, raw := range rec.Approvals {
		if len(raw) != 20 {
			return nil, fmt.Errorf("multisig: request %d: corrupt approval entry", rec.ID)
		}
		copy(approvals[i][:], raw)
	}
	return &Request{
		ID:        rec.ID,
		Action:    append([]byte(nil), rec.Action...),
		Approvals: approvals,
		CreatedAt: time.Unix(0, int64(rec.CreatedAt)).UTC(),
	}, nil
}
