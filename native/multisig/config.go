package multisig

import (
	"fmt"
	"time"
)

const (
	// DefaultApprovalThreshold is the number of distinct approvals required
	// before a request can execute.
	DefaultApprovalThreshold uint32 = 2
	// DefaultValidityPeriod bounds how long a request may collect approvals.
	DefaultValidityPeriod = 5 * 24 * time.Hour
)

// Config captures the approval policy fixed at initialisation. A zero
// ValidityPeriod means requests never expire and therefore can never be
// removed.
type Config struct {
	ApprovalThreshold uint32
	ValidityPeriod    time.Duration
}

// DefaultConfig returns the initialisation defaults.
func DefaultConfig() Config {
	return Config{ApprovalThreshold: DefaultApprovalThreshold, ValidityPeriod: DefaultValidityPeriod}
}

// Validate rejects configurations that could never execute a request.
func (c Config) Validate() error {
	if c.ApprovalThreshold == 0 {
		return fmt.Errorf("multisig: approval threshold must be positive")
	}
	if c.ValidityPeriod < 0 {
		return fmt.Errorf("multisig: validity period must not be negative")
	}
	return nil
}

// Expired reports whether a request created at createdAt is past its
// validity window at now. The boundary instant is still valid.
func (c Config) Expired(createdAt, now time.Time) bool {
	if c.ValidityPeriod == 0 {
		return false
	}
	return now.Sub(createdAt) > c.ValidityPeriod
}

type configRecord struct {
	ApprovalThreshold uint32
	ValidityNanos     uint64
}

func (c Config) record() configRecord {
	return configRecord{ApprovalThreshold: c.ApprovalThreshold, ValidityNanos: uint64(c.ValidityPeriod)}
}

func (r configRecord) config() Config {
	return Config{ApprovalThreshold: r.ApprovalThreshold, ValidityPeriod: time.Duration(r.ValidityNanos)}
}
