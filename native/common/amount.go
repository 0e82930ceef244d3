package common

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	fterrors "fiattoken/core/errors"
)

// MaxU128 is the largest representable token amount.
var MaxU128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

// Zero returns a fresh zero amount.
func Zero() *uint256.Int { return new(uint256.Int) }

// CopyAmount returns a copy of v, treating nil as zero.
func CopyAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// CheckedAdd returns a+b or ErrOverflow when the sum leaves the u128 range.
func CheckedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(CopyAmount(a), CopyAmount(b))
	if overflow || sum.Gt(MaxU128) {
		return nil, fmt.Errorf("%w: %s + %s", fterrors.ErrOverflow, CopyAmount(a).Dec(), CopyAmount(b).Dec())
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrUnderflow when b exceeds a.
func CheckedSub(a, b *uint256.Int) (*uint256.Int, error) {
	left, right := CopyAmount(a), CopyAmount(b)
	if right.Gt(left) {
		return nil, fmt.Errorf("%w: %s - %s", fterrors.ErrUnderflow, left.Dec(), right.Dec())
	}
	return new(uint256.Int).Sub(left, right), nil
}

// RequirePositive fails with ErrInvalidAmount unless v > 0.
func RequirePositive(v *uint256.Int) error {
	if v == nil || v.IsZero() {
		return fmt.Errorf("%w: amount must be greater than zero", fterrors.ErrInvalidAmount)
	}
	return nil
}

// ParseAmount parses a base-10 u128 amount.
func ParseAmount(value string) (*uint256.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: amount must not be empty", fterrors.ErrInvalidAmount)
	}
	parsed, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %q: %v", fterrors.ErrInvalidAmount, value, err)
	}
	if parsed.Gt(MaxU128) {
		return nil, fmt.Errorf("%w: %s exceeds u128", fterrors.ErrOverflow, trimmed)
	}
	return parsed, nil
}
