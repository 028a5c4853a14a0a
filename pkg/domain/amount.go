package domain

import (
	"math/big"
	"strings"

	dErrors "custody/pkg/domain-errors"
)

// ParseAmount parses a non-negative base-10 token amount.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount is required")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid amount format")
	}
	if v.Sign() < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount cannot be negative")
	}
	return v, nil
}

// CopyAmount returns a fresh copy of v, treating nil as zero.
func CopyAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

// FormatAmount renders v in base 10, treating nil as zero.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
