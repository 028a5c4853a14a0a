// Package domain holds the primitives shared by every ledger package.
//
// Principals, tokens and registries are identified by 20-byte addresses.
// Parse functions validate at trust boundaries so the rest of the code can
// work with typed values.
package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	dErrors "custody/pkg/domain-errors"
)

// Address identifies a principal, a token or a vesting registry.
// The zero address is the null identifier.
type Address = common.Address

// ZeroAddress is the null identifier.
var ZeroAddress = common.Address{}

// IsZero reports whether a is the null identifier.
func IsZero(a Address) bool {
	return a == ZeroAddress
}

// ParseAddress parses a hex address and rejects the null identifier.
func ParseAddress(s string) (Address, error) {
	a, err := ParseOptionalAddress(s)
	if err != nil {
		return Address{}, err
	}
	if IsZero(a) {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address cannot be zero")
	}
	return a, nil
}

// ParseOptionalAddress parses a hex address. An empty string yields the zero
// address so callers can express "not provided".
func ParseOptionalAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "invalid address format")
	}
	return common.HexToAddress(s), nil
}
