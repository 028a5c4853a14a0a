//go:build go1.18

package domain

import (
	"testing"
)

// FuzzParseAddress tests that parsing never panics on arbitrary input
// and always returns either a valid address or an error.
//
// Justification: Trust boundary functions must handle arbitrary input safely.
func FuzzParseAddress(f *testing.F) {
	f.Add("")
	f.Add("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	f.Add("0x0000000000000000000000000000000000000000")
	f.Add("5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	f.Add("'; DROP TABLE accounts;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		a, err := ParseAddress(input)
		if err != nil {
			return
		}
		if IsZero(a) {
			t.Error("parsed address must not be zero")
		}
		roundTrip, err := ParseAddress(a.Hex())
		if err != nil {
			t.Errorf("valid address failed round-trip: %v", err)
		}
		if roundTrip != a {
			t.Error("round-trip changed address value")
		}
	})
}

// FuzzParseAmount verifies accepted amounts are never negative.
func FuzzParseAmount(f *testing.F) {
	f.Add("0")
	f.Add("-0")
	f.Add("-1")
	f.Add("1e18")
	f.Add("0x10")
	f.Add("340282366920938463463374607431768211456")

	f.Fuzz(func(t *testing.T, input string) {
		v, err := ParseAmount(input)
		if err != nil {
			return
		}
		if v.Sign() < 0 {
			t.Errorf("negative amount accepted: %s", v)
		}
	})
}
