package models

import (
	"time"

	"custody/pkg/domain"
)

// Settings is the ledger's global configuration.
type Settings struct {
	// WaitedTS is the unix timestamp, in seconds, from which waited-unlocked
	// balances may be withdrawn. Always non-zero.
	WaitedTS        uint64
	Token           domain.Address
	VestingRegistry domain.Address
}

// WaitElapsed reports whether now has reached the wait threshold.
func (s Settings) WaitElapsed(now time.Time) bool {
	n := now.Unix()
	if n < 0 {
		return false
	}
	return uint64(n) >= s.WaitedTS
}

// Params are the ledger construction parameters.
type Params struct {
	WaitedTS        uint64
	Token           domain.Address
	VestingRegistry domain.Address
	Admins          []domain.Address
}

// Validate enforces the construction invariants: threshold non-zero, token
// and registry non-null, at least one admin and every admin non-null.
func (p Params) Validate() error {
	if p.WaitedTS == 0 {
		return Fail(ErrZeroThreshold)
	}
	if domain.IsZero(p.Token) {
		return FailMsg(ErrInvalidAddress, MsgInvalidToken)
	}
	if domain.IsZero(p.VestingRegistry) {
		return FailMsg(ErrInvalidAddress, MsgInvalidVestingRegistry)
	}
	if len(p.Admins) == 0 {
		return Fail(ErrNoAdmins)
	}
	for _, a := range p.Admins {
		if domain.IsZero(a) {
			return Fail(ErrInvalidAddress)
		}
	}
	return nil
}

// Settings returns the configuration part of the parameters.
func (p Params) Settings() Settings {
	return Settings{
		WaitedTS:        p.WaitedTS,
		Token:           p.Token,
		VestingRegistry: p.VestingRegistry,
	}
}
