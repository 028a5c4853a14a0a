// Package vesting provides an in-process vesting registry and a redis cache
// for the handles it hands out.
package vesting

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"

	"custody/internal/ledger/adapters/token"
	"custody/pkg/domain"
)

var (
	ErrUnknownHandle = errors.New("unknown vesting handle")
	ErrUnknownOwner  = errors.New("no vesting schedule for owner")
)

// Schedule is one vesting schedule created by a registry.
type Schedule struct {
	Handle   domain.Address
	Registry domain.Address
	Owner    domain.Address
	Cliff    time.Duration
	Duration time.Duration
	Staked   *big.Int
}

type scheduleKey struct {
	registry domain.Address
	owner    domain.Address
	cliff    time.Duration
	duration time.Duration
}

// Registry keeps vesting schedules for any number of registry identifiers.
// Staking pulls funds from the funder account of the token ledger, so the
// funder must approve the handle first.
type Registry struct {
	mu        sync.Mutex
	ledger    *token.Ledger
	funder    domain.Address
	schedules map[scheduleKey]*Schedule
	byHandle  map[domain.Address]*Schedule
}

func NewRegistry(ledger *token.Ledger, funder domain.Address) *Registry {
	return &Registry{
		ledger:    ledger,
		funder:    funder,
		schedules: make(map[scheduleKey]*Schedule),
		byHandle:  make(map[domain.Address]*Schedule),
	}
}

// GetOrCreateVesting returns the handle for (registry, owner, cliff, duration),
// creating the schedule on first use. Handles are deterministic.
func (r *Registry) GetOrCreateVesting(_ context.Context, registry, owner domain.Address, cliff, duration time.Duration) (domain.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scheduleKey{registry: registry, owner: owner, cliff: cliff, duration: duration}
	if s, ok := r.schedules[key]; ok {
		return s.Handle, nil
	}
	s := &Schedule{
		Handle:   DeriveHandle(registry, owner, cliff, duration),
		Registry: registry,
		Owner:    owner,
		Cliff:    cliff,
		Duration: duration,
		Staked:   new(big.Int),
	}
	r.schedules[key] = s
	r.byHandle[s.Handle] = s
	return s.Handle, nil
}

// Stake pulls amount from the funder into the schedule's handle.
func (r *Registry) Stake(_ context.Context, handle domain.Address, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byHandle[handle]
	if !ok {
		return fmt.Errorf("stake into %s: %w", handle.Hex(), ErrUnknownHandle)
	}
	if err := r.ledger.TransferFrom(handle, r.funder, handle, amount); err != nil {
		return fmt.Errorf("stake into %s: %w", handle.Hex(), err)
	}
	s.Staked.Add(s.Staked, amount)
	return nil
}

// Schedule returns a copy of the schedule behind handle.
func (r *Registry) Schedule(handle domain.Address) (Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byHandle[handle]
	if !ok {
		return Schedule{}, ErrUnknownHandle
	}
	out := *s
	out.Staked = domain.CopyAmount(s.Staked)
	return out, nil
}

// DeriveHandle computes the schedule address as the last 20 bytes of
// keccak256(registry || owner || cliff seconds || duration seconds).
func DeriveHandle(registry, owner domain.Address, cliff, duration time.Duration) domain.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write(registry.Bytes())
	h.Write(owner.Bytes())
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(cliff/time.Second))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(duration/time.Second))
	h.Write(buf[:])
	return common.BytesToAddress(h.Sum(nil)[12:])
}
