// Package token provides an in-process ERC20-style balance book and the
// custody adapter the ledger service moves funds through.
package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"custody/pkg/domain"
)

var (
	ErrInsufficientBalance   = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("transfer amount exceeds allowance")
	ErrNegativeAmount        = errors.New("amount cannot be negative")
)

// Ledger tracks balances and allowances of one token. Every transfer is
// all-or-nothing.
type Ledger struct {
	mu         sync.Mutex
	balances   map[domain.Address]*big.Int
	allowances map[domain.Address]map[domain.Address]*big.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[domain.Address]*big.Int),
		allowances: make(map[domain.Address]map[domain.Address]*big.Int),
	}
}

// Mint credits amount to an account.
func (l *Ledger) Mint(to domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(to, amount)
	return nil
}

func (l *Ledger) BalanceOf(account domain.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.CopyAmount(l.balances[account])
}

func (l *Ledger) Allowance(owner, spender domain.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return domain.CopyAmount(l.allowances[owner][spender])
}

// Approve sets, not adds to, spender's allowance over owner's balance.
func (l *Ledger) Approve(owner, spender domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[domain.Address]*big.Int)
	}
	l.allowances[owner][spender] = domain.CopyAmount(amount)
	return nil
}

func (l *Ledger) Transfer(from, to domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves funds on owner's behalf, consuming spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := domain.CopyAmount(l.allowances[from][spender])
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%s spending for %s: %w", spender.Hex(), from.Hex(), ErrInsufficientAllowance)
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][spender] = allowed.Sub(allowed, amount)
	return nil
}

func (l *Ledger) move(from, to domain.Address, amount *big.Int) error {
	bal := domain.CopyAmount(l.balances[from])
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%s: %w", from.Hex(), ErrInsufficientBalance)
	}
	l.balances[from] = bal.Sub(bal, amount)
	l.credit(to, amount)
	return nil
}

func (l *Ledger) credit(to domain.Address, amount *big.Int) {
	bal := domain.CopyAmount(l.balances[to])
	l.balances[to] = bal.Add(bal, amount)
}

// Custody moves the token on behalf of one custody account. Depositors must
// approve the custody account before TransferIn.
type Custody struct {
	ledger *Ledger
	self   domain.Address
}

func NewCustody(ledger *Ledger, self domain.Address) *Custody {
	return &Custody{ledger: ledger, self: self}
}

// Address is the custody account holding deposited funds.
func (c *Custody) Address() domain.Address {
	return c.self
}

func (c *Custody) TransferIn(_ context.Context, from domain.Address, amount *big.Int) error {
	return c.ledger.TransferFrom(c.self, from, c.self, amount)
}

func (c *Custody) TransferOut(_ context.Context, to domain.Address, amount *big.Int) error {
	return c.ledger.Transfer(c.self, to, amount)
}

func (c *Custody) Approve(_ context.Context, spender domain.Address, amount *big.Int) error {
	return c.ledger.Approve(c.self, spender, amount)
}
