package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// ErrInsufficientBalance represents insufficient token balance error
var ErrInsufficientBalance = errors.New("insufficient balance")

// Ledger holds account balances and performs the low-level
// mint/burn/transfer primitives. Supply is fixed after genesis except
// for burns; Mint is only used while seeding genesis state.
type Ledger struct {
	balances    map[string]*big.Int
	totalSupply *big.Int
	mutex       sync.RWMutex
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:    make(map[string]*big.Int),
		totalSupply: big.NewInt(0),
	}
}

// BalanceOf returns the balance of an address.
func (l *Ledger) BalanceOf(address string) *big.Int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if balance, exists := l.balances[address]; exists {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

// TotalSupply returns the current total supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return new(big.Int).Set(l.totalSupply)
}

// Mint credits newly created tokens to an address.
func (l *Ledger) Mint(to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid mint amount")
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	balance, exists := l.balances[to]
	if !exists {
		balance = big.NewInt(0)
	}

	l.balances[to] = new(big.Int).Add(balance, amount)
	l.totalSupply = new(big.Int).Add(l.totalSupply, amount)
	return nil
}

// Burn destroys tokens held by an address, reducing total supply.
func (l *Ledger) Burn(from string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid burn amount")
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	balance, exists := l.balances[from]
	if !exists {
		balance = big.NewInt(0)
	}

	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	l.balances[from] = new(big.Int).Sub(balance, amount)
	l.totalSupply = new(big.Int).Sub(l.totalSupply, amount)
	return nil
}

// Transfer moves tokens from one address to another.
func (l *Ledger) Transfer(from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("invalid transfer amount")
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	fromBalance, exists := l.balances[from]
	if !exists {
		fromBalance = big.NewInt(0)
	}

	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	toBalance, exists := l.balances[to]
	if !exists {
		toBalance = big.NewInt(0)
	}

	l.balances[from] = new(big.Int).Sub(fromBalance, amount)
	l.balances[to] = new(big.Int).Add(toBalance, amount)
	return nil
}
