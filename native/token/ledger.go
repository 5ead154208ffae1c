package token

import (
	"errors"
	"fmt"
	"math/big"

	"fundchain/core/types"
)

var (
	errNilState      = errors.New("token ledger: state not configured")
	errInvalidAmount = errors.New("token ledger: amount must be positive")
)

// InsufficientBalanceError reports a debit that would push an account below
// zero. The transfer it aborted left no partial state behind.
type InsufficientBalanceError struct {
	Account [20]byte
	Balance *big.Int
	Amount  *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("token ledger: balance %s below requested %s", e.Balance, e.Amount)
}

type ledgerState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger implements the fungible-balance service consumed by the native
// engines. Transfers are all-or-nothing and balances never go negative.
type Ledger struct {
	state ledgerState
}

// NewLedger constructs a token ledger bound to the supplied state backend.
func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

// Transfer moves amount from one account to the other. The amount must be
// positive; a debit below zero aborts the whole transfer.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	fromAcc, err := l.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	if fromAcc.Balance.Cmp(amount) < 0 {
		return &InsufficientBalanceError{Account: from, Balance: new(big.Int).Set(fromAcc.Balance), Amount: new(big.Int).Set(amount)}
	}
	if from == to {
		// The debit and credit cancel out. Writing both through separate
		// account reads would credit against the stale pre-debit balance.
		return nil
	}
	toAcc, err := l.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := l.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to[:], toAcc)
}

// BalanceOf returns the current balance for the supplied address. Unknown
// addresses report a zero balance.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	acc, err := l.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	acc = ensureAccount(acc)
	return new(big.Int).Set(acc.Balance), nil
}

// Mint credits the supplied address, growing total supply. Used for genesis
// allocations; the engines themselves never mint.
func (l *Ledger) Mint(addr [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	acc, err := l.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return l.state.PutAccount(addr[:], acc)
}
