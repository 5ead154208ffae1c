package types

import "math/big"

// Account holds the fungible balance tracked for a single address. The
// ledger is single-asset; the nonce is reserved for replay protection at
// the serving surface and is not consulted by the engines.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return &clone
}
