package types

import "math/big"

// Account tracks a participant's spendable balance in the smallest currency
// unit. Item-unit holdings live in a separate ledger keyed per item.
type Account struct {
	Balance *big.Int `json:"balance"`
	Nonce   uint64   `json:"nonce"`
}

// Clone returns a deep copy of the account so callers never alias the stored
// balance.
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

// Event is the structured record appended to the market event log.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
