package settlement

import "math/big"

// MaxMintQuantity bounds the units a single settlement entry may request.
const MaxMintQuantity = 10_000

// MaxBatchItems bounds the number of entries in one batch settlement.
const MaxBatchItems = 32

// Issuer is the external token-ownership collaborator. The engine calls it
// after the supply update and trusts it for valid inputs; an error here
// aborts the whole settlement.
type Issuer interface {
	Issue(recipient [20]byte, itemID uint64, quantity uint64) error
}

// Payout records one executed transfer within a settlement.
type Payout struct {
	Payee  [20]byte `json:"payee"`
	Amount *big.Int `json:"amount"`
	IsFee  bool     `json:"isFee"`
}

// Receipt summarises one settled mint. It is derived output, never stored as
// mutable state. For batch settlements the flat fee is charged once and
// carried by the first receipt, so the receipts' TotalPaid values sum to the
// amount debited from the buyer.
type Receipt struct {
	ItemID    uint64   `json:"itemId"`
	Buyer     [20]byte `json:"buyer"`
	Recipient [20]byte `json:"recipient"`
	Quantity  uint64   `json:"quantity"`
	TotalPaid *big.Int `json:"totalPaid"`
	Payouts   []Payout `json:"payouts"`
	MintedAt  int64    `json:"mintedAt"`
}
