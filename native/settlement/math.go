package settlement

import (
	"math/big"

	"github.com/holiman/uint256"

	"tunemint/native/splits"
)

func toUint256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return uint256.NewInt(0), nil
	}
	converted, overflow := uint256.FromBig(v)
	if overflow {
		return nil, ErrOverflow
	}
	return converted, nil
}

// checkedItemCost computes unitPrice * quantity with overflow detection.
func checkedItemCost(unitPrice *big.Int, quantity uint64) (*big.Int, error) {
	price, err := toUint256(unitPrice)
	if err != nil {
		return nil, err
	}
	subtotal := new(uint256.Int)
	if _, overflow := subtotal.MulOverflow(price, uint256.NewInt(quantity)); overflow {
		return nil, ErrOverflow
	}
	return subtotal.ToBig(), nil
}

// checkedAdd sums two amounts with overflow detection.
func checkedAdd(a, b *big.Int) (*big.Int, error) {
	left, err := toUint256(a)
	if err != nil {
		return nil, err
	}
	right, err := toUint256(b)
	if err != nil {
		return nil, err
	}
	sum := new(uint256.Int)
	if _, overflow := sum.AddOverflow(left, right); overflow {
		return nil, ErrOverflow
	}
	return sum.ToBig(), nil
}

// planPayouts splits revenue across the configured entries. Every entry
// except the last receives floor(revenue * share / 10000); the last receives
// the remainder so the payouts always sum to revenue exactly. An empty entry
// list routes everything to the creator. Zero-amount payouts are dropped
// from the plan (no transfer happens) but their share of the running sum is
// preserved by construction.
func planPayouts(revenue *big.Int, entries []splits.ShareEntry, creator [20]byte) []Payout {
	if revenue == nil {
		revenue = big.NewInt(0)
	}
	if len(entries) == 0 {
		if revenue.Sign() == 0 {
			return nil
		}
		return []Payout{{Payee: creator, Amount: new(big.Int).Set(revenue)}}
	}
	payouts := make([]Payout, 0, len(entries))
	distributed := big.NewInt(0)
	for i, entry := range entries {
		var amount *big.Int
		if i == len(entries)-1 {
			amount = new(big.Int).Sub(revenue, distributed)
		} else {
			amount = new(big.Int).Mul(revenue, big.NewInt(int64(entry.ShareBps)))
			amount = amount.Div(amount, big.NewInt(splits.TotalBps))
			distributed = distributed.Add(distributed, amount)
		}
		if amount.Sign() == 0 {
			continue
		}
		payouts = append(payouts, Payout{Payee: entry.Recipient, Amount: amount})
	}
	return payouts
}
