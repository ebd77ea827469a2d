package fees

import "math/big"

// FeeCeiling is the hard upper bound on the flat per-settlement fee,
// expressed in the smallest currency unit. The owner can never configure a
// fee above it.
var FeeCeiling = big.NewInt(1_000_000_000)

// Policy is the singleton platform fee configuration: a flat amount charged
// once per settlement call and the address it is routed to.
type Policy struct {
	Fee       *big.Int `json:"fee"`
	Recipient [20]byte `json:"recipient"`
}

// Clone returns a deep copy of the policy.
func (p *Policy) Clone() *Policy {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Fee != nil {
		clone.Fee = new(big.Int).Set(p.Fee)
	}
	return &clone
}

// FlatFee returns the configured fee, treating an absent policy or nil amount
// as zero.
func (p *Policy) FlatFee() *big.Int {
	if p == nil || p.Fee == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(p.Fee)
}
