package catalog

import "math/big"

// Item is a limited-edition digital media listing. Supply counters are only
// ever advanced by the settlement engine; everything else is owned by the
// catalog.
type Item struct {
	ID            uint64   `json:"id"`
	Title         string   `json:"title"`
	Creator       [20]byte `json:"creator"`
	UnitPrice     *big.Int `json:"unitPrice"`
	MaxSupply     uint64   `json:"maxSupply"`
	CurrentSupply uint64   `json:"currentSupply"`
	MetadataRef   string   `json:"metadataRef"`
	CreatedAt     uint64   `json:"createdAt"`
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.UnitPrice != nil {
		clone.UnitPrice = new(big.Int).Set(i.UnitPrice)
	}
	return &clone
}

// SupplyAvailable reports whether quantity more units can be issued without
// breaching the cap. MaxSupply == 0 means uncapped; this helper is the single
// place that sentinel is interpreted.
func SupplyAvailable(item *Item, quantity uint64) bool {
	if item == nil {
		return false
	}
	next := item.CurrentSupply + quantity
	if next < item.CurrentSupply {
		return false
	}
	if item.MaxSupply == 0 {
		return true
	}
	return next <= item.MaxSupply
}
