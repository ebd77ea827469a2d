package events

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"tunemint/core/types"
)

const (
	TypeItemCreated         = "market.item.created"
	TypeItemUpdated         = "market.item.updated"
	TypeCreatorTransferred  = "market.item.creator_transferred"
	TypeItemMinted          = "market.item.minted"
	TypeSplitsConfigured    = "market.splits.configured"
	TypeSplitsLocked        = "market.splits.locked"
	TypePaymentDistributed  = "market.payment.distributed"
	TypeFeeUpdated          = "market.fee.updated"
	TypeFeeRecipientUpdated = "market.fee.recipient_updated"
	TypeMarketPaused        = "market.paused"
	TypeMarketUnpaused      = "market.unpaused"
	TypeOwnerTransferred    = "market.owner.transferred"
	TypeAccountFunded       = "market.account.funded"
)

type ItemCreated struct {
	ID        uint64
	Title     string
	Creator   [20]byte
	UnitPrice *big.Int
	MaxSupply uint64
}

func (ItemCreated) EventType() string { return TypeItemCreated }

func (e ItemCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeItemCreated,
		Attributes: map[string]string{
			"itemId":    formatID(e.ID),
			"title":     e.Title,
			"creator":   formatAddress(e.Creator),
			"price":     formatAmount(e.UnitPrice),
			"maxSupply": formatID(e.MaxSupply),
		},
	}
}

type ItemUpdated struct {
	ID          uint64
	Title       string
	MetadataRef string
	UnitPrice   *big.Int
}

func (ItemUpdated) EventType() string { return TypeItemUpdated }

func (e ItemUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeItemUpdated,
		Attributes: map[string]string{
			"itemId":      formatID(e.ID),
			"title":       e.Title,
			"metadataRef": e.MetadataRef,
			"price":       formatAmount(e.UnitPrice),
		},
	}
}

type CreatorTransferred struct {
	ID         uint64
	OldCreator [20]byte
	NewCreator [20]byte
}

func (CreatorTransferred) EventType() string { return TypeCreatorTransferred }

func (e CreatorTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeCreatorTransferred,
		Attributes: map[string]string{
			"itemId":     formatID(e.ID),
			"oldCreator": formatAddress(e.OldCreator),
			"newCreator": formatAddress(e.NewCreator),
		},
	}
}

type ItemMinted struct {
	ID        uint64
	Buyer     [20]byte
	Recipient [20]byte
	Quantity  uint64
	TotalPaid *big.Int
}

func (ItemMinted) EventType() string { return TypeItemMinted }

func (e ItemMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeItemMinted,
		Attributes: map[string]string{
			"itemId":    formatID(e.ID),
			"buyer":     formatAddress(e.Buyer),
			"recipient": formatAddress(e.Recipient),
			"quantity":  formatID(e.Quantity),
			"totalPaid": formatAmount(e.TotalPaid),
		},
	}
}

// SplitEntry mirrors a single configured share for event rendering.
type SplitEntry struct {
	Recipient [20]byte
	ShareBps  uint32
}

type SplitsConfigured struct {
	ID      uint64
	Entries []SplitEntry
}

func (SplitsConfigured) EventType() string { return TypeSplitsConfigured }

func (e SplitsConfigured) Event() *types.Event {
	rendered := make([]string, 0, len(e.Entries))
	for _, entry := range e.Entries {
		rendered = append(rendered, formatAddress(entry.Recipient)+":"+strconv.FormatUint(uint64(entry.ShareBps), 10))
	}
	return &types.Event{
		Type: TypeSplitsConfigured,
		Attributes: map[string]string{
			"itemId": formatID(e.ID),
			"splits": strings.Join(rendered, ","),
			"count":  strconv.Itoa(len(e.Entries)),
		},
	}
}

type SplitsLocked struct {
	ID uint64
}

func (SplitsLocked) EventType() string { return TypeSplitsLocked }

func (e SplitsLocked) Event() *types.Event {
	return &types.Event{
		Type: TypeSplitsLocked,
		Attributes: map[string]string{
			"itemId": formatID(e.ID),
		},
	}
}

type PaymentDistributed struct {
	ID     uint64
	Payee  [20]byte
	Amount *big.Int
	IsFee  bool
}

func (PaymentDistributed) EventType() string { return TypePaymentDistributed }

func (e PaymentDistributed) Event() *types.Event {
	return &types.Event{
		Type: TypePaymentDistributed,
		Attributes: map[string]string{
			"itemId": formatID(e.ID),
			"payee":  formatAddress(e.Payee),
			"amount": formatAmount(e.Amount),
			"isFee":  strconv.FormatBool(e.IsFee),
		},
	}
}

type FeeUpdated struct {
	OldFee *big.Int
	NewFee *big.Int
}

func (FeeUpdated) EventType() string { return TypeFeeUpdated }

func (e FeeUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeFeeUpdated,
		Attributes: map[string]string{
			"old": formatAmount(e.OldFee),
			"new": formatAmount(e.NewFee),
		},
	}
}

type FeeRecipientUpdated struct {
	OldRecipient [20]byte
	NewRecipient [20]byte
}

func (FeeRecipientUpdated) EventType() string { return TypeFeeRecipientUpdated }

func (e FeeRecipientUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeFeeRecipientUpdated,
		Attributes: map[string]string{
			"old": formatAddress(e.OldRecipient),
			"new": formatAddress(e.NewRecipient),
		},
	}
}

type MarketPaused struct {
	By [20]byte
}

func (MarketPaused) EventType() string { return TypeMarketPaused }

func (e MarketPaused) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketPaused,
		Attributes: map[string]string{
			"by": formatAddress(e.By),
		},
	}
}

type MarketUnpaused struct {
	By [20]byte
}

func (MarketUnpaused) EventType() string { return TypeMarketUnpaused }

func (e MarketUnpaused) Event() *types.Event {
	return &types.Event{
		Type: TypeMarketUnpaused,
		Attributes: map[string]string{
			"by": formatAddress(e.By),
		},
	}
}

type OwnerTransferred struct {
	OldOwner [20]byte
	NewOwner [20]byte
}

func (OwnerTransferred) EventType() string { return TypeOwnerTransferred }

func (e OwnerTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnerTransferred,
		Attributes: map[string]string{
			"old": formatAddress(e.OldOwner),
			"new": formatAddress(e.NewOwner),
		},
	}
}

type AccountFunded struct {
	Account [20]byte
	Amount  *big.Int
}

func (AccountFunded) EventType() string { return TypeAccountFunded }

func (e AccountFunded) Event() *types.Event {
	return &types.Event{
		Type: TypeAccountFunded,
		Attributes: map[string]string{
			"account": formatAddress(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

func formatAddress(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatID(v uint64) string {
	return strconv.FormatUint(v, 10)
}
