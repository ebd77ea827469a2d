package settlement

import (
	"math/big"
	"sync/atomic"
	"time"

	"tunemint/core/events"
	"tunemint/core/types"
	"tunemint/native/catalog"
	"tunemint/native/common"
	"tunemint/native/fees"
	"tunemint/native/splits"
)

const pauseModule = "settlement"

type engineState interface {
	ItemGet(id uint64) (*catalog.Item, bool, error)
	ItemPut(item *catalog.Item) error
	SplitsGet(itemID uint64) (*splits.Config, bool, error)
	FeePolicyGet() (*fees.Policy, bool, error)
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine executes the atomic validate/collect/issue/distribute sequence. All
// validation and cost computation completes before any value moves; the
// transfer window is covered by a reentrancy flag so a collaborator reacting
// to a payment cannot re-enter a mutating entrypoint.
type Engine struct {
	state    engineState
	issuer   Issuer
	emitter  events.Emitter
	pauses   common.PauseView
	nowFn    func() int64
	inFlight atomic.Bool
}

// NewEngine constructs a settlement engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetIssuer configures the external token-ownership collaborator.
func (e *Engine) SetIssuer(issuer Issuer) { e.issuer = issuer }

// SetPauses configures the pause view consulted before mutations.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets to no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// InFlight reports whether a settlement is inside its transfer window. Other
// mutating market entrypoints consult this to reject reentrant calls.
func (e *Engine) InFlight() bool {
	return e != nil && e.inFlight.Load()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func ensureAccount(acct *types.Account) *types.Account {
	if acct == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acct.Balance == nil {
		acct.Balance = big.NewInt(0)
	}
	return acct
}

// validateEntry checks one (item, quantity) pair and advances the staged
// supply so duplicate items inside a batch are checked against their
// cumulative quantity. Nothing is persisted here.
func (e *Engine) validateEntry(staged map[uint64]*catalog.Item, itemID uint64, quantity uint64) (*catalog.Item, error) {
	if quantity == 0 || quantity > MaxMintQuantity {
		return nil, ErrInvalidQuantity
	}
	item, ok := staged[itemID]
	if !ok {
		loaded, found, err := e.state.ItemGet(itemID)
		if err != nil {
			return nil, err
		}
		if !found || loaded == nil {
			return nil, ErrItemNotFound
		}
		item = loaded
		staged[itemID] = item
	}
	if !catalog.SupplyAvailable(item, quantity) {
		return nil, ErrSupplyExceeded
	}
	item.CurrentSupply += quantity
	return item, nil
}

// flatFee resolves the platform fee and its recipient. A non-zero fee with
// no configured recipient is a policy misconfiguration and fails the call.
func (e *Engine) flatFee() (*big.Int, [20]byte, error) {
	policy, ok, err := e.state.FeePolicyGet()
	if err != nil {
		return nil, [20]byte{}, err
	}
	if !ok || policy == nil {
		return big.NewInt(0), [20]byte{}, nil
	}
	fee := policy.FlatFee()
	if fee.Sign() > 0 && common.IsZeroAddress(policy.Recipient) {
		return nil, [20]byte{}, ErrFeeRecipientUnset
	}
	return fee, policy.Recipient, nil
}

func (e *Engine) splitEntries(itemID uint64) ([]splits.ShareEntry, error) {
	cfg, ok, err := e.state.SplitsGet(itemID)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, nil
	}
	return cfg.Entries, nil
}

func (e *Engine) debit(addr [20]byte, amount *big.Int) error {
	acct, err := e.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acct = ensureAccount(acct)
	if acct.Balance.Cmp(amount) < 0 {
		return ErrInsufficientPayment
	}
	acct.Balance = new(big.Int).Sub(acct.Balance, amount)
	return e.state.PutAccount(addr[:], acct)
}

func (e *Engine) credit(addr [20]byte, amount *big.Int) error {
	acct, err := e.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acct = ensureAccount(acct)
	acct.Balance = new(big.Int).Add(acct.Balance, amount)
	return e.state.PutAccount(addr[:], acct)
}

type itemPlan struct {
	itemID   uint64
	quantity uint64
	revenue  *big.Int
	payouts  []Payout
}

// MintSingle settles a purchase of quantity units of one item for recipient,
// pulling exactly unitPrice*quantity + flatFee from the buyer's balance.
func (e *Engine) MintSingle(buyer [20]byte, itemID uint64, quantity uint64, recipient [20]byte) (*Receipt, error) {
	receipts, err := e.mint(buyer, []uint64{itemID}, []uint64{quantity}, recipient, false)
	if err != nil {
		return nil, err
	}
	return receipts[0], nil
}

// MintBatch settles several items in one call. The flat fee is charged
// exactly once for the whole batch. Pass one validates every pair and
// accumulates the aggregate cost without touching state; pass two runs only
// after the aggregate payment is known collectible, so a bad entry can never
// leave earlier entries paid out.
func (e *Engine) MintBatch(buyer [20]byte, itemIDs []uint64, quantities []uint64, recipient [20]byte) ([]*Receipt, error) {
	return e.mint(buyer, itemIDs, quantities, recipient, true)
}

func (e *Engine) mint(buyer [20]byte, itemIDs []uint64, quantities []uint64, recipient [20]byte, batch bool) ([]*Receipt, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.issuer == nil {
		return nil, ErrNilIssuer
	}
	if e.inFlight.Load() {
		return nil, ErrReentrant
	}
	if err := common.Guard(e.pauses, pauseModule); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(buyer) || common.IsZeroAddress(recipient) {
		return nil, ErrZeroAddress
	}
	if len(itemIDs) != len(quantities) {
		return nil, ErrArityMismatch
	}
	if len(itemIDs) == 0 {
		return nil, ErrInvalidQuantity
	}
	if batch && len(itemIDs) > MaxBatchItems {
		return nil, ErrBatchTooLarge
	}

	// Pass one: pure reads. Validate every entry, price it, and plan every
	// payout before a single unit of value moves.
	fee, feeRecipient, err := e.flatFee()
	if err != nil {
		return nil, err
	}
	staged := make(map[uint64]*catalog.Item, len(itemIDs))
	plans := make([]itemPlan, 0, len(itemIDs))
	aggregate := new(big.Int).Set(fee)
	for i := range itemIDs {
		item, err := e.validateEntry(staged, itemIDs[i], quantities[i])
		if err != nil {
			return nil, err
		}
		revenue, err := checkedItemCost(item.UnitPrice, quantities[i])
		if err != nil {
			return nil, err
		}
		if aggregate, err = checkedAdd(aggregate, revenue); err != nil {
			return nil, err
		}
		entries, err := e.splitEntries(itemIDs[i])
		if err != nil {
			return nil, err
		}
		plans = append(plans, itemPlan{
			itemID:   itemIDs[i],
			quantity: quantities[i],
			revenue:  revenue,
			payouts:  planPayouts(revenue, entries, item.Creator),
		})
	}
	buyerAcct, err := e.state.GetAccount(buyer[:])
	if err != nil {
		return nil, err
	}
	if ensureAccount(buyerAcct).Balance.Cmp(aggregate) < 0 {
		return nil, ErrInsufficientPayment
	}

	// Pass two: the transfer window. External issuance runs before the first
	// persisted write so an issuer failure aborts with no observable state
	// change; the staged supply increments from pass one are committed after
	// every issuance has succeeded.
	e.inFlight.Store(true)
	defer e.inFlight.Store(false)
	for _, plan := range plans {
		if err := e.issuer.Issue(recipient, plan.itemID, plan.quantity); err != nil {
			return nil, err
		}
	}
	if err := e.debit(buyer, aggregate); err != nil {
		return nil, err
	}
	persisted := make(map[uint64]bool, len(staged))
	for _, plan := range plans {
		if persisted[plan.itemID] {
			continue
		}
		if err := e.state.ItemPut(staged[plan.itemID]); err != nil {
			return nil, err
		}
		persisted[plan.itemID] = true
	}

	mintedAt := e.now()
	receipts := make([]*Receipt, 0, len(plans))
	if fee.Sign() > 0 {
		if err := e.credit(feeRecipient, fee); err != nil {
			return nil, err
		}
		e.emit(events.PaymentDistributed{ID: plans[0].itemID, Payee: feeRecipient, Amount: fee, IsFee: true})
	}
	for i, plan := range plans {
		receipt := &Receipt{
			ItemID:    plan.itemID,
			Buyer:     buyer,
			Recipient: recipient,
			Quantity:  plan.quantity,
			TotalPaid: new(big.Int).Set(plan.revenue),
			MintedAt:  mintedAt,
		}
		if i == 0 && fee.Sign() > 0 {
			receipt.TotalPaid = receipt.TotalPaid.Add(receipt.TotalPaid, fee)
			receipt.Payouts = append(receipt.Payouts, Payout{Payee: feeRecipient, Amount: new(big.Int).Set(fee), IsFee: true})
		}
		for _, payout := range plan.payouts {
			if err := e.credit(payout.Payee, payout.Amount); err != nil {
				return nil, err
			}
			e.emit(events.PaymentDistributed{ID: plan.itemID, Payee: payout.Payee, Amount: payout.Amount})
			receipt.Payouts = append(receipt.Payouts, payout)
		}
		e.emit(events.ItemMinted{
			ID:        plan.itemID,
			Buyer:     buyer,
			Recipient: recipient,
			Quantity:  plan.quantity,
			TotalPaid: receipt.TotalPaid,
		})
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// QuoteCost prices a prospective mint without mutating state.
func (e *Engine) QuoteCost(itemID uint64, quantity uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if quantity == 0 || quantity > MaxMintQuantity {
		return nil, ErrInvalidQuantity
	}
	item, ok, err := e.state.ItemGet(itemID)
	if err != nil {
		return nil, err
	}
	if !ok || item == nil {
		return nil, ErrItemNotFound
	}
	revenue, err := checkedItemCost(item.UnitPrice, quantity)
	if err != nil {
		return nil, err
	}
	policy, _, err := e.state.FeePolicyGet()
	if err != nil {
		return nil, err
	}
	return checkedAdd(revenue, policy.FlatFee())
}
