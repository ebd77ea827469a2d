package core

import (
	"errors"
	"math/big"
	"sync"

	"tunemint/core/events"
	"tunemint/core/state"
	"tunemint/core/types"
	"tunemint/native/catalog"
	"tunemint/native/common"
	"tunemint/native/fees"
	"tunemint/native/settlement"
	"tunemint/native/splits"
	"tunemint/storage"
)

var (
	// ErrOwnerNotSet is returned by owner-gated operations before bootstrap.
	ErrOwnerNotSet = errors.New("market: owner not configured")
	// ErrNotAuthorized is returned when a caller lacks the owner role.
	ErrNotAuthorized = errors.New("market: not authorized")
	// ErrZeroAddress rejects the null identity on market-level operations.
	ErrZeroAddress = errors.New("market: zero address")
	// ErrInvalidAmount rejects nil or non-positive funding amounts.
	ErrInvalidAmount = errors.New("market: invalid amount")
)

// Market is the single-process marketplace instance. All mutating operations
// are serialized behind one exclusive lock; the settlement engine's in-flight
// flag additionally rejects reentrant mutation while value is moving.
// Read-only queries go straight to the state manager: every record decode is
// a single-key snapshot, so a reader never observes a half-updated item.
type Market struct {
	mu sync.Mutex

	db      storage.Database
	state   *state.Manager
	emitter events.Emitter

	catalog    *catalog.Engine
	splits     *splits.Engine
	fees       *fees.Engine
	settlement *settlement.Engine
}

// Option customises market construction.
type Option func(*Market)

// WithEmitter streams every market event into the supplied emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(m *Market) {
		if emitter != nil {
			m.emitter = emitter
		}
	}
}

// NewMarket wires the state manager and all native engines over db.
func NewMarket(db storage.Database, opts ...Option) *Market {
	m := &Market{
		db:      db,
		state:   state.NewManager(db),
		emitter: events.NoopEmitter{},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.catalog = catalog.NewEngine()
	m.catalog.SetState(m.state)
	m.catalog.SetPauses(m.state)
	m.catalog.SetEmitter(m.emitter)

	m.splits = splits.NewEngine()
	m.splits.SetState(m.state)
	m.splits.SetPauses(m.state)
	m.splits.SetEmitter(m.emitter)

	m.fees = fees.NewEngine()
	m.fees.SetState(m.state)
	m.fees.SetEmitter(m.emitter)

	m.settlement = settlement.NewEngine()
	m.settlement.SetState(m.state)
	m.settlement.SetIssuer(m.state)
	m.settlement.SetPauses(m.state)
	m.settlement.SetEmitter(m.emitter)

	return m
}

// State exposes the underlying state manager for read paths and tests.
func (m *Market) State() *state.Manager { return m.state }

// Settlement exposes the settlement engine, primarily for tests that need a
// deterministic clock.
func (m *Market) Settlement() *settlement.Engine { return m.settlement }

// beginMutation rejects reentrant calls before taking the exclusive lock.
// The in-flight check runs unlocked on purpose: a collaborator calling back
// into the market from inside a settlement would deadlock on the mutex, so
// it must be turned away first.
func (m *Market) beginMutation() error {
	if m.settlement.InFlight() {
		return settlement.ErrReentrant
	}
	m.mu.Lock()
	return nil
}

// EnsureOwner sets the market owner if none is configured yet. Used at
// daemon bootstrap; once set, the owner only changes via TransferOwner.
func (m *Market) EnsureOwner(owner [20]byte) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if common.IsZeroAddress(owner) {
		return ErrZeroAddress
	}
	if _, ok, err := m.state.MarketOwner(); err != nil {
		return err
	} else if ok {
		return nil
	}
	return m.state.SetMarketOwner(owner)
}

// TransferOwner hands the owner role to a new address. Only the current
// owner may call it.
func (m *Market) TransferOwner(caller [20]byte, newOwner [20]byte) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	if common.IsZeroAddress(newOwner) {
		return ErrZeroAddress
	}
	owner, ok, err := m.state.MarketOwner()
	if err != nil {
		return err
	}
	if !ok {
		return ErrOwnerNotSet
	}
	if owner != caller {
		return ErrNotAuthorized
	}
	if err := m.state.SetMarketOwner(newOwner); err != nil {
		return err
	}
	m.emitter.Emit(events.OwnerTransferred{OldOwner: owner, NewOwner: newOwner})
	return nil
}

// Owner returns the configured market owner.
func (m *Market) Owner() ([20]byte, bool, error) {
	return m.state.MarketOwner()
}

// --- catalog ---

func (m *Market) CreateItem(creator [20]byte, title string, unitPrice *big.Int, maxSupply uint64, metadataRef string) (*catalog.Item, error) {
	if err := m.beginMutation(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return m.catalog.CreateItem(creator, title, unitPrice, maxSupply, metadataRef)
}

func (m *Market) UpdateItem(caller [20]byte, id uint64, newTitle *string, newMetadataRef *string, newPrice *big.Int) (*catalog.Item, error) {
	if err := m.beginMutation(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return m.catalog.UpdateItem(caller, id, newTitle, newMetadataRef, newPrice)
}

func (m *Market) TransferCreator(caller [20]byte, id uint64, newCreator [20]byte) (*catalog.Item, error) {
	if err := m.beginMutation(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return m.catalog.TransferCreator(caller, id, newCreator)
}

func (m *Market) GetItem(id uint64) (*catalog.Item, error) {
	return m.catalog.GetItem(id)
}

func (m *Market) CreatorItems(creator [20]byte) ([]uint64, error) {
	return m.catalog.CreatorItems(creator)
}

// --- splits ---

func (m *Market) ConfigureSplits(caller [20]byte, itemID uint64, entries []splits.ShareEntry) (*splits.Config, error) {
	if err := m.beginMutation(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return m.splits.Configure(caller, itemID, entries)
}

func (m *Market) LockSplits(caller [20]byte, itemID uint64) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	return m.splits.Lock(caller, itemID)
}

func (m *Market) GetSplits(itemID uint64) ([]splits.ShareEntry, error) {
	return m.splits.Get(itemID)
}

func (m *Market) SplitsLocked(itemID uint64) (bool, error) {
	return m.splits.Locked(itemID)
}

// --- fees / kill-switch ---

func (m *Market) FeePolicy() (*fees.Policy, error) {
	return m.fees.Policy()
}

func (m *Market) SetFee(caller [20]byte, newFee *big.Int) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	return m.fees.SetFee(caller, newFee)
}

func (m *Market) SetFeeRecipient(caller [20]byte, recipient [20]byte) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	return m.fees.SetRecipient(caller, recipient)
}

func (m *Market) Pause(caller [20]byte) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	return m.fees.Pause(caller)
}

func (m *Market) Unpause(caller [20]byte) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	return m.fees.Unpause(caller)
}

func (m *Market) Paused() (bool, error) {
	return m.state.MarketPaused()
}

// --- settlement ---

func (m *Market) MintSingle(buyer [20]byte, itemID uint64, quantity uint64, recipient [20]byte) (*settlement.Receipt, error) {
	if err := m.beginMutation(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return m.settlement.MintSingle(buyer, itemID, quantity, recipient)
}

func (m *Market) MintBatch(buyer [20]byte, itemIDs []uint64, quantities []uint64, recipient [20]byte) ([]*settlement.Receipt, error) {
	if err := m.beginMutation(); err != nil {
		return nil, err
	}
	defer m.mu.Unlock()
	return m.settlement.MintBatch(buyer, itemIDs, quantities, recipient)
}

func (m *Market) QuoteCost(itemID uint64, quantity uint64) (*big.Int, error) {
	return m.settlement.QuoteCost(itemID, quantity)
}

// --- accounts ---

// FundAccount credits spendable balance to an address. Owner-only; this is
// the on-ramp for the pull-model payment ledger.
func (m *Market) FundAccount(caller [20]byte, account [20]byte, amount *big.Int) error {
	if err := m.beginMutation(); err != nil {
		return err
	}
	defer m.mu.Unlock()
	owner, ok, err := m.state.MarketOwner()
	if err != nil {
		return err
	}
	if !ok {
		return ErrOwnerNotSet
	}
	if owner != caller {
		return ErrNotAuthorized
	}
	if common.IsZeroAddress(account) {
		return ErrZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	acct, err := m.state.GetAccount(account[:])
	if err != nil {
		return err
	}
	if acct.Balance == nil {
		acct.Balance = big.NewInt(0)
	}
	acct.Balance = new(big.Int).Add(acct.Balance, amount)
	if err := m.state.PutAccount(account[:], acct); err != nil {
		return err
	}
	m.emitter.Emit(events.AccountFunded{Account: account, Amount: amount})
	return nil
}

// BalanceOf reports an address's spendable balance.
func (m *Market) BalanceOf(addr [20]byte) (*big.Int, error) {
	acct, err := m.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.Balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(acct.Balance), nil
}

// ItemBalanceOf reports how many units of an item an address holds.
func (m *Market) ItemBalanceOf(addr [20]byte, itemID uint64) (uint64, error) {
	return m.state.ItemBalance(addr, itemID)
}

// Account returns a deep copy of the stored account record.
func (m *Market) Account(addr [20]byte) (*types.Account, error) {
	acct, err := m.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return acct.Clone(), nil
}
