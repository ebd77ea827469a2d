package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"tunemint/core/types"
	"tunemint/native/catalog"
	"tunemint/native/fees"
	"tunemint/native/splits"
	"tunemint/storage"
)

// Manager persists the whole market state in a flat key-value namespace.
// Records are rlp-encoded and keyed by the keccak hash of a readable
// prefixed key. It satisfies the narrow state interfaces declared by every
// native engine, and doubles as the token-ownership issuance collaborator.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager over the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) kvGet(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(ethcrypto.Keccak256(key))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) kvPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.db.Put(ethcrypto.Keccak256(key), encoded)
}

// --- item counter ---

// NextItemID assigns and persists the next sequential item id. Ids start at
// 1 and are never reused.
func (m *Manager) NextItemID() (uint64, error) {
	var current uint64
	if _, err := m.kvGet(itemCounterKey, &current); err != nil {
		return 0, err
	}
	next := current + 1
	if err := m.kvPut(itemCounterKey, next); err != nil {
		return 0, err
	}
	return next, nil
}

// --- catalog ---

func (m *Manager) ItemGet(id uint64) (*catalog.Item, bool, error) {
	item := &catalog.Item{}
	ok, err := m.kvGet(itemKey(id), item)
	if err != nil || !ok {
		return nil, false, err
	}
	if item.UnitPrice == nil {
		item.UnitPrice = big.NewInt(0)
	}
	return item, true, nil
}

func (m *Manager) ItemPut(item *catalog.Item) error {
	if item == nil {
		return fmt.Errorf("state: nil item")
	}
	return m.kvPut(itemKey(item.ID), item)
}

func (m *Manager) CreatorItems(creator [20]byte) ([]uint64, error) {
	var ids []uint64
	if _, err := m.kvGet(creatorIndexKey(creator), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *Manager) SetCreatorItems(creator [20]byte, ids []uint64) error {
	if ids == nil {
		ids = []uint64{}
	}
	return m.kvPut(creatorIndexKey(creator), ids)
}

// --- splits ---

func (m *Manager) SplitsGet(itemID uint64) (*splits.Config, bool, error) {
	cfg := &splits.Config{}
	ok, err := m.kvGet(splitsKey(itemID), cfg)
	if err != nil || !ok {
		return nil, false, err
	}
	return cfg, true, nil
}

func (m *Manager) SplitsPut(cfg *splits.Config) error {
	if cfg == nil {
		return fmt.Errorf("state: nil split config")
	}
	return m.kvPut(splitsKey(cfg.ItemID), cfg)
}

// --- fee policy ---

func (m *Manager) FeePolicyGet() (*fees.Policy, bool, error) {
	policy := &fees.Policy{}
	ok, err := m.kvGet(feePolicyKey, policy)
	if err != nil || !ok {
		return nil, false, err
	}
	if policy.Fee == nil {
		policy.Fee = big.NewInt(0)
	}
	return policy, true, nil
}

func (m *Manager) FeePolicyPut(policy *fees.Policy) error {
	if policy == nil {
		return fmt.Errorf("state: nil fee policy")
	}
	return m.kvPut(feePolicyKey, policy)
}

// --- owner / pauses ---

func (m *Manager) MarketOwner() ([20]byte, bool, error) {
	var owner [20]byte
	ok, err := m.kvGet(ownerKey, &owner)
	return owner, ok, err
}

func (m *Manager) SetMarketOwner(owner [20]byte) error {
	return m.kvPut(ownerKey, owner)
}

type pausePayload struct {
	Market bool `json:"market"`
}

func (m *Manager) MarketPaused() (bool, error) {
	data, err := m.db.Get(ethcrypto.Keccak256(pausesKey))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var payload pausePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return false, fmt.Errorf("state: decode pauses: %w", err)
	}
	return payload.Market, nil
}

func (m *Manager) SetMarketPaused(paused bool) error {
	encoded, err := json.Marshal(pausePayload{Market: paused})
	if err != nil {
		return fmt.Errorf("state: encode pauses: %w", err)
	}
	return m.db.Put(ethcrypto.Keccak256(pausesKey), encoded)
}

// IsPaused implements the pause view consumed by every engine. The market
// runs a single global kill-switch, so the module name does not select a
// distinct toggle.
func (m *Manager) IsPaused(module string) bool {
	paused, err := m.MarketPaused()
	if err != nil {
		return false
	}
	return paused
}

// --- payment accounts ---

// GetAccount returns the stored account, or a zero-balance account when the
// address has never been seen.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	acct := &types.Account{}
	ok, err := m.kvGet(accountKey(addr), acct)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if acct.Balance == nil {
		acct.Balance = big.NewInt(0)
	}
	return acct, nil
}

func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.kvPut(accountKey(addr), account)
}

// --- item-unit holdings (the outer token-ownership ledger) ---

// ItemBalance reports how many units of itemID the address holds.
func (m *Manager) ItemBalance(addr [20]byte, itemID uint64) (uint64, error) {
	var balance uint64
	if _, err := m.kvGet(holdingsKey(addr, itemID), &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Issue credits quantity units of itemID to the recipient. It implements the
// settlement engine's issuance collaborator.
func (m *Manager) Issue(recipient [20]byte, itemID uint64, quantity uint64) error {
	balance, err := m.ItemBalance(recipient, itemID)
	if err != nil {
		return err
	}
	next := balance + quantity
	if next < balance {
		return fmt.Errorf("state: holdings overflow for item %d", itemID)
	}
	return m.kvPut(holdingsKey(recipient, itemID), next)
}
