package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"tunemint/core/types"
	"tunemint/native/catalog"
	"tunemint/native/fees"
	"tunemint/native/splits"
	"tunemint/storage"
)

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestNextItemIDIsSequential(t *testing.T) {
	manager := newTestManager(t)
	for want := uint64(1); want <= 5; want++ {
		id, err := manager.NextItemID()
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
}

func TestItemRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	item, ok, err := manager.ItemGet(1)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, item)

	stored := &catalog.Item{
		ID:            1,
		Title:         "First Pressing",
		Creator:       addr(0x01),
		UnitPrice:     big.NewInt(950_000),
		MaxSupply:     100,
		CurrentSupply: 3,
		MetadataRef:   "ipfs://meta",
		CreatedAt:     1_700_000_000,
	}
	require.NoError(t, manager.ItemPut(stored))

	loaded, ok, err := manager.ItemGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, stored, loaded)
}

func TestCreatorIndexRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	creator := addr(0x01)

	ids, err := manager.CreatorItems(creator)
	require.NoError(t, err)
	require.Empty(t, ids)

	require.NoError(t, manager.SetCreatorItems(creator, []uint64{3, 1, 2}))
	ids, err = manager.CreatorItems(creator)
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 1, 2}, ids)
}

func TestSplitsRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	cfg := &splits.Config{
		ItemID: 7,
		Entries: []splits.ShareEntry{
			{Recipient: addr(0x0a), ShareBps: 7000},
			{Recipient: addr(0x0b), ShareBps: 3000},
		},
		Locked: true,
	}
	require.NoError(t, manager.SplitsPut(cfg))

	loaded, ok, err := manager.SplitsGet(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cfg, loaded)

	_, ok, err = manager.SplitsGet(8)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFeePolicyRoundTrip(t *testing.T) {
	manager := newTestManager(t)

	_, ok, err := manager.FeePolicyGet()
	require.NoError(t, err)
	require.False(t, ok)

	policy := &fees.Policy{Fee: big.NewInt(50_000), Recipient: addr(0x0f)}
	require.NoError(t, manager.FeePolicyPut(policy))

	loaded, ok, err := manager.FeePolicyGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, policy, loaded)
}

func TestOwnerAndPauseState(t *testing.T) {
	manager := newTestManager(t)

	_, ok, err := manager.MarketOwner()
	require.NoError(t, err)
	require.False(t, ok)

	owner := addr(0x09)
	require.NoError(t, manager.SetMarketOwner(owner))
	loaded, ok, err := manager.MarketOwner()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, owner, loaded)

	paused, err := manager.MarketPaused()
	require.NoError(t, err)
	require.False(t, paused)
	require.False(t, manager.IsPaused("settlement"))

	require.NoError(t, manager.SetMarketPaused(true))
	paused, err = manager.MarketPaused()
	require.NoError(t, err)
	require.True(t, paused)
	require.True(t, manager.IsPaused("catalog"))
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	who := addr(0x02)

	acct, err := manager.GetAccount(who[:])
	require.NoError(t, err)
	require.Zero(t, acct.Balance.Sign())

	acct.Balance = big.NewInt(1_000_000)
	acct.Nonce = 4
	require.NoError(t, manager.PutAccount(who[:], acct))

	loaded, err := manager.GetAccount(who[:])
	require.NoError(t, err)
	require.Equal(t, acct, loaded)
}

func TestIssueAccumulatesHoldings(t *testing.T) {
	manager := newTestManager(t)
	who := addr(0x02)

	balance, err := manager.ItemBalance(who, 1)
	require.NoError(t, err)
	require.Zero(t, balance)

	require.NoError(t, manager.Issue(who, 1, 3))
	require.NoError(t, manager.Issue(who, 1, 2))
	require.NoError(t, manager.Issue(who, 2, 7))

	balance, err = manager.ItemBalance(who, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(5), balance)

	balance, err = manager.ItemBalance(who, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(7), balance)

	// Holdings for another address stay independent.
	other := addr(0x03)
	balance, err = manager.ItemBalance(other, 1)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestIssueOverflow(t *testing.T) {
	manager := newTestManager(t)
	who := addr(0x02)
	require.NoError(t, manager.Issue(who, 1, ^uint64(0)))
	require.Error(t, manager.Issue(who, 1, 1))
}

func TestAccountNilBalanceNormalized(t *testing.T) {
	manager := newTestManager(t)
	who := addr(0x02)
	require.NoError(t, manager.PutAccount(who[:], &types.Account{Nonce: 1}))

	loaded, err := manager.GetAccount(who[:])
	require.NoError(t, err)
	require.NotNil(t, loaded.Balance)
	require.Zero(t, loaded.Balance.Sign())
}
