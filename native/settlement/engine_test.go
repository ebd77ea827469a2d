package settlement

import (
	"errors"
	"math/big"
	"testing"

	"tunemint/core/types"
	"tunemint/native/catalog"
	"tunemint/native/common"
	"tunemint/native/fees"
	"tunemint/native/splits"
)

type mockState struct {
	items    map[uint64]*catalog.Item
	configs  map[uint64]*splits.Config
	policy   *fees.Policy
	accounts map[string]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		items:    make(map[uint64]*catalog.Item),
		configs:  make(map[uint64]*splits.Config),
		accounts: make(map[string]*types.Account),
	}
}

func (m *mockState) ItemGet(id uint64) (*catalog.Item, bool, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, false, nil
	}
	return item.Clone(), true, nil
}

func (m *mockState) ItemPut(item *catalog.Item) error {
	m.items[item.ID] = item.Clone()
	return nil
}

func (m *mockState) SplitsGet(itemID uint64) (*splits.Config, bool, error) {
	cfg, ok := m.configs[itemID]
	if !ok {
		return nil, false, nil
	}
	return cfg.Clone(), true, nil
}

func (m *mockState) FeePolicyGet() (*fees.Policy, bool, error) {
	if m.policy == nil {
		return nil, false, nil
	}
	return m.policy.Clone(), true, nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	if acct, ok := m.accounts[string(addr)]; ok {
		return acct.Clone(), nil
	}
	return &types.Account{Balance: big.NewInt(0)}, nil
}

func (m *mockState) PutAccount(addr []byte, account *types.Account) error {
	m.accounts[string(addr)] = account.Clone()
	return nil
}

func (m *mockState) fund(addr [20]byte, amount int64) {
	m.accounts[string(addr[:])] = &types.Account{Balance: big.NewInt(amount)}
}

func (m *mockState) balance(addr [20]byte) *big.Int {
	acct, ok := m.accounts[string(addr[:])]
	if !ok || acct.Balance == nil {
		return big.NewInt(0)
	}
	return acct.Balance
}

type issueCall struct {
	recipient [20]byte
	itemID    uint64
	quantity  uint64
}

type recordingIssuer struct {
	calls []issueCall
	fail  error
}

func (r *recordingIssuer) Issue(recipient [20]byte, itemID uint64, quantity uint64) error {
	if r.fail != nil {
		return r.fail
	}
	r.calls = append(r.calls, issueCall{recipient: recipient, itemID: itemID, quantity: quantity})
	return nil
}

type stubPauses bool

func (s stubPauses) IsPaused(string) bool { return bool(s) }

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestEngine(t *testing.T, state *mockState) (*Engine, *recordingIssuer) {
	t.Helper()
	engine := NewEngine()
	engine.SetState(state)
	issuer := &recordingIssuer{}
	engine.SetIssuer(issuer)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, issuer
}

func addItem(state *mockState, id uint64, creator [20]byte, unitPrice int64, maxSupply uint64) {
	state.items[id] = &catalog.Item{
		ID:        id,
		Title:     "Track",
		Creator:   creator,
		UnitPrice: big.NewInt(unitPrice),
		MaxSupply: maxSupply,
	}
}

func TestMintSingleDistributesSplitsAndFee(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	a, b, c := addr(0x0a), addr(0x0b), addr(0x0c)
	buyer := addr(0x02)
	feeSink := addr(0x0f)

	addItem(state, 1, creator, 950_000, 100)
	state.configs[1] = &splits.Config{ItemID: 1, Entries: []splits.ShareEntry{
		{Recipient: a, ShareBps: 7000},
		{Recipient: b, ShareBps: 2000},
		{Recipient: c, ShareBps: 1000},
	}}
	state.policy = &fees.Policy{Fee: big.NewInt(50_000), Recipient: feeSink}
	state.fund(buyer, 1_000_000)

	engine, issuer := newTestEngine(t, state)
	receipt, err := engine.MintSingle(buyer, 1, 1, buyer)
	if err != nil {
		t.Fatalf("MintSingle: %v", err)
	}
	if got := receipt.TotalPaid.Int64(); got != 1_000_000 {
		t.Fatalf("TotalPaid = %d, want 1000000", got)
	}
	if got := state.balance(buyer).Int64(); got != 0 {
		t.Fatalf("buyer balance = %d, want 0", got)
	}
	for _, tc := range []struct {
		addr [20]byte
		want int64
	}{{feeSink, 50_000}, {a, 665_000}, {b, 190_000}, {c, 95_000}} {
		if got := state.balance(tc.addr).Int64(); got != tc.want {
			t.Fatalf("balance(%x) = %d, want %d", tc.addr[19], got, tc.want)
		}
	}
	if len(issuer.calls) != 1 || issuer.calls[0].quantity != 1 {
		t.Fatalf("unexpected issuance calls: %+v", issuer.calls)
	}
	if got := state.items[1].CurrentSupply; got != 1 {
		t.Fatalf("CurrentSupply = %d, want 1", got)
	}
	// Fee payout first, flagged as fee.
	if len(receipt.Payouts) != 4 || !receipt.Payouts[0].IsFee {
		t.Fatalf("unexpected payouts: %+v", receipt.Payouts)
	}
}

func TestMintSingleRemainderGoesToLastRecipient(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	a, b, c := addr(0x0a), addr(0x0b), addr(0x0c)
	buyer := addr(0x02)

	addItem(state, 1, creator, 1_000_001, 0)
	state.configs[1] = &splits.Config{ItemID: 1, Entries: []splits.ShareEntry{
		{Recipient: a, ShareBps: 3333},
		{Recipient: b, ShareBps: 3333},
		{Recipient: c, ShareBps: 3334},
	}}
	state.fund(buyer, 1_000_001)

	engine, _ := newTestEngine(t, state)
	if _, err := engine.MintSingle(buyer, 1, 1, buyer); err != nil {
		t.Fatalf("MintSingle: %v", err)
	}
	if got := state.balance(a).Int64(); got != 333_300 {
		t.Fatalf("balance(a) = %d, want 333300", got)
	}
	if got := state.balance(b).Int64(); got != 333_300 {
		t.Fatalf("balance(b) = %d, want 333300", got)
	}
	if got := state.balance(c).Int64(); got != 333_401 {
		t.Fatalf("balance(c) = %d, want 333401", got)
	}
}

func TestMintSingleDefaultsToCreatorWithoutSplits(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	buyer := addr(0x02)
	addItem(state, 1, creator, 500, 0)
	state.fund(buyer, 1_500)

	engine, _ := newTestEngine(t, state)
	receipt, err := engine.MintSingle(buyer, 1, 3, buyer)
	if err != nil {
		t.Fatalf("MintSingle: %v", err)
	}
	if got := state.balance(creator).Int64(); got != 1_500 {
		t.Fatalf("creator balance = %d, want 1500", got)
	}
	if got := receipt.TotalPaid.Int64(); got != 1_500 {
		t.Fatalf("TotalPaid = %d, want 1500", got)
	}
}

func TestMintSingleSupplyExceededLeavesStateUntouched(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	buyer := addr(0x02)
	addItem(state, 1, creator, 100, 10)
	state.fund(buyer, 10_000)

	engine, issuer := newTestEngine(t, state)
	if _, err := engine.MintSingle(buyer, 1, 11, buyer); !errors.Is(err, ErrSupplyExceeded) {
		t.Fatalf("err = %v, want ErrSupplyExceeded", err)
	}
	if got := state.items[1].CurrentSupply; got != 0 {
		t.Fatalf("CurrentSupply = %d, want 0", got)
	}
	if got := state.balance(buyer).Int64(); got != 10_000 {
		t.Fatalf("buyer balance = %d, want 10000", got)
	}
	if len(issuer.calls) != 0 {
		t.Fatalf("issuer called on failed settlement: %+v", issuer.calls)
	}
}

func TestMintSingleInsufficientPayment(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 1_000, 0)
	buyer := addr(0x02)
	state.fund(buyer, 999)

	engine, issuer := newTestEngine(t, state)
	if _, err := engine.MintSingle(buyer, 1, 1, buyer); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("err = %v, want ErrInsufficientPayment", err)
	}
	if got := state.balance(buyer).Int64(); got != 999 {
		t.Fatalf("buyer balance = %d, want 999", got)
	}
	if len(issuer.calls) != 0 {
		t.Fatalf("issuer called on failed settlement: %+v", issuer.calls)
	}
}

func TestMintSingleInputValidation(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 100, 0)
	buyer := addr(0x02)
	state.fund(buyer, 1_000_000)
	engine, _ := newTestEngine(t, state)

	if _, err := engine.MintSingle(buyer, 1, 0, buyer); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: err = %v, want ErrInvalidQuantity", err)
	}
	if _, err := engine.MintSingle(buyer, 1, MaxMintQuantity+1, buyer); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("over max quantity: err = %v, want ErrInvalidQuantity", err)
	}
	if _, err := engine.MintSingle(buyer, 42, 1, buyer); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("unknown item: err = %v, want ErrItemNotFound", err)
	}
	if _, err := engine.MintSingle([20]byte{}, 1, 1, buyer); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero buyer: err = %v, want ErrZeroAddress", err)
	}
	if _, err := engine.MintSingle(buyer, 1, 1, [20]byte{}); !errors.Is(err, ErrZeroAddress) {
		t.Fatalf("zero recipient: err = %v, want ErrZeroAddress", err)
	}
}

func TestMintSinglePaused(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 100, 0)
	buyer := addr(0x02)
	state.fund(buyer, 1_000)

	engine, _ := newTestEngine(t, state)
	engine.SetPauses(stubPauses(true))
	if _, err := engine.MintSingle(buyer, 1, 1, buyer); !errors.Is(err, common.ErrPaused) {
		t.Fatalf("err = %v, want ErrPaused", err)
	}
}

func TestMintSingleFeeRecipientUnset(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 100, 0)
	buyer := addr(0x02)
	state.fund(buyer, 1_000)
	state.policy = &fees.Policy{Fee: big.NewInt(50)}

	engine, _ := newTestEngine(t, state)
	if _, err := engine.MintSingle(buyer, 1, 1, buyer); !errors.Is(err, ErrFeeRecipientUnset) {
		t.Fatalf("err = %v, want ErrFeeRecipientUnset", err)
	}
}

func TestMintSingleOverflow(t *testing.T) {
	state := newMockState()
	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	state.items[1] = &catalog.Item{ID: 1, Title: "Track", Creator: addr(0x01), UnitPrice: huge}
	buyer := addr(0x02)
	state.fund(buyer, 1_000)

	engine, _ := newTestEngine(t, state)
	if _, err := engine.MintSingle(buyer, 1, 4, buyer); !errors.Is(err, ErrOverflow) {
		t.Fatalf("err = %v, want ErrOverflow", err)
	}
}

func TestMintSingleRejectsReentrantCall(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 100, 0)
	buyer := addr(0x02)
	state.fund(buyer, 1_000)

	engine, _ := newTestEngine(t, state)
	malicious := &reentrantIssuer{engine: engine, buyer: buyer}
	engine.SetIssuer(malicious)

	if _, err := engine.MintSingle(buyer, 1, 1, buyer); err != nil {
		t.Fatalf("outer mint: %v", err)
	}
	if !errors.Is(malicious.innerErr, ErrReentrant) {
		t.Fatalf("inner err = %v, want ErrReentrant", malicious.innerErr)
	}
	// Only the outer settlement touched supply.
	if got := state.items[1].CurrentSupply; got != 1 {
		t.Fatalf("CurrentSupply = %d, want 1", got)
	}
}

type reentrantIssuer struct {
	engine   *Engine
	buyer    [20]byte
	innerErr error
}

func (r *reentrantIssuer) Issue(recipient [20]byte, itemID uint64, quantity uint64) error {
	_, r.innerErr = r.engine.MintSingle(r.buyer, itemID, quantity, recipient)
	return nil
}

func TestMintSingleIssuerFailureAbortsBeforeWrites(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 100, 0)
	buyer := addr(0x02)
	state.fund(buyer, 1_000)

	engine, issuer := newTestEngine(t, state)
	issuer.fail = errors.New("ownership registry down")
	if _, err := engine.MintSingle(buyer, 1, 1, buyer); err == nil {
		t.Fatal("expected issuer failure to surface")
	}
	if got := state.balance(buyer).Int64(); got != 1_000 {
		t.Fatalf("buyer balance = %d, want 1000", got)
	}
	if got := state.items[1].CurrentSupply; got != 0 {
		t.Fatalf("CurrentSupply = %d, want 0", got)
	}
}

func TestMintBatchChargesFeeOnce(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	buyer := addr(0x02)
	feeSink := addr(0x0f)
	addItem(state, 1, creator, 1_000, 0)
	addItem(state, 2, creator, 2_000, 0)
	state.policy = &fees.Policy{Fee: big.NewInt(500), Recipient: feeSink}
	state.fund(buyer, 10_000)

	engine, issuer := newTestEngine(t, state)
	receipts, err := engine.MintBatch(buyer, []uint64{1, 2}, []uint64{2, 1}, buyer)
	if err != nil {
		t.Fatalf("MintBatch: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("len(receipts) = %d, want 2", len(receipts))
	}
	// 2*1000 + 1*2000 + 500 fee.
	total := new(big.Int)
	for _, receipt := range receipts {
		total.Add(total, receipt.TotalPaid)
	}
	if total.Int64() != 4_500 {
		t.Fatalf("sum TotalPaid = %d, want 4500", total.Int64())
	}
	if got := state.balance(buyer).Int64(); got != 5_500 {
		t.Fatalf("buyer balance = %d, want 5500", got)
	}
	if got := state.balance(feeSink).Int64(); got != 500 {
		t.Fatalf("fee sink balance = %d, want 500", got)
	}
	// First receipt carries the batch fee.
	if len(receipts[0].Payouts) == 0 || !receipts[0].Payouts[0].IsFee {
		t.Fatalf("first receipt missing fee payout: %+v", receipts[0].Payouts)
	}
	for _, payout := range receipts[1].Payouts {
		if payout.IsFee {
			t.Fatalf("second receipt carries a fee payout: %+v", receipts[1].Payouts)
		}
	}
	if len(issuer.calls) != 2 {
		t.Fatalf("issuance calls = %d, want 2", len(issuer.calls))
	}
}

func TestMintBatchAllOrNothing(t *testing.T) {
	state := newMockState()
	creator := addr(0x01)
	buyer := addr(0x02)
	addItem(state, 1, creator, 1_000, 0)
	addItem(state, 2, creator, 2_000, 5)
	state.fund(buyer, 100_000)

	engine, issuer := newTestEngine(t, state)
	_, err := engine.MintBatch(buyer, []uint64{1, 2}, []uint64{1, 6}, buyer)
	if !errors.Is(err, ErrSupplyExceeded) {
		t.Fatalf("err = %v, want ErrSupplyExceeded", err)
	}
	if got := state.balance(buyer).Int64(); got != 100_000 {
		t.Fatalf("buyer balance = %d, want 100000", got)
	}
	if got := state.items[1].CurrentSupply; got != 0 {
		t.Fatalf("item 1 CurrentSupply = %d, want 0", got)
	}
	if len(issuer.calls) != 0 {
		t.Fatalf("issuer called on failed batch: %+v", issuer.calls)
	}
}

func TestMintBatchDuplicateItemCountsCumulatively(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 100, 10)
	buyer := addr(0x02)
	state.fund(buyer, 10_000)

	engine, _ := newTestEngine(t, state)
	if _, err := engine.MintBatch(buyer, []uint64{1, 1}, []uint64{6, 6}, buyer); !errors.Is(err, ErrSupplyExceeded) {
		t.Fatalf("err = %v, want ErrSupplyExceeded", err)
	}

	// Within the cap the duplicate entries settle and supply advances once
	// per unit, not once per entry.
	receipts, err := engine.MintBatch(buyer, []uint64{1, 1}, []uint64{6, 4}, buyer)
	if err != nil {
		t.Fatalf("MintBatch: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("len(receipts) = %d, want 2", len(receipts))
	}
	if got := state.items[1].CurrentSupply; got != 10 {
		t.Fatalf("CurrentSupply = %d, want 10", got)
	}
}

func TestMintBatchBounds(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 100, 0)
	buyer := addr(0x02)
	state.fund(buyer, 1_000)
	engine, _ := newTestEngine(t, state)

	if _, err := engine.MintBatch(buyer, []uint64{1, 2}, []uint64{1}, buyer); !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("arity mismatch: err = %v, want ErrArityMismatch", err)
	}
	if _, err := engine.MintBatch(buyer, nil, nil, buyer); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("empty batch: err = %v, want ErrInvalidQuantity", err)
	}
	ids := make([]uint64, MaxBatchItems+1)
	quantities := make([]uint64, MaxBatchItems+1)
	for i := range ids {
		ids[i] = 1
		quantities[i] = 1
	}
	if _, err := engine.MintBatch(buyer, ids, quantities, buyer); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("oversized batch: err = %v, want ErrBatchTooLarge", err)
	}
}

func TestQuoteCost(t *testing.T) {
	state := newMockState()
	addItem(state, 1, addr(0x01), 950_000, 0)
	state.policy = &fees.Policy{Fee: big.NewInt(50_000), Recipient: addr(0x0f)}

	engine, _ := newTestEngine(t, state)
	cost, err := engine.QuoteCost(1, 2)
	if err != nil {
		t.Fatalf("QuoteCost: %v", err)
	}
	if cost.Int64() != 1_950_000 {
		t.Fatalf("cost = %d, want 1950000", cost.Int64())
	}
	if _, err := engine.QuoteCost(1, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: err = %v, want ErrInvalidQuantity", err)
	}
	if _, err := engine.QuoteCost(7, 1); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("unknown item: err = %v, want ErrItemNotFound", err)
	}
}

func TestPlanPayoutsDropsZeroAmounts(t *testing.T) {
	a, b := addr(0x0a), addr(0x0b)
	payouts := planPayouts(big.NewInt(1), []splits.ShareEntry{
		{Recipient: a, ShareBps: 5000},
		{Recipient: b, ShareBps: 5000},
	}, addr(0x01))
	// floor(1 * 5000 / 10000) == 0 for the first entry; the last absorbs
	// the whole unit.
	if len(payouts) != 1 {
		t.Fatalf("len(payouts) = %d, want 1", len(payouts))
	}
	if payouts[0].Payee != b || payouts[0].Amount.Int64() != 1 {
		t.Fatalf("unexpected payout: %+v", payouts[0])
	}
}

func TestPlanPayoutsSumToRevenue(t *testing.T) {
	entries := []splits.ShareEntry{
		{Recipient: addr(0x0a), ShareBps: 1700},
		{Recipient: addr(0x0b), ShareBps: 3300},
		{Recipient: addr(0x0c), ShareBps: 5000},
	}
	for _, revenue := range []int64{1, 99, 10_000, 999_999, 123_456_789} {
		payouts := planPayouts(big.NewInt(revenue), entries, addr(0x01))
		sum := new(big.Int)
		for _, payout := range payouts {
			sum.Add(sum, payout.Amount)
		}
		if sum.Int64() != revenue {
			t.Fatalf("revenue %d: payouts sum to %d", revenue, sum.Int64())
		}
	}
}
