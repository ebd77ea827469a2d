package splits

import (
	"tunemint/core/events"
	"tunemint/native/catalog"
	"tunemint/native/common"
)

const pauseModule = "splits"

type engineState interface {
	ItemGet(id uint64) (*catalog.Item, bool, error)
	SplitsGet(itemID uint64) (*Config, bool, error)
	SplitsPut(cfg *Config) error
}

// Engine owns per-item revenue split configurations and their lock state.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  common.PauseView
}

// NewEngine constructs a split ledger engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

// ValidateEntries enforces the split configuration rules: at most
// MaxRecipients entries, every share at least MinShareBps, distinct non-zero
// recipients, and shares summing to exactly TotalBps. An empty list is valid
// and means "everything to the creator".
func ValidateEntries(entries []ShareEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > MaxRecipients {
		return ErrTooManyRecipients
	}
	seen := make(map[[20]byte]struct{}, len(entries))
	var sum uint64
	for _, entry := range entries {
		if common.IsZeroAddress(entry.Recipient) {
			return ErrZeroAddress
		}
		if entry.ShareBps < MinShareBps {
			return ErrShareBelowMinimum
		}
		if _, dup := seen[entry.Recipient]; dup {
			return ErrDuplicateRecipient
		}
		seen[entry.Recipient] = struct{}{}
		sum += uint64(entry.ShareBps)
	}
	if sum != TotalBps {
		return ErrInvalidTotal
	}
	return nil
}

// Configure replaces the item's split configuration. Validation runs in full
// before anything is written, so a rejected call leaves the prior
// configuration untouched. Only the item creator may configure.
func (e *Engine) Configure(caller [20]byte, itemID uint64, entries []ShareEntry) (*Config, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := common.Guard(e.pauses, pauseModule); err != nil {
		return nil, err
	}
	item, ok, err := e.state.ItemGet(itemID)
	if err != nil {
		return nil, err
	}
	if !ok || item == nil {
		return nil, ErrItemNotFound
	}
	if item.Creator != caller {
		return nil, ErrNotAuthorized
	}
	existing, ok, err := e.state.SplitsGet(itemID)
	if err != nil {
		return nil, err
	}
	if ok && existing != nil && existing.Locked {
		return nil, ErrLocked
	}
	if err := ValidateEntries(entries); err != nil {
		return nil, err
	}
	cfg := &Config{ItemID: itemID, Entries: make([]ShareEntry, len(entries))}
	copy(cfg.Entries, entries)
	if err := e.state.SplitsPut(cfg); err != nil {
		return nil, err
	}
	rendered := make([]events.SplitEntry, len(cfg.Entries))
	for i, entry := range cfg.Entries {
		rendered[i] = events.SplitEntry{Recipient: entry.Recipient, ShareBps: entry.ShareBps}
	}
	e.emit(events.SplitsConfigured{ID: itemID, Entries: rendered})
	return cfg.Clone(), nil
}

// Lock makes the item's split configuration immutable. The transition is
// one-way; locking an item without a configuration pins the creator-takes-all
// default forever.
func (e *Engine) Lock(caller [20]byte, itemID uint64) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := common.Guard(e.pauses, pauseModule); err != nil {
		return err
	}
	item, ok, err := e.state.ItemGet(itemID)
	if err != nil {
		return err
	}
	if !ok || item == nil {
		return ErrItemNotFound
	}
	if item.Creator != caller {
		return ErrNotAuthorized
	}
	cfg, ok, err := e.state.SplitsGet(itemID)
	if err != nil {
		return err
	}
	if !ok || cfg == nil {
		cfg = &Config{ItemID: itemID}
	}
	if cfg.Locked {
		return ErrAlreadyLocked
	}
	cfg.Locked = true
	if err := e.state.SplitsPut(cfg); err != nil {
		return err
	}
	e.emit(events.SplitsLocked{ID: itemID})
	return nil
}

// Get returns the item's split entries. An empty slice is a valid, meaningful
// answer: the whole revenue goes to the creator.
func (e *Engine) Get(itemID uint64) ([]ShareEntry, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, ok, err := e.state.ItemGet(itemID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrItemNotFound
	}
	cfg, ok, err := e.state.SplitsGet(itemID)
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return []ShareEntry{}, nil
	}
	out := make([]ShareEntry, len(cfg.Entries))
	copy(out, cfg.Entries)
	return out, nil
}

// Locked reports whether the item's configuration is frozen.
func (e *Engine) Locked(itemID uint64) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	cfg, ok, err := e.state.SplitsGet(itemID)
	if err != nil {
		return false, err
	}
	return ok && cfg != nil && cfg.Locked, nil
}
