package catalog

import (
	"math/big"
	"strings"
	"time"

	"tunemint/core/events"
	"tunemint/native/common"
)

const pauseModule = "catalog"

type engineState interface {
	NextItemID() (uint64, error)
	ItemGet(id uint64) (*Item, bool, error)
	ItemPut(item *Item) error
	CreatorItems(creator [20]byte) ([]uint64, error)
	SetCreatorItems(creator [20]byte, ids []uint64) error
	MarketOwner() ([20]byte, bool, error)
}

// Engine owns item records and the creator index.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewEngine constructs a catalog engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
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

// SetNowFunc overrides the time source for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
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

func (e *Engine) isOwner(caller [20]byte) (bool, error) {
	owner, ok, err := e.state.MarketOwner()
	if err != nil {
		return false, err
	}
	return ok && owner == caller, nil
}

// CreateItem registers a new item and appends it to the creator's index.
// Registration is open: any non-zero creator identity may list.
func (e *Engine) CreateItem(creator [20]byte, title string, unitPrice *big.Int, maxSupply uint64, metadataRef string) (*Item, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := common.Guard(e.pauses, pauseModule); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(creator) {
		return nil, ErrZeroAddress
	}
	title = strings.TrimSpace(title)
	metadataRef = strings.TrimSpace(metadataRef)
	if title == "" || metadataRef == "" {
		return nil, ErrInvalidInput
	}
	if unitPrice == nil {
		unitPrice = big.NewInt(0)
	}
	if unitPrice.Sign() < 0 {
		return nil, ErrInvalidInput
	}
	id, err := e.state.NextItemID()
	if err != nil {
		return nil, err
	}
	item := &Item{
		ID:          id,
		Title:       title,
		Creator:     creator,
		UnitPrice:   new(big.Int).Set(unitPrice),
		MaxSupply:   maxSupply,
		MetadataRef: metadataRef,
		CreatedAt:   uint64(e.now()),
	}
	if err := e.state.ItemPut(item); err != nil {
		return nil, err
	}
	index, err := e.state.CreatorItems(creator)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetCreatorItems(creator, append(index, id)); err != nil {
		return nil, err
	}
	e.emit(events.ItemCreated{
		ID:        item.ID,
		Title:     item.Title,
		Creator:   item.Creator,
		UnitPrice: item.UnitPrice,
		MaxSupply: item.MaxSupply,
	})
	return item.Clone(), nil
}

// UpdateItem mutates the item's title, metadata reference, or price. Nil
// arguments leave the corresponding field untouched. Only the item creator or
// the market owner may update.
func (e *Engine) UpdateItem(caller [20]byte, id uint64, newTitle *string, newMetadataRef *string, newPrice *big.Int) (*Item, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := common.Guard(e.pauses, pauseModule); err != nil {
		return nil, err
	}
	item, ok, err := e.state.ItemGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || item == nil {
		return nil, ErrItemNotFound
	}
	if item.Creator != caller {
		owner, err := e.isOwner(caller)
		if err != nil {
			return nil, err
		}
		if !owner {
			return nil, ErrNotAuthorized
		}
	}
	if newTitle != nil {
		trimmed := strings.TrimSpace(*newTitle)
		if trimmed == "" {
			return nil, ErrInvalidInput
		}
		item.Title = trimmed
	}
	if newMetadataRef != nil {
		trimmed := strings.TrimSpace(*newMetadataRef)
		if trimmed == "" {
			return nil, ErrInvalidInput
		}
		item.MetadataRef = trimmed
	}
	if newPrice != nil {
		if newPrice.Sign() < 0 {
			return nil, ErrInvalidInput
		}
		item.UnitPrice = new(big.Int).Set(newPrice)
	}
	if err := e.state.ItemPut(item); err != nil {
		return nil, err
	}
	e.emit(events.ItemUpdated{
		ID:          item.ID,
		Title:       item.Title,
		MetadataRef: item.MetadataRef,
		UnitPrice:   item.UnitPrice,
	})
	return item.Clone(), nil
}

// TransferCreator reassigns the creator identity and moves the item between
// both creators' indices. Removal from the old index is an unordered
// swap-with-last so index mutation stays O(1).
func (e *Engine) TransferCreator(caller [20]byte, id uint64, newCreator [20]byte) (*Item, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if err := common.Guard(e.pauses, pauseModule); err != nil {
		return nil, err
	}
	if common.IsZeroAddress(newCreator) {
		return nil, ErrZeroAddress
	}
	item, ok, err := e.state.ItemGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || item == nil {
		return nil, ErrItemNotFound
	}
	if item.Creator != caller {
		owner, err := e.isOwner(caller)
		if err != nil {
			return nil, err
		}
		if !owner {
			return nil, ErrNotAuthorized
		}
	}
	oldCreator := item.Creator
	if oldCreator == newCreator {
		return item.Clone(), nil
	}
	oldIndex, err := e.state.CreatorItems(oldCreator)
	if err != nil {
		return nil, err
	}
	for i, indexed := range oldIndex {
		if indexed == id {
			last := len(oldIndex) - 1
			oldIndex[i] = oldIndex[last]
			oldIndex = oldIndex[:last]
			break
		}
	}
	if err := e.state.SetCreatorItems(oldCreator, oldIndex); err != nil {
		return nil, err
	}
	newIndex, err := e.state.CreatorItems(newCreator)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetCreatorItems(newCreator, append(newIndex, id)); err != nil {
		return nil, err
	}
	item.Creator = newCreator
	if err := e.state.ItemPut(item); err != nil {
		return nil, err
	}
	e.emit(events.CreatorTransferred{ID: id, OldCreator: oldCreator, NewCreator: newCreator})
	return item.Clone(), nil
}

// GetItem returns the item without mutating state.
func (e *Engine) GetItem(id uint64) (*Item, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	item, ok, err := e.state.ItemGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || item == nil {
		return nil, ErrItemNotFound
	}
	return item.Clone(), nil
}

// CreatorItems returns the ids listed by the supplied creator. An empty slice
// is a valid answer for an unknown creator.
func (e *Engine) CreatorItems(creator [20]byte) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	ids, err := e.state.CreatorItems(creator)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out, nil
}
