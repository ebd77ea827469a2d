package fees

import (
	"math/big"

	"tunemint/core/events"
	"tunemint/native/common"
)

type engineState interface {
	FeePolicyGet() (*Policy, bool, error)
	FeePolicyPut(policy *Policy) error
	MarketOwner() ([20]byte, bool, error)
	MarketPaused() (bool, error)
	SetMarketPaused(paused bool) error
}

// Engine administers the platform fee policy and the global kill-switch.
// Every mutation is owner-only.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a fee policy engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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

func (e *Engine) requireOwner(caller [20]byte) error {
	owner, ok, err := e.state.MarketOwner()
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrNotAuthorized
	}
	return nil
}

// Policy returns the current fee policy. An unset policy reads as zero fee.
func (e *Engine) Policy() (*Policy, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	policy, ok, err := e.state.FeePolicyGet()
	if err != nil {
		return nil, err
	}
	if !ok || policy == nil {
		return &Policy{Fee: big.NewInt(0)}, nil
	}
	return policy.Clone(), nil
}

// SetFee updates the flat per-settlement fee, bounded by FeeCeiling.
func (e *Engine) SetFee(caller [20]byte, newFee *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if newFee == nil || newFee.Sign() < 0 {
		return ErrInvalidAmount
	}
	if newFee.Cmp(FeeCeiling) > 0 {
		return ErrFeeExceedsCeiling
	}
	policy, err := e.Policy()
	if err != nil {
		return err
	}
	oldFee := policy.FlatFee()
	policy.Fee = new(big.Int).Set(newFee)
	if err := e.state.FeePolicyPut(policy); err != nil {
		return err
	}
	e.emit(events.FeeUpdated{OldFee: oldFee, NewFee: policy.Fee})
	return nil
}

// SetRecipient updates the address the platform fee is routed to.
func (e *Engine) SetRecipient(caller [20]byte, recipient [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if common.IsZeroAddress(recipient) {
		return ErrZeroAddress
	}
	policy, err := e.Policy()
	if err != nil {
		return err
	}
	old := policy.Recipient
	policy.Recipient = recipient
	if err := e.state.FeePolicyPut(policy); err != nil {
		return err
	}
	e.emit(events.FeeRecipientUpdated{OldRecipient: old, NewRecipient: recipient})
	return nil
}

// Pause engages the global kill-switch: every mutating market entrypoint
// fails until Unpause.
func (e *Engine) Pause(caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	paused, err := e.state.MarketPaused()
	if err != nil {
		return err
	}
	if paused {
		return ErrAlreadyPaused
	}
	if err := e.state.SetMarketPaused(true); err != nil {
		return err
	}
	e.emit(events.MarketPaused{By: caller})
	return nil
}

// Unpause releases the global kill-switch.
func (e *Engine) Unpause(caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	paused, err := e.state.MarketPaused()
	if err != nil {
		return err
	}
	if !paused {
		return ErrNotPaused
	}
	if err := e.state.SetMarketPaused(false); err != nil {
		return err
	}
	e.emit(events.MarketUnpaused{By: caller})
	return nil
}
