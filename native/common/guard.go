package common

import "errors"

// ErrPaused is returned by every mutating entrypoint while the market
// kill-switch is engaged.
var ErrPaused = errors.New("market paused")

// PauseView exposes the pause toggle consulted before any mutation.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the named module is paused. A nil view or empty
// module name is treated as unpaused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrPaused
	}
	return nil
}

// IsZeroAddress reports whether addr is the null identity.
func IsZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}
