package splits

import "errors"

var (
	ErrNilState           = errors.New("splits: state not configured")
	ErrItemNotFound       = errors.New("splits: item not found")
	ErrNotAuthorized      = errors.New("splits: not authorized")
	ErrLocked             = errors.New("splits: configuration locked")
	ErrAlreadyLocked      = errors.New("splits: already locked")
	ErrTooManyRecipients  = errors.New("splits: too many recipients")
	ErrShareBelowMinimum  = errors.New("splits: share below minimum")
	ErrDuplicateRecipient = errors.New("splits: duplicate recipient")
	ErrZeroAddress        = errors.New("splits: zero address recipient")
	ErrInvalidTotal       = errors.New("splits: shares must sum to 10000")
)
