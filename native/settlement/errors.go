package settlement

import "errors"

var (
	ErrNilState            = errors.New("settlement: state not configured")
	ErrNilIssuer           = errors.New("settlement: issuer not configured")
	ErrItemNotFound        = errors.New("settlement: item not found")
	ErrZeroAddress         = errors.New("settlement: zero address")
	ErrInvalidQuantity     = errors.New("settlement: invalid quantity")
	ErrSupplyExceeded      = errors.New("settlement: supply exceeded")
	ErrBatchTooLarge       = errors.New("settlement: batch too large")
	ErrArityMismatch       = errors.New("settlement: item and quantity arity mismatch")
	ErrInsufficientPayment = errors.New("settlement: insufficient payment")
	ErrOverflow            = errors.New("settlement: arithmetic overflow")
	ErrReentrant           = errors.New("settlement: reentrant call")
	ErrFeeRecipientUnset   = errors.New("settlement: fee recipient not configured")
)
