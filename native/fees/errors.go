package fees

import "errors"

var (
	ErrNilState          = errors.New("fees: state not configured")
	ErrNotAuthorized     = errors.New("fees: not authorized")
	ErrZeroAddress       = errors.New("fees: zero address")
	ErrInvalidAmount     = errors.New("fees: invalid amount")
	ErrFeeExceedsCeiling = errors.New("fees: fee exceeds ceiling")
	ErrNotPaused         = errors.New("fees: market not paused")
	ErrAlreadyPaused     = errors.New("fees: market already paused")
)
