package catalog

import "errors"

var (
	ErrNilState      = errors.New("catalog: state not configured")
	ErrInvalidInput  = errors.New("catalog: invalid input")
	ErrZeroAddress   = errors.New("catalog: zero address")
	ErrItemNotFound  = errors.New("catalog: item not found")
	ErrNotAuthorized = errors.New("catalog: not authorized")
)
