package repositories

import "errors"

// Errors returned by every repository implementation. Services translate
// them into API error kinds.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrStale             = errors.New("record changed since it was read")
	ErrSizeNotFound      = errors.New("size not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)
