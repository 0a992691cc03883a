package shogi

import "errors"

var (
	ErrTruncatedInput  = errors.New("truncated input")
	ErrInvalidCode     = errors.New("invalid code")
	ErrSizeMismatch    = errors.New("size mismatch")
	ErrInvalidMove     = errors.New("invalid move")
	ErrInvalidPosition = errors.New("invalid position")
)
