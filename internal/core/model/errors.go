package model

import "errors"

var (
	ErrInvalidEntity    = errors.New("kg: invalid entity")
	ErrDegenerateTriple = errors.New("kg: degenerate triple")
	ErrInvalidTriple    = errors.New("kg: invalid triple")
	ErrInvalidQuery     = errors.New("kg: invalid query")
	ErrNotFound         = errors.New("kg: not found")
	ErrStoreNotEmpty    = errors.New("kg: store not empty")
)
