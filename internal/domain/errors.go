package domain

import "errors"

// Hard errors surfaced to callers. Quote-source failures are never among
// them - price resolution degrades instead of failing.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateSymbol = errors.New("symbol already on watchlist")
)
