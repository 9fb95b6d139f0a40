package persistence

import "errors"

var (
	ErrNoDataDir = errors.New("no data directory configured")
	ErrNotOpen   = errors.New("store is not open")
)
