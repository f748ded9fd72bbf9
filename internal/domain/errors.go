package domain

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrNoEmbedding = errors.New("no embedding for market")
	ErrLockHeld    = errors.New("lock already held")
)
