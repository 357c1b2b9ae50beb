package store

import "errors"

// Sentinel errors for store operations. Use errors.Is() in calling code.
var (
	// ErrCollectionNotFound indicates the named collection was never created.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrEmptyText indicates the embedding step cannot process the input.
	ErrEmptyText = errors.New("cannot embed empty text")
)
