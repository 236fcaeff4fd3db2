// Package storage describes the durable key/value store the client keeps on the
// device. It mirrors the small surface a mobile async-storage module offers:
// batched get, set and remove of string values.
package storage

import "context"

// Pair is one key/value entry for MultiSet.
type Pair struct {
	Key   string
	Value string
}

// Store is the durable device storage.
//
// MultiGet returns only the keys that exist; a missing key is not an error.
// MultiSet and MultiRemove apply all entries or none.
type Store interface {
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)
	MultiSet(ctx context.Context, pairs ...Pair) error
	SetItem(ctx context.Context, key, value string) error
	MultiRemove(ctx context.Context, keys ...string) error
}
