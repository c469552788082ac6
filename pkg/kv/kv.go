package kv

import "errors"

var (
	// ErrNotFound is returned by Get when the key has never been set.
	ErrNotFound = errors.New("kv: key not found")

	// ErrStoreUnavailable is returned when the store's critical section was
	// aborted and its contents can no longer be trusted.
	ErrStoreUnavailable = errors.New("kv: store unavailable")

	// ErrMalformedInput is returned by boundary decoders for payloads that
	// never reach the store.
	ErrMalformedInput = errors.New("kv: malformed input")
)

// KeyValue is the request/response payload for a single entry.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store defines the interface for a key-value store.
// Implementations must be safe for concurrent use; each call is atomic with
// respect to every other call.
type Store interface {
	// Get retrieves the value associated with the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string) (string, error)

	// Set stores a key-value pair, overwriting any previous value.
	// Returns an error if the operation fails.
	Set(key, value string) error
}
