// Package store abstracts the key-value store that holds all durable
// learning state: skills, test cases, and deployed prompts.
package store

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the underlying key-value store could not be
// reached. Callers detect it with errors.Is.
var ErrUnavailable = errors.New("key-value store unavailable")

// KV is the storage capability components depend on. Single-key operations
// are atomic; multi-key sequences are not transactional.
type KV interface {
	// Get returns the string value at key, or found=false if absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set writes a whole string value, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// HSet writes hash fields under key, overwriting existing fields.
	HSet(ctx context.Context, key string, fields map[string]string) error
	// HGet returns one hash field, or found=false if the field or key is absent.
	HGet(ctx context.Context, key, field string) (value string, found bool, err error)
	// HGetAll returns every field of the hash at key. Missing keys yield an
	// empty map, not an error.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// RPush appends values to the list at key, creating it if needed.
	RPush(ctx context.Context, key string, values ...string) error
	// LRange returns the full contents of the list at key, in append order.
	LRange(ctx context.Context, key string) ([]string, error)
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys enumerates keys matching a glob-style pattern. Order is stable
	// but implementation-defined.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
