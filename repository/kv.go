package repository

import (
	"context"
	"encoding/json"

	"github.com/atdgo/backend/domain"
)

// KV is the durable string-keyed store every persisted byte goes through.
// Get returns (nil, nil) for absent keys. Enumeration order of Keys is
// unspecified; callers sort where ordering matters.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// GetJSON reads and decodes a key. Absent keys and corrupt payloads both
// report ok=false: a damaged record is treated as missing so the application
// keeps running on defaults instead of crashing.
func GetJSON(ctx context.Context, kv KV, key string, dest interface{}) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes and writes a value, normalizing write failures to the
// typed storage error so callers can surface them to the user.
func SetJSON(ctx context.Context, kv KV, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return domain.WrapError(domain.ErrCodeStorage, "encode value", err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return domain.WrapError(domain.ErrCodeStorage, domain.ErrStorageWriteFailed.Message, err)
	}
	return nil
}

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Atomic is implemented by stores that can run a whole function as one
// indivisible unit. Logical read-modify-write sequences (the registry
// document, the backup ring) must go through this, not through individual
// Get/Set calls, or two concurrent operations interleave and the last write
// wins.
type Atomic interface {
	Do(ctx context.Context, fn func(kv KV) error) error
}

// Atomically runs fn as one unit when the store supports it and inline
// otherwise. Plain stores (tests, single-writer setups) get the same
// semantics without the queue.
func Atomically(ctx context.Context, kv KV, fn func(KV) error) error {
	if a, ok := kv.(Atomic); ok {
		return a.Do(ctx, fn)
	}
	return fn(kv)
}
