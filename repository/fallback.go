package repository

import (
	"context"

	"go.uber.org/zap"
)

// Fallback prefers a remote store while the connection monitor reports it
// reachable and degrades to the local store otherwise. Successful remote
// writes are mirrored locally so a later offline restart still sees recent
// state.
type Fallback struct {
	remote KV
	local  KV
	health ConnectionHealth
	logger *zap.Logger
}

// NewFallback builds the remote-preferred store. remote may be nil, in which
// case the local store serves everything.
func NewFallback(remote, local KV, health ConnectionHealth, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{
		remote: remote,
		local:  local,
		health: health,
		logger: logger,
	}
}

func (f *Fallback) remoteAvailable() bool {
	if f.remote == nil {
		return false
	}
	return f.health == nil || f.health.IsOnline()
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	if f.remoteAvailable() {
		value, err := f.remote.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		f.logger.Warn("remote read failed, using local store", zap.String("key", key), zap.Error(err))
	}
	return f.local.Get(ctx, key)
}

func (f *Fallback) Set(ctx context.Context, key string, value []byte) error {
	if f.remoteAvailable() {
		if err := f.remote.Set(ctx, key, value); err != nil {
			f.logger.Warn("remote write failed, using local store", zap.String("key", key), zap.Error(err))
		} else {
			if err := f.local.Set(ctx, key, value); err != nil {
				f.logger.Debug("local mirror write failed", zap.String("key", key), zap.Error(err))
			}
			return nil
		}
	}
	return f.local.Set(ctx, key, value)
}

func (f *Fallback) Delete(ctx context.Context, key string) error {
	if f.remoteAvailable() {
		if err := f.remote.Delete(ctx, key); err != nil {
			f.logger.Warn("remote delete failed", zap.String("key", key), zap.Error(err))
		}
	}
	return f.local.Delete(ctx, key)
}

func (f *Fallback) Keys(ctx context.Context, prefix string) ([]string, error) {
	if f.remoteAvailable() {
		keys, err := f.remote.Keys(ctx, prefix)
		if err == nil {
			return keys, nil
		}
		f.logger.Warn("remote enumeration failed, using local store", zap.String("prefix", prefix), zap.Error(err))
	}
	return f.local.Keys(ctx, prefix)
}

var _ KV = (*Fallback)(nil)
