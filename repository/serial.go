package repository

import (
	"context"
	"sync"

	"github.com/atdgo/backend/domain"
)

// Serialized funnels every operation through a single worker so logical
// read-modify-write sequences against shared documents (the registry, the
// global session pointer) are applied in submission order rather than
// interleaved. The store itself has no transactions; this is the one
// concurrency discipline the system relies on.
type Serialized struct {
	inner KV
	ops   chan func()

	closeOnce sync.Once
	closed    chan struct{}
	drained   chan struct{}
}

// NewSerialized wraps a store with the FIFO write queue and starts its worker.
// depth bounds how many operations may wait before submitters block.
func NewSerialized(inner KV, depth int) *Serialized {
	if depth <= 0 {
		depth = 64
	}
	s := &Serialized{
		inner:   inner,
		ops:     make(chan func(), depth),
		closed:  make(chan struct{}),
		drained: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Serialized) run() {
	defer close(s.drained)
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.closed:
			// Drain what was already queued, then stop.
			for {
				select {
				case op := <-s.ops:
					op()
				default:
					return
				}
			}
		}
	}
}

// Close stops the worker after running every queued operation.
func (s *Serialized) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
	<-s.drained
}

// submit runs fn on the worker and waits for it, preserving program order of
// submission. The turn is released even when fn fails.
func (s *Serialized) submit(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case s.ops <- wrapped:
	case <-s.closed:
		return domain.ErrStorageUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.drained:
		// Worker exited before reaching the operation.
		select {
		case <-done:
			return nil
		default:
			return domain.ErrStorageUnavailable
		}
	}
}

// Do runs fn on the worker as one indivisible unit. fn receives the inner
// store directly, so a whole load-mutate-save sequence holds the worker for
// its duration and no other operation can slip between its reads and writes.
func (s *Serialized) Do(ctx context.Context, fn func(kv KV) error) error {
	var err error
	if serr := s.submit(ctx, func() { err = fn(s.inner) }); serr != nil {
		return serr
	}
	return err
}

func (s *Serialized) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value []byte
		err   error
	)
	if serr := s.submit(ctx, func() { value, err = s.inner.Get(ctx, key) }); serr != nil {
		return nil, serr
	}
	return value, err
}

func (s *Serialized) Set(ctx context.Context, key string, value []byte) error {
	var err error
	if serr := s.submit(ctx, func() { err = s.inner.Set(ctx, key, value) }); serr != nil {
		return serr
	}
	return err
}

func (s *Serialized) Delete(ctx context.Context, key string) error {
	var err error
	if serr := s.submit(ctx, func() { err = s.inner.Delete(ctx, key) }); serr != nil {
		return serr
	}
	return err
}

func (s *Serialized) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys []string
		err  error
	)
	if serr := s.submit(ctx, func() { keys, err = s.inner.Keys(ctx, prefix) }); serr != nil {
		return nil, serr
	}
	return keys, err
}

var _ KV = (*Serialized)(nil)
var _ Atomic = (*Serialized)(nil)
