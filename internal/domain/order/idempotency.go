package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// ErrDuplicateRequest is returned when a create with the same idempotency key
// is still being processed.
var ErrDuplicateRequest = errors.New("request with this idempotency key is in progress")

// IdempotencyStore remembers which order a client-supplied key produced.
type IdempotencyStore interface {
	// TryLock claims key. It reports false when key is already claimed.
	TryLock(ctx context.Context, key string) (bool, error)
	// Unlock releases a claim that did not produce an order.
	Unlock(ctx context.Context, key string) error
	Remember(ctx context.Context, key, orderID string) error
	Recall(ctx context.Context, key string) (orderID string, ok bool, err error)
}

// WithIdempotency enables CreateOnce deduplication through store.
func WithIdempotency(store IdempotencyStore) Option {
	return func(s *Service) { s.idem = store }
}

// CreateOnce creates an order at most once per key. A replay returns the order
// produced by the first request and replayed is true. Without a key or a
// configured store it behaves like Create.
func (s *Service) CreateOnce(ctx context.Context, key string, d Draft) (o *Order, replayed bool, err error) {
	if key == "" || s.idem == nil {
		o, err = s.Create(ctx, d)
		return o, false, err
	}
	lg := zctx.From(ctx).With(zap.String("idempotency_key", key))

	if o, ok, err := s.replay(ctx, key); err != nil || ok {
		return o, ok, err
	}

	locked, err := s.idem.TryLock(ctx, key)
	if err != nil {
		return nil, false, errors.Wrap(err, "lock idempotency key")
	}
	if !locked {
		// The holder may have finished since the first recall.
		if o, ok, err := s.replay(ctx, key); err != nil || ok {
			return o, ok, err
		}
		return nil, false, ErrDuplicateRequest
	}

	o, err = s.Create(ctx, d)
	if err != nil {
		if uerr := s.idem.Unlock(ctx, key); uerr != nil {
			lg.Warn("Release idempotency key failed", zap.Error(uerr))
		}
		return nil, false, err
	}
	if err := s.idem.Remember(ctx, key, o.ID); err != nil {
		lg.Warn("Remember idempotency key failed", zap.String("order_id", o.ID), zap.Error(err))
	}
	return o, false, nil
}

// replay returns the order remembered for key, if any.
func (s *Service) replay(ctx context.Context, key string) (*Order, bool, error) {
	id, ok, err := s.idem.Recall(ctx, key)
	if err != nil {
		return nil, false, errors.Wrap(err, "recall idempotency key")
	}
	if !ok {
		return nil, false, nil
	}
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}
