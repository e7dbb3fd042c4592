// Package inflight collapses concurrent requests for the same key into a
// single underlying operation.
package inflight

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Tracker deduplicates in-progress work per key. The zero value is not
// usable; construct with New and share one per process.
type Tracker struct {
	group   singleflight.Group
	started atomic.Int64
}

func New() *Tracker {
	return &Tracker{}
}

// Do runs produce once per key at a time. Callers arriving while a call for
// key is pending wait for and share its result or error. The key is
// released as soon as produce returns, before any waiter is woken, so work
// done inside produce (such as writing the cache) is visible to the next
// caller.
//
// produce runs detached from ctx: a caller that gives up stops waiting, but
// the work still completes for whoever asks next. The returned bool reports
// whether the result was shared with another caller.
func Do[T any](ctx context.Context, t *Tracker, key string, produce func(context.Context) (T, error)) (T, bool, error) {
	var zero T
	detached := context.WithoutCancel(ctx)
	ch := t.group.DoChan(key, func() (any, error) {
		t.started.Add(1)
		return produce(detached)
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Shared, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, res.Shared, fmt.Errorf("inflight %s: unexpected result type %T", key, res.Val)
		}
		return v, res.Shared, nil
	}
}

// Started reports how many producer calls have been launched since the
// tracker was created.
func (t *Tracker) Started() int64 {
	return t.started.Load()
}
