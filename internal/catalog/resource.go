package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"gigagivry/internal/cache"
	"gigagivry/internal/cachekey"
	"gigagivry/internal/inflight"
	"gigagivry/internal/relay"
)

// Deps are the long-lived services every catalog client shares.
type Deps struct {
	Cache   *cache.Store
	Tracker *inflight.Tracker
	Fetcher *relay.Fetcher
}

// resource is one cacheable upstream resource (a listing or a detail).
type resource[T any] struct {
	op     string
	deps   Deps
	decode func([]byte) (T, error)
	// check runs on a decoded payload before it is cached; an error
	// aborts the fetch without caching.
	check func(T) error
}

func (r resource[T]) key(params cachekey.Params) string {
	return cachekey.Encode(r.op, params)
}

func (r resource[T]) peek(ctx context.Context, params cachekey.Params) (T, bool) {
	return cache.Get[T](ctx, r.deps.Cache, r.key(params))
}

func (r resource[T]) fetch(ctx context.Context, params cachekey.Params, target string) (cache.Result[T], error) {
	key := r.key(params)
	if cached, ok := cache.Get[T](ctx, r.deps.Cache, key); ok {
		return cache.Hit(cached), nil
	}
	res, _, err := inflight.Do(ctx, r.deps.Tracker, key, func(ctx context.Context) (cache.Result[T], error) {
		var data T
		err := r.deps.Fetcher.Fetch(ctx, target, func(body []byte) error {
			v, err := r.decode(body)
			if err != nil {
				return err
			}
			data = v
			return nil
		})
		if err != nil {
			return cache.Result[T]{}, err
		}
		if r.check != nil {
			if err := r.check(data); err != nil {
				return cache.Result[T]{}, err
			}
		}
		return cache.Fresh(data, r.deps.Cache.Set(ctx, key, data)), nil
	})
	return res, err
}

// decodeList accepts a JSON array, or an upstream status object, which
// both APIs send instead of an empty array.
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var st upstreamStatus
		if err := json.Unmarshal(trimmed, &st); err != nil {
			return nil, err
		}
		if st.StatusMessage == "" {
			return nil, fmt.Errorf("expected a list, got an object")
		}
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// decodeDetail decodes a single record. A payload without an id, such as
// the status object sent for unknown ids, decodes to the zero T.
func decodeDetail[T any](body []byte) (T, error) {
	var out T
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return out, err
	}
	if len(probe.ID) == 0 || string(probe.ID) == "null" {
		return out, nil
	}
	err := json.Unmarshal(body, &out)
	return out, err
}
