package cache

// Status tells apart a clean success from one that lost a non-fatal step.
type Status int

const (
	StatusOK Status = iota
	// StatusDegraded means the data is good but something on the way
	// failed, e.g. the durable write was rejected.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Outcome reports how a Set went.
type Outcome struct {
	Status  Status
	Warning error
}

func (o Outcome) Degraded() bool {
	return o.Status == StatusDegraded
}

func degraded(err error) Outcome {
	return Outcome{Status: StatusDegraded, Warning: err}
}

// Result is data plus the outcome of obtaining it. Hard failures are
// returned as a separate error and never appear here.
type Result[T any] struct {
	Data      T
	Status    Status
	Warning   error
	FromCache bool
}

func (r Result[T]) Degraded() bool {
	return r.Status == StatusDegraded
}

// Hit wraps data served from the cache.
func Hit[T any](data T) Result[T] {
	return Result[T]{Data: data, Status: StatusOK, FromCache: true}
}

// Fresh wraps data that was just fetched and stored with outcome o.
func Fresh[T any](data T, o Outcome) Result[T] {
	return Result[T]{Data: data, Status: o.Status, Warning: o.Warning}
}
