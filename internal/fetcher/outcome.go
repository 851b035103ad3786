package fetcher

// Outcome is the result of one fetch: either a value or a failure reason.
type Outcome[T any] struct {
	value  T
	reason string
	ok     bool
}

// Success wraps a fetched value.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

// Failure wraps a human-readable failure reason.
func Failure[T any](reason string) Outcome[T] {
	if reason == "" {
		reason = "unknown error"
	}
	return Outcome[T]{reason: reason}
}

// OK reports whether the outcome carries a value.
func (o Outcome[T]) OK() bool { return o.ok }

// Value returns the fetched value and true on success.
func (o Outcome[T]) Value() (T, bool) { return o.value, o.ok }

// Reason returns the failure reason, empty on success.
func (o Outcome[T]) Reason() string { return o.reason }

// Map converts a successful outcome with fn; a failing fn turns it into a failure.
func Map[T, U any](o Outcome[T], fn func(T) (U, error), reason func(error) string) Outcome[U] {
	if !o.ok {
		return Failure[U](o.reason)
	}
	out, err := fn(o.value)
	if err != nil {
		return Failure[U](reason(err))
	}
	return Success(out)
}
