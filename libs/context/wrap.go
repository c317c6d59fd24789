package context

import (
	"context"
	"time"
)

type detached struct {
	values context.Context
	context.Context
}

// Value looks key up in the detached context first, then in the original one.
func (d *detached) Value(key interface{}) interface{} {
	if v := d.Context.Value(key); v != nil {
		return v
	}
	return d.values.Value(key)
}

// Wrap returns a context with the deadline and cancellation of inner and the values of both.
func Wrap(values context.Context, inner context.Context) context.Context {
	return &detached{values: values, Context: inner}
}

// Detach returns a context that keeps the values of ctx but is cancelled only after timeout.
func Detach(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	inner, cancel := context.WithTimeout(context.Background(), timeout)
	return Wrap(ctx, inner), cancel
}
