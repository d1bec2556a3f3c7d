package cart

import "context"

// Op is the remote phase of a mutation. Its local phase has already been
// published by the time the caller receives it.
type Op struct {
	done chan struct{}
	err  error
}

func newOp() *Op {
	return &Op{done: make(chan struct{})}
}

func completed(err error) *Op {
	op := newOp()
	op.finish(err)
	return op
}

func (o *Op) finish(err error) {
	o.err = err
	close(o.done)
}

// Done is closed once the backend has answered.
func (o *Op) Done() <-chan struct{} { return o.done }

// Wait blocks until the backend answers or ctx ends. Giving up on the wait
// does not cancel the remote call.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
