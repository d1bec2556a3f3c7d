package identity

import "context"

// Nop is the Store used where no persistence exists, such as pre-rendering.
// Get reports no cart and Set is dropped.
type Nop struct{}

var _ Store = Nop{}

func (Nop) Get(context.Context) (string, error) { return "", nil }

func (Nop) Set(context.Context, string) error { return nil }

func (Nop) Subscribe(fn func(id string)) func() {
	fn("")
	return func() {}
}

func (Nop) Close() error { return nil }
