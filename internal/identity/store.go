// Package identity persists the current cart id for a client and tells every
// execution context sharing that persistence when it changes.
package identity

import "context"

// Store holds the opaque id of the client's current cart. An empty id means
// no cart has been created yet.
type Store interface {
	Get(ctx context.Context) (string, error)
	// Set persists id and notifies all subscribers, including those attached
	// through other handles on the same persistence.
	Set(ctx context.Context, id string) error
	// Subscribe delivers the current id immediately and then every change in
	// the order changes were made, until unsubscribe is called.
	Subscribe(fn func(id string)) (unsubscribe func())
	Close() error
}
