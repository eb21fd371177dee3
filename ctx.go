package authstate

import (
	"context"
)

var storeCtxKey = &contextKey{"store"}

type contextKey struct {
	name string
}

// WithContext sets the Store in the given context so applications can thread
// the shared access point through request handling instead of a global.
func WithContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeCtxKey, store)
}

// FromContext finds the Store in the context.
func FromContext(ctx context.Context) (*Store, bool) {
	raw, ok := ctx.Value(storeCtxKey).(*Store)
	return raw, ok
}
