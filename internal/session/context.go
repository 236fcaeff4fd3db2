package session

import (
	"context"

	"github.com/sakif/gobarber/internal/apperror"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying store.
func NewContext(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

// FromContext returns the store attached by NewContext. A context without a
// store is a wiring bug, so it is reported as apperror.ErrConfiguration rather
// than papered over with an empty store.
func FromContext(ctx context.Context) (*Store, error) {
	store, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || store == nil {
		return nil, apperror.Configuration("session: no store in context (missing session.NewContext)")
	}
	return store, nil
}
