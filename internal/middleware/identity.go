package middleware

// identity.go carries the authenticated caller from the HTTP edge into the
// service layer through the request context.

import (
	"context"
	"fmt"

	"github.com/iliyamo/location-checkin/internal/model"
	"github.com/iliyamo/location-checkin/internal/service"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller stored by WithIdentity.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok
}

// Resolver implements service.IdentityResolver over the request context.
type Resolver struct{}

func (Resolver) CurrentIdentity(ctx context.Context) (model.Identity, error) {
	id, ok := IdentityFrom(ctx)
	if !ok {
		return model.Identity{}, fmt.Errorf("%w: no authenticated caller", service.ErrAccessDenied)
	}
	return id, nil
}
