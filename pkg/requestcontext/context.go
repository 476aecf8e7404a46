// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Values are set by middleware and consumed by
// services; keeping the package free of net/http lets services import only
// what they need.
//
// Usage in services (read values):
//
//	ownerID := requestcontext.UserID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "trustbridge/pkg/domain"
)

type (
	userIDKey      struct{}
	userNameKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithUserID stores the authenticated owner in the context.
func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated owner, or the zero UserID when absent.
func UserID(ctx context.Context) id.UserID {
	userID, ok := ctx.Value(userIDKey{}).(id.UserID)
	if !ok {
		return id.UserID{}
	}
	return userID
}

// WithUserName stores the authenticated owner's display name.
func WithUserName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, userNameKey{}, name)
}

// UserName returns the owner's display name, or "" when the access token did
// not carry one.
func UserName(ctx context.Context) string {
	name, ok := ctx.Value(userNameKey{}).(string)
	if !ok {
		return ""
	}
	return name
}

// WithRequestID stores the request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request correlation id, or "" when absent.
func RequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDKey{}).(string)
	if !ok {
		return ""
	}
	return requestID
}

// WithTime pins "now" for the rest of the request. Tests use it to make
// time-dependent logic (claim windows, credential expiry) deterministic.
func WithTime(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, now)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	now, ok := ctx.Value(requestTimeKey{}).(time.Time)
	if !ok {
		return time.Now().UTC()
	}
	return now
}
