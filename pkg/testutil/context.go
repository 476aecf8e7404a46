package testutil

import (
	"net/http"
	"time"

	id "trustbridge/pkg/domain"
	"trustbridge/pkg/requestcontext"
)

// WithUserID adds an owner to the request context, simulating what the auth
// middleware does for authenticated requests.
func WithUserID(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// WithTime pins the request time so handlers under test see a fixed clock.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
