package testutil

import (
	"net/http"

	"enrollment/pkg/requestcontext"
)

// WithSession binds sessionID to the request context the way the session
// token middleware does.
func WithSession(req *http.Request, sessionID string) *http.Request {
	return req.WithContext(requestcontext.WithSessionID(req.Context(), sessionID))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
