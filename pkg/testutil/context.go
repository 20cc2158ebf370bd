package testutil

import (
	"net/http"

	id "classreg/pkg/domain"
	"classreg/pkg/requestcontext"
)

// WithCaller puts account into the request context the way the auth
// middleware does for a valid bearer token.
func WithCaller(req *http.Request, account id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), account))
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
