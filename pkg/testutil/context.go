package testutil

import (
	"net/http"

	id "attestor/pkg/domain"
	"attestor/pkg/requestcontext"
)

// WithActor adds an authenticated caller address to the request context,
// simulating what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, addr id.Address) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), addr)
	return req.WithContext(ctx)
}

// MustAddress parses an address literal, panicking on bad test data.
func MustAddress(s string) id.Address {
	addr, err := id.ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}
