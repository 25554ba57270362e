package handlers

import "net/http"

// Identify is the identity middleware applied to every API route. Handlers
// read the resolved user from the request context via the auth package.
type Identify func(http.HandlerFunc) http.HandlerFunc

// PassthroughIdentity applies no identity resolution. Used in tests and when
// the service runs without an auth layer.
func PassthroughIdentity(next http.HandlerFunc) http.HandlerFunc {
	return next
}
