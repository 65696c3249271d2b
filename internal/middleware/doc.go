// Package middleware holds the net/http middleware mounted on the router:
// request IDs, access logging, panic recovery and CORS.
package middleware
