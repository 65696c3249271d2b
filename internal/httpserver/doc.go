// Package httpserver wraps net/http.Server with address validation, fixed
// read and idle timeouts and a bounded graceful shutdown.
package httpserver
