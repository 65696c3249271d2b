// Package handler implements the HTTP handlers of the service: the
// background-removal proxy endpoint, static file serving and the health check.
// Every proxy failure is mapped to a JSON {"error": "..."} body at this
// boundary.
package handler
