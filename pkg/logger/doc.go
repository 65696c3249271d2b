// Package logger provides the structured slog logger used across the service,
// plus helpers to carry a request-scoped logger through a context.
package logger
