// Package config loads the service configuration from a YAML file, an optional
// .env file and environment variables. It covers the listen address, the
// remove.bg upstream settings, the static content root, metrics and logging.
package config
