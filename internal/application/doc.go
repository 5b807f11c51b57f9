// Package application provides application initialization and dependency wiring.
// It creates the shared diacritics settings, the HTTP handlers and router, the
// metrics endpoint and the HTTP server, and keeps the API version in step with
// the config file when watching is enabled.
package application
