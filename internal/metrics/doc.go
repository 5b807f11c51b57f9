// Package metrics exposes Prometheus collectors for API version selection.
package metrics
