// Package metrics exposes SimpleWeb Prometheus metrics on a dedicated listener.
package metrics
