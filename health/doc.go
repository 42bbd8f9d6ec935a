// Package health aggregates independent subsystem probes into one status.
//
// Each probe is registered under a name and returns a status, an optional
// detail and an error. Check runs all probes concurrently on every call, with
// no caching, and reports results in registration order. Errors and panics
// are isolated per probe and reported as Unhealthy.
//
// The overall status is the most severe result:
//
//	Unhealthy > Degraded > Healthy
//
// An aggregator with no probes reports Healthy.
package health
