package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ruteri/simpleweb/health"
	"github.com/ruteri/simpleweb/interfaces"
)

// SentinelName is the well-known object used to test storage reachability.
// It is never written by the application.
const SentinelName = ".healthcheck"

// NewProbe returns a health probe for provider. The probe fails when the
// backend is unreachable. For remote providers a round trip slower than
// degradedAfter reports Degraded; zero disables the latency check.
func NewProbe(provider interfaces.StorageProvider, degradedAfter time.Duration) health.ProbeFunc {
	sentinel := interfaces.StoredObjectRef{ID: SentinelName, Kind: provider.Kind()}

	return func(ctx context.Context) (interfaces.HealthStatus, string, error) {
		start := time.Now()

		if err := provider.Available(ctx); err != nil {
			return interfaces.Unhealthy, "", fmt.Errorf("%s: %w", provider.Name(), err)
		}

		// The sentinel normally does not exist; the call exercises the read path.
		provider.Exists(ctx, sentinel)

		elapsed := time.Since(start)
		if provider.Kind() == interfaces.RemoteStorage && degradedAfter > 0 && elapsed > degradedAfter {
			return interfaces.Degraded, fmt.Sprintf("%s responded in %s", provider.Name(), elapsed.Round(time.Millisecond)), nil
		}
		return interfaces.Healthy, "", nil
	}
}
