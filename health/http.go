package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ruteri/simpleweb/interfaces"
)

// HTTPProbe checks a downstream dependency with a GET request.
// A 2xx response is Healthy, or Degraded when it took longer than
// degradedAfter (zero disables the latency check). Anything else is Unhealthy.
func HTTPProbe(client *http.Client, url string, degradedAfter time.Duration) ProbeFunc {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context) (interfaces.HealthStatus, string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return interfaces.Unhealthy, "", err
		}

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return interfaces.Unhealthy, "", err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		elapsed := time.Since(start)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return interfaces.Unhealthy, "", fmt.Errorf("unexpected status: %s", resp.Status)
		}
		if degradedAfter > 0 && elapsed > degradedAfter {
			return interfaces.Degraded, fmt.Sprintf("responded in %s", elapsed.Round(time.Millisecond)), nil
		}
		return interfaces.Healthy, "", nil
	}
}
