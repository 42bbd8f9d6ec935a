package interfaces

import (
	"encoding/json"
	"fmt"
	"time"
)

// HealthStatus is the outcome of a health probe. Values are ordered by severity.
type HealthStatus int

const (
	Healthy HealthStatus = iota
	Degraded
	Unhealthy
)

// String returns status name.
func (s HealthStatus) String() string {
	switch s {
	case Healthy:
		return "Healthy"
	case Degraded:
		return "Degraded"
	case Unhealthy:
		return "Unhealthy"
	default:
		return fmt.Sprintf("HealthStatus(%d)", int(s))
	}
}

// MarshalJSON encodes the status as its name.
func (s HealthStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name.
func (s *HealthStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "Healthy":
		*s = Healthy
	case "Degraded":
		*s = Degraded
	case "Unhealthy":
		*s = Unhealthy
	default:
		return fmt.Errorf("unknown health status %q", name)
	}
	return nil
}

// Worst returns the more severe of two statuses.
func Worst(a, b HealthStatus) HealthStatus {
	if b > a {
		return b
	}
	return a
}

// ProbeResult is the outcome of a single probe invocation.
type ProbeResult struct {
	Name     string        `json:"name"`
	Status   HealthStatus  `json:"status"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"-"`
}

// AggregateHealth is the folded result of all registered probes.
// Results follow probe registration order.
type AggregateHealth struct {
	Status  HealthStatus  `json:"status"`
	Results []ProbeResult `json:"results"`
}
