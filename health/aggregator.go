package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ruteri/simpleweb/interfaces"
	"golang.org/x/sync/errgroup"
)

// DefaultProbeTimeout bounds a single probe invocation.
const DefaultProbeTimeout = 5 * time.Second

// ProbeFunc checks one subsystem. A non-nil error marks the probe Unhealthy
// regardless of the returned status; the detail string is optional.
type ProbeFunc func(ctx context.Context) (status interfaces.HealthStatus, detail string, err error)

// Observer is notified of every probe result.
type Observer func(result interfaces.ProbeResult)

type namedProbe struct {
	name  string
	probe ProbeFunc
}

// Aggregator runs a set of named probes and folds their results into one status.
type Aggregator struct {
	mu       sync.RWMutex
	probes   []namedProbe
	timeout  time.Duration
	observer Observer
	log      *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the per-probe timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.timeout = d
	}
}

// WithObserver registers a callback receiving each probe result.
func WithObserver(fn Observer) Option {
	return func(a *Aggregator) {
		a.observer = fn
	}
}

// NewAggregator creates an aggregator with no probes.
func NewAggregator(log *slog.Logger, opts ...Option) *Aggregator {
	if log == nil {
		log = slog.Default()
	}
	a := &Aggregator{
		timeout: DefaultProbeTimeout,
		log:     log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register adds a probe. Results are reported in registration order.
func (a *Aggregator) Register(name string, probe ProbeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.probes = append(a.probes, namedProbe{name: name, probe: probe})
}

// Names returns registered probe names in order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, len(a.probes))
	for i, p := range a.probes {
		names[i] = p.name
	}
	return names
}

// Check runs every registered probe concurrently and returns the worst-case
// aggregate. It never fails: probe errors and panics become Unhealthy results.
func (a *Aggregator) Check(ctx context.Context) interfaces.AggregateHealth {
	a.mu.RLock()
	probes := make([]namedProbe, len(a.probes))
	copy(probes, a.probes)
	a.mu.RUnlock()

	results := make([]interfaces.ProbeResult, len(probes))

	var g errgroup.Group
	for i, p := range probes {
		i, p := i, p
		g.Go(func() error {
			results[i] = a.run(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	overall := interfaces.Healthy
	for _, r := range results {
		overall = interfaces.Worst(overall, r.Status)
		if a.observer != nil {
			a.observer(r)
		}
	}

	return interfaces.AggregateHealth{
		Status:  overall,
		Results: results,
	}
}

// probeOutcome carries a probe's return values across goroutines.
type probeOutcome struct {
	status interfaces.HealthStatus
	detail string
	err    error
}

// run invokes one probe. The probe runs in its own goroutine so that the
// timeout holds even when the probe ignores its context; a probe that
// overruns is abandoned and reported Unhealthy.
func (a *Aggregator) run(ctx context.Context, p namedProbe) interfaces.ProbeResult {
	start := time.Now()
	result := interfaces.ProbeResult{Name: p.name}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan probeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- probeOutcome{status: interfaces.Unhealthy, err: fmt.Errorf("probe panicked: %v", r)}
			}
		}()
		status, detail, err := p.probe(ctx)
		done <- probeOutcome{status: status, detail: detail, err: err}
	}()

	var out probeOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = probeOutcome{status: interfaces.Unhealthy, err: ctx.Err()}
	}

	switch {
	case out.err != nil:
		result.Status = interfaces.Unhealthy
		result.Detail = out.err.Error()
	case out.status < interfaces.Healthy || out.status > interfaces.Unhealthy:
		result.Status = interfaces.Unhealthy
		result.Detail = fmt.Sprintf("probe returned unknown status %d", int(out.status))
	default:
		result.Status = out.status
		result.Detail = out.detail
	}

	result.Duration = time.Since(start)
	if result.Status != interfaces.Healthy {
		a.log.Debug("Health probe not healthy",
			slog.String("probe", p.name),
			slog.String("status", result.Status.String()),
			slog.String("detail", result.Detail),
			slog.Duration("duration", result.Duration))
	}
	return result
}
