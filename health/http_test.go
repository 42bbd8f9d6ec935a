package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ruteri/simpleweb/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProbe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		name          string
		path          string
		degradedAfter time.Duration
		status        interfaces.HealthStatus
		wantErr       bool
	}{
		{"healthy", "/ok", time.Second, interfaces.Healthy, false},
		{"server error", "/fail", time.Second, interfaces.Unhealthy, true},
		{"not found", "/missing", time.Second, interfaces.Unhealthy, true},
		{"slow", "/slow", 10 * time.Millisecond, interfaces.Degraded, false},
		{"slow without latency check", "/slow", 0, interfaces.Healthy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := HTTPProbe(srv.Client(), srv.URL+tt.path, tt.degradedAfter)
			status, _, err := probe(context.Background())
			assert.Equal(t, tt.status, status)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPProbe_Unreachable(t *testing.T) {
	probe := HTTPProbe(nil, "http://127.0.0.1:1/health", 0)
	status, _, err := probe(context.Background())
	assert.Equal(t, interfaces.Unhealthy, status)
	assert.Error(t, err)
}

func TestHTTPProbe_InAggregator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	a := NewAggregator(testLogger(), WithTimeout(20*time.Millisecond))
	a.Register("downstream", HTTPProbe(srv.Client(), srv.URL, 0))

	report := a.Check(context.Background())
	assert.Equal(t, interfaces.Unhealthy, report.Status)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "downstream", report.Results[0].Name)
}
