package config

import (
	"fmt"
	"strconv"
	"time"
)

// Environment variable names. A double underscore separates section and key,
// so Storage__Type overrides Storage:Type.
const (
	EnvStorageType             = "Storage__Type"
	EnvStorageFileName         = "Storage__FileName"
	EnvStorageConnectionString = "Storage__ConnectionString"
	EnvStorageBaseDir          = "Storage__BaseDir"
	EnvUploadMaxBytes          = "Upload__MaxBytes"
	EnvProbeTimeout            = "HealthChecks__ProbeTimeout"
	EnvDegradedAfter           = "HealthChecks__DegradedAfter"
	EnvAppInsights             = "APPINSIGHTS_CONNECTIONSTRING"
)

func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvStorageType); ok {
		cfg.Storage.Type = RawValue(v)
	}
	if v, ok := lookupEnv(EnvStorageFileName); ok {
		cfg.Storage.FileName = v
	}
	if v, ok := lookupEnv(EnvStorageConnectionString); ok {
		cfg.Storage.ConnectionString = v
	}
	if v, ok := lookupEnv(EnvStorageBaseDir); ok {
		cfg.Storage.BaseDir = v
	}
	if v, ok := lookupEnv(EnvAppInsights); ok {
		cfg.AppInsightsConnectionString = v
	}

	if v, ok := lookupEnv(EnvUploadMaxBytes); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUploadMaxBytes, err)
		}
		cfg.Upload.MaxBytes = n
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{EnvProbeTimeout, &cfg.HealthChecks.ProbeTimeout},
		{EnvDegradedAfter, &cfg.HealthChecks.DegradedAfter},
	}
	for _, d := range durations {
		v, ok := lookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = Duration(parsed)
	}

	return nil
}

// Timeout returns the probe timeout as a time.Duration.
func (h HealthChecksSection) Timeout() time.Duration {
	return time.Duration(h.ProbeTimeout)
}

// Degraded returns the latency threshold as a time.Duration.
func (h HealthChecksSection) Degraded() time.Duration {
	return time.Duration(h.DegradedAfter)
}
