package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ruteri/simpleweb/interfaces"
	"gopkg.in/yaml.v3"
)

// Defaults applied before the file and environment are read.
const (
	DefaultStorageType   = "0"
	DefaultFileName      = "upload.bin"
	DefaultBaseDir       = "./data/uploads"
	DefaultMaxUploadSize = 32 << 20
	DefaultProbeTimeout  = 5 * time.Second
	DefaultDegradedAfter = 2 * time.Second
)

// Config mirrors the application settings file. Key names follow the
// Section:Key layout of the settings (Storage:Type, Storage:FileName, ...).
type Config struct {
	Storage      StorageSection      `yaml:"Storage"`
	Upload       UploadSection       `yaml:"Upload"`
	HealthChecks HealthChecksSection `yaml:"HealthChecks"`

	// AppInsightsConnectionString enables telemetry export when set.
	AppInsightsConnectionString string `yaml:"APPINSIGHTS_CONNECTIONSTRING"`
}

// StorageSection selects and configures the storage provider.
type StorageSection struct {
	// Type is the provider discriminator: 0/Local or 1/Remote.
	Type RawValue `yaml:"Type"`
	// FileName is the default object name (Local) or the bucket (Remote).
	FileName string `yaml:"FileName"`
	// ConnectionString is the Remote-only secret.
	ConnectionString string `yaml:"ConnectionString"`
	// BaseDir is the Local storage directory.
	BaseDir string `yaml:"BaseDir"`
}

// UploadSection limits uploads.
type UploadSection struct {
	MaxBytes int64 `yaml:"MaxBytes"`
}

// HealthChecksSection configures the /health aggregator.
type HealthChecksSection struct {
	ProbeTimeout  Duration     `yaml:"ProbeTimeout"`
	DegradedAfter Duration     `yaml:"DegradedAfter"`
	Dependencies  []Dependency `yaml:"Dependencies"`
}

// Dependency is a downstream HTTP endpoint probed by /health.
type Dependency struct {
	Name string `yaml:"Name"`
	URL  string `yaml:"URL"`
}

// RawValue keeps a scalar verbatim regardless of its YAML type, so that both
// `Type: 0` and `Type: Local` reach the parser unchanged.
type RawValue string

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *RawValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	*v = RawValue(node.Value)
	return nil
}

// Duration accepts Go duration strings ("5s") or a plain number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := parseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

// Default returns the configuration used when no file or environment is set.
func Default() *Config {
	return &Config{
		Storage: StorageSection{
			Type:     DefaultStorageType,
			FileName: DefaultFileName,
			BaseDir:  DefaultBaseDir,
		},
		Upload: UploadSection{
			MaxBytes: DefaultMaxUploadSize,
		},
		HealthChecks: HealthChecksSection{
			ProbeTimeout:  Duration(DefaultProbeTimeout),
			DegradedAfter: Duration(DefaultDegradedAfter),
		},
	}
}

// Load reads the YAML file at path (optional when empty), then applies
// environment overrides looked up with lookupEnv. Unknown keys in the file are
// rejected. All failures wrap interfaces.ErrConfiguration.
func Load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrConfiguration, err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", interfaces.ErrConfiguration, path, err)
		}
	}

	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if err := applyEnv(cfg, lookupEnv); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrConfiguration, err)
	}

	if cfg.Upload.MaxBytes <= 0 {
		return nil, fmt.Errorf("%w: Upload:MaxBytes must be positive, got %d", interfaces.ErrConfiguration, cfg.Upload.MaxBytes)
	}

	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// StorageConfig converts the Storage section into the provider configuration.
// Selecting Remote without a connection string is rejected here, before any
// provider is built.
func (c *Config) StorageConfig() (interfaces.StorageConfig, error) {
	kind, err := interfaces.ParseStorageKind(string(c.Storage.Type))
	if err != nil {
		return interfaces.StorageConfig{}, err
	}

	sc := interfaces.StorageConfig{
		Kind:             kind,
		Target:           c.Storage.FileName,
		BaseDir:          c.Storage.BaseDir,
		ConnectionString: c.Storage.ConnectionString,
	}

	switch kind {
	case interfaces.LocalStorage:
		if sc.Target == "" {
			return sc, fmt.Errorf("%w: Storage:FileName is required", interfaces.ErrConfiguration)
		}
		if sc.BaseDir == "" {
			return sc, fmt.Errorf("%w: Storage:BaseDir is required", interfaces.ErrConfiguration)
		}
	case interfaces.RemoteStorage:
		if sc.ConnectionString == "" {
			return sc, fmt.Errorf("%w: Storage:ConnectionString is required when Storage:Type is Remote", interfaces.ErrConfiguration)
		}
		if sc.Target == "" {
			return sc, fmt.Errorf("%w: Storage:FileName must name the bucket when Storage:Type is Remote", interfaces.ErrConfiguration)
		}
	}

	return sc, nil
}
