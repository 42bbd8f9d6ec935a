package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ruteri/simpleweb/interfaces"
)

// ProviderFactory creates the storage provider described by a StorageConfig.
type ProviderFactory struct {
	log *slog.Logger
}

// NewProviderFactory creates a new factory instance that can create storage providers.
func NewProviderFactory(logger *slog.Logger) *ProviderFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderFactory{log: logger}
}

// ProviderFor builds the single provider selected by cfg.Kind.
//
// Supported kinds:
//   - LocalStorage - files under cfg.BaseDir, cfg.Target is the default object name
//   - RemoteStorage - S3 bucket cfg.Target reached through cfg.ConnectionString
//
// Any other kind, or an incomplete configuration, returns an error wrapping
// ErrConfiguration and no provider is constructed.
func (sf *ProviderFactory) ProviderFor(ctx context.Context, cfg interfaces.StorageConfig) (interfaces.StorageProvider, error) {
	switch cfg.Kind {
	case interfaces.LocalStorage:
		return sf.createLocalProvider(cfg)
	case interfaces.RemoteStorage:
		return sf.createRemoteProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported storage kind %s", interfaces.ErrConfiguration, cfg.Kind)
	}
}

// Select is a convenience wrapper around ProviderFactory.ProviderFor.
func Select(ctx context.Context, cfg interfaces.StorageConfig, logger *slog.Logger) (interfaces.StorageProvider, error) {
	return NewProviderFactory(logger).ProviderFor(ctx, cfg)
}

func (sf *ProviderFactory) createLocalProvider(cfg interfaces.StorageConfig) (interfaces.StorageProvider, error) {
	sf.log.Debug("Creating local storage provider",
		slog.String("baseDir", cfg.BaseDir),
		slog.String("fileName", cfg.Target))

	if err := validateWritableName(cfg.Target); err != nil {
		return nil, fmt.Errorf("%w: Storage:FileName: %v", interfaces.ErrConfiguration, err)
	}

	provider, err := NewLocalProvider(cfg.BaseDir, sf.log)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func (sf *ProviderFactory) createRemoteProvider(ctx context.Context, cfg interfaces.StorageConfig) (interfaces.StorageProvider, error) {
	sf.log.Debug("Creating remote storage provider", slog.String("bucket", cfg.Target))

	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("%w: Remote storage requires Storage:ConnectionString", interfaces.ErrConfiguration)
	}

	opts, err := ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	if opts.AccessKey != "" {
		sf.log.Debug("Using embedded credentials for remote storage", slog.String("endpoint", opts.Endpoint))
	}

	provider, err := NewRemoteProvider(ctx, cfg.Target, opts, sf.log)
	if err != nil {
		return nil, err
	}
	return provider, nil
}
