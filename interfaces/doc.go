// Package interfaces defines core interfaces and types for SimpleWeb,
// separating interface definitions from implementations.
//
// # Storage Interfaces
//
// StorageProvider: Persists uploaded content under a name and returns a
// StoredObjectRef. Two variants exist, selected once at startup from
// StorageConfig.Kind: LocalStorage (filesystem) and RemoteStorage
// (S3-compatible object store).
//
// # Health Types
//
// HealthStatus is totally ordered by severity (Healthy < Degraded < Unhealthy).
// ProbeResult carries the outcome of one probe, AggregateHealth the worst-case
// fold of all of them.
//
// # Errors
//
// Storage operations return errors wrapping one of ErrConfiguration,
// ErrInvalidName, ErrNotFound or ErrStorageUnavailable. Use errors.Is to
// classify them.
package interfaces
