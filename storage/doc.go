// Package storage provides the switchable storage providers behind uploads.
//
// Exactly one provider is active per process. It is built once at startup by
// ProviderFactory (or Select) from an interfaces.StorageConfig:
//
//   - Storage:Type 0 (Local): files under a base directory
//   - Storage:Type 1 (Remote): an S3-compatible bucket
//
// # Object Names
//
// Names are slash-separated relative paths validated by ValidateName. Names
// that are empty, absolute, contain ".." segments, backslashes or control
// characters are rejected with interfaces.ErrInvalidName before any I/O.
//
// # Write Semantics
//
// Write is an upsert: an existing object with the same name is replaced.
// LocalProvider writes into a temporary file next to the destination and
// renames it into place; the temporary file is removed on every failure path,
// including context cancellation. RemoteProvider relies on S3 making objects
// visible only once an upload completes.
//
// # Remote Connection String
//
// The Remote provider is configured with a connection string:
//
//	AccessKey=AKIA...;SecretKey=...;Region=us-west-2;Endpoint=http://minio:9000;ForcePathStyle=true
//
// The bucket comes from Storage:FileName. The bucket is checked with
// HeadBucket at construction and the process fails fast if it is unreachable.
// The SDK is configured without retries; network, throttling and auth
// failures are returned as interfaces.ErrStorageUnavailable for the caller to
// retry.
//
// # Health
//
// NewProbe adapts a provider into a health.ProbeFunc that checks reachability
// and looks up the SentinelName object.
package storage
