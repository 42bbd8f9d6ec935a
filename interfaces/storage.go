package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// StorageKind discriminates between storage provider variants.
// The numeric values match the Storage:Type configuration setting.
type StorageKind int

const (
	// LocalStorage persists objects on the local filesystem.
	LocalStorage StorageKind = iota
	// RemoteStorage persists objects in an S3-compatible object store.
	RemoteStorage
)

// String returns kind name.
func (k StorageKind) String() string {
	switch k {
	case LocalStorage:
		return "Local"
	case RemoteStorage:
		return "Remote"
	default:
		return fmt.Sprintf("StorageKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind as its name.
func (k StorageKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts either the name or the numeric discriminator.
func (k *StorageKind) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	kind, err := ParseStorageKind(raw)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Valid reports whether k is one of the known provider variants.
func (k StorageKind) Valid() bool {
	return k == LocalStorage || k == RemoteStorage
}

// ParseStorageKind parses the Storage:Type setting. Both the numeric
// discriminator ("0", "1") and the variant name ("Local", "Remote") are accepted.
func ParseStorageKind(raw string) (StorageKind, error) {
	value := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(value); err == nil {
		kind := StorageKind(n)
		if !kind.Valid() {
			return kind, fmt.Errorf("%w: unknown Storage:Type %d", ErrConfiguration, n)
		}
		return kind, nil
	}

	switch strings.ToLower(value) {
	case "local":
		return LocalStorage, nil
	case "remote":
		return RemoteStorage, nil
	default:
		return -1, fmt.Errorf("%w: unknown Storage:Type %q", ErrConfiguration, raw)
	}
}

// StorageConfig describes the single storage provider of the process.
// It is loaded once at startup and never modified afterwards.
type StorageConfig struct {
	// Kind selects the provider variant.
	Kind StorageKind

	// Target is the default object name for Local, or the bucket for Remote.
	Target string

	// BaseDir is the directory all Local objects live under.
	BaseDir string

	// ConnectionString holds Remote endpoint and credentials.
	// Format: AccessKey=...;SecretKey=...;Region=...;Endpoint=...;ForcePathStyle=true
	ConnectionString string
}

// StoredObjectRef is the opaque handle returned by a successful write.
type StoredObjectRef struct {
	ID   string      `json:"id"`
	Kind StorageKind `json:"kind"`
}

// String returns a printable form of the reference.
func (r StoredObjectRef) String() string {
	return strings.ToLower(r.Kind.String()) + ":" + r.ID
}

var (
	// ErrConfiguration is returned when the storage configuration is invalid or incomplete.
	// The process must not start serving when this error is returned at startup.
	ErrConfiguration = errors.New("invalid storage configuration")

	// ErrInvalidName is returned for malformed or path-escaping object names.
	ErrInvalidName = errors.New("invalid object name")

	// ErrNotFound is returned when the referenced object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrStorageUnavailable is returned when the remote backend cannot be reached
	// or rejected the credentials. Callers may retry.
	ErrStorageUnavailable = errors.New("storage backend unavailable")
)

// StorageProvider persists uploaded content under a name.
// Implementations must be safe for concurrent use.
type StorageProvider interface {
	// Write stores content under name, replacing any previous object with the
	// same name. On failure no partial object is visible.
	Write(ctx context.Context, name string, content io.Reader) (StoredObjectRef, error)

	// Read opens the referenced object. Returns ErrNotFound if it does not exist.
	Read(ctx context.Context, ref StoredObjectRef) (io.ReadCloser, error)

	// Exists reports whether the referenced object exists. Any failure yields false.
	Exists(ctx context.Context, ref StoredObjectRef) bool

	// Available checks that the backend is reachable.
	Available(ctx context.Context) error

	// Kind returns the provider variant.
	Kind() StorageKind

	// Name returns identifier for logging.
	Name() string
}
