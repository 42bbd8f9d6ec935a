package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruteri/simpleweb/interfaces"
)

// tempPrefix marks in-flight writes. Files with this prefix are never visible
// under their final name.
const tempPrefix = ".upload-"

// LocalProvider implements a storage provider using the local file system.
// All objects live under a single base directory.
type LocalProvider struct {
	baseDir string
	log     *slog.Logger
}

// NewLocalProvider creates a new file storage provider rooted at baseDir.
// The directory is created if it doesn't exist.
func NewLocalProvider(baseDir string, log *slog.Logger) (*LocalProvider, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty base directory", interfaces.ErrConfiguration)
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrConfiguration, err)
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create base directory: %v", interfaces.ErrConfiguration, err)
	}

	return &LocalProvider{
		baseDir: abs,
		log:     log,
	}, nil
}

// Write stores content under name. Data is written to a temporary file in the
// destination directory and renamed into place once fully flushed, so readers
// either see the previous object or the complete new one.
func (p *LocalProvider) Write(ctx context.Context, name string, content io.Reader) (interfaces.StoredObjectRef, error) {
	start := time.Now()

	if err := validateWritableName(name); err != nil {
		return interfaces.StoredObjectRef{}, err
	}
	path, err := p.resolve(name)
	if err != nil {
		return interfaces.StoredObjectRef{}, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return interfaces.StoredObjectRef{}, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return interfaces.StoredObjectRef{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if err := os.Remove(tmpName); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.log.Warn("Failed to remove temporary file", "err", err, slog.String("path", tmpName))
		}
	}()

	size, err := io.Copy(tmp, newContextReader(ctx, content))
	if err != nil {
		return interfaces.StoredObjectRef{}, fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return interfaces.StoredObjectRef{}, fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return interfaces.StoredObjectRef{}, fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return interfaces.StoredObjectRef{}, fmt.Errorf("failed to set file mode: %w", err)
	}

	// Last chance to honour cancellation before the object becomes visible.
	if err := ctx.Err(); err != nil {
		return interfaces.StoredObjectRef{}, err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return interfaces.StoredObjectRef{}, fmt.Errorf("failed to rename file: %w", err)
	}
	committed = true

	p.log.Debug("Stored content in file",
		slog.String("path", path),
		slog.Int64("size", size),
		slog.Duration("duration", time.Since(start)))

	return interfaces.StoredObjectRef{ID: name, Kind: interfaces.LocalStorage}, nil
}

// Read opens the referenced file. Returns ErrNotFound if the file doesn't exist.
func (p *LocalProvider) Read(ctx context.Context, ref interfaces.StoredObjectRef) (io.ReadCloser, error) {
	if ref.Kind != interfaces.LocalStorage {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ref)
	}

	path, err := p.resolve(ref.ID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", interfaces.ErrNotFound, ref)
	}

	p.log.Debug("Opened content from file",
		slog.String("path", path),
		slog.Int64("size", info.Size()))

	return f, nil
}

// Exists reports whether the referenced file exists as a regular file.
func (p *LocalProvider) Exists(ctx context.Context, ref interfaces.StoredObjectRef) bool {
	if ref.Kind != interfaces.LocalStorage {
		return false
	}

	path, err := p.resolve(ref.ID)
	if err != nil {
		p.log.Debug("Exists check on invalid name", "err", err)
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			p.log.Debug("Exists check failed", "err", err, slog.String("path", path))
		}
		return false
	}
	return info.Mode().IsRegular()
}

// Available checks if the file backend is accessible by verifying the base directory exists.
func (p *LocalProvider) Available(ctx context.Context) error {
	info, err := os.Stat(p.baseDir)
	if err != nil {
		p.log.Debug("File backend unavailable", "err", err)
		return fmt.Errorf("base directory inaccessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("base directory %s is not a directory", p.baseDir)
	}
	return nil
}

// Kind returns LocalStorage.
func (p *LocalProvider) Kind() interfaces.StorageKind {
	return interfaces.LocalStorage
}

// Name returns a unique identifier for this storage provider.
func (p *LocalProvider) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(p.baseDir))
}

// BaseDir returns the directory objects are stored under.
func (p *LocalProvider) BaseDir() string {
	return p.baseDir
}

// resolve maps an object name to a path under the base directory.
func (p *LocalProvider) resolve(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	path := filepath.Join(p.baseDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(p.baseDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes base directory", interfaces.ErrInvalidName, name)
	}
	return path, nil
}

var _ interfaces.StorageProvider = (*LocalProvider)(nil)
