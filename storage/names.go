package storage

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ruteri/simpleweb/interfaces"
)

const (
	// maxNameLength matches the S3 object key limit.
	maxNameLength = 1024
	// maxSegmentLength matches common filesystem limits for a single path element.
	maxSegmentLength = 255
)

// ValidateName checks that name is usable as an object name by every provider.
// Names are slash-separated relative paths; absolute paths, ".." segments,
// backslashes and control characters are rejected with ErrInvalidName, as is
// any segment carrying the in-flight upload prefix.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", interfaces.ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d bytes", interfaces.ErrInvalidName, maxNameLength)
	}
	if strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: absolute name %q", interfaces.ErrInvalidName, name)
	}
	if strings.ContainsRune(name, '\\') {
		return fmt.Errorf("%w: backslash in name %q", interfaces.ErrInvalidName, name)
	}
	for _, r := range name {
		if r == 0 || unicode.IsControl(r) {
			return fmt.Errorf("%w: control character in name", interfaces.ErrInvalidName)
		}
	}

	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "":
			return fmt.Errorf("%w: empty path segment in %q", interfaces.ErrInvalidName, name)
		case ".", "..":
			return fmt.Errorf("%w: relative segment in %q", interfaces.ErrInvalidName, name)
		}
		if len(segment) > maxSegmentLength {
			return fmt.Errorf("%w: path segment exceeds %d bytes", interfaces.ErrInvalidName, maxSegmentLength)
		}
		if strings.HasPrefix(segment, tempPrefix) {
			return fmt.Errorf("%w: reserved prefix %q in %q", interfaces.ErrInvalidName, tempPrefix, name)
		}
	}
	return nil
}

// validateWritableName is ValidateName plus the names callers may read but
// never overwrite.
func validateWritableName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if name == SentinelName {
		return fmt.Errorf("%w: %q is reserved", interfaces.ErrInvalidName, name)
	}
	return nil
}
