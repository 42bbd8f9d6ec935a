package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ruteri/simpleweb/interfaces"
)

const defaultRegion = "us-east-1"

// RemoteOptions holds the settings parsed from a Remote connection string.
type RemoteOptions struct {
	AccessKey      string
	SecretKey      string
	Region         string
	Endpoint       string
	ForcePathStyle bool
	DisableSSL     bool
}

// ParseConnectionString parses a semicolon separated list of key=value pairs:
//
//	AccessKey=AKIA...;SecretKey=...;Region=eu-west-1;Endpoint=http://minio:9000;ForcePathStyle=true
//
// Keys are case-insensitive. AccessKey and SecretKey are required.
func ParseConnectionString(raw string) (RemoteOptions, error) {
	opts := RemoteOptions{Region: defaultRegion}

	if strings.TrimSpace(raw) == "" {
		return opts, fmt.Errorf("%w: empty connection string", interfaces.ErrConfiguration)
	}

	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return opts, fmt.Errorf("%w: malformed connection string element %q", interfaces.ErrConfiguration, redactElement(part))
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "accesskey":
			opts.AccessKey = value
		case "secretkey":
			opts.SecretKey = value
		case "region":
			if value != "" {
				opts.Region = value
			}
		case "endpoint":
			opts.Endpoint = value
		case "forcepathstyle":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return opts, fmt.Errorf("%w: ForcePathStyle: %v", interfaces.ErrConfiguration, err)
			}
			opts.ForcePathStyle = b
		case "disablessl":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return opts, fmt.Errorf("%w: DisableSSL: %v", interfaces.ErrConfiguration, err)
			}
			opts.DisableSSL = b
		default:
			return opts, fmt.Errorf("%w: unknown connection string key %q", interfaces.ErrConfiguration, key)
		}
	}

	if opts.AccessKey == "" || opts.SecretKey == "" {
		return opts, fmt.Errorf("%w: connection string requires AccessKey and SecretKey", interfaces.ErrConfiguration)
	}

	if strings.HasPrefix(opts.Endpoint, "http://") {
		opts.DisableSSL = true
	}

	return opts, nil
}

// redactElement keeps the key of a malformed element and hides anything that
// might be a secret.
func redactElement(part string) string {
	if len(part) <= 4 {
		return "***"
	}
	return part[:4] + "***"
}
