package storage

import (
	"testing"

	"github.com/ruteri/simpleweb/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionString(t *testing.T) {
	opts, err := ParseConnectionString("AccessKey=AKIA123;SecretKey=s3cr3t;Region=eu-west-1;Endpoint=http://minio:9000;ForcePathStyle=true")
	require.NoError(t, err)
	assert.Equal(t, RemoteOptions{
		AccessKey:      "AKIA123",
		SecretKey:      "s3cr3t",
		Region:         "eu-west-1",
		Endpoint:       "http://minio:9000",
		ForcePathStyle: true,
		DisableSSL:     true,
	}, opts)
}

func TestParseConnectionString_Defaults(t *testing.T) {
	opts, err := ParseConnectionString(" accesskey = a ; SECRETKEY=b ; ")
	require.NoError(t, err)
	assert.Equal(t, "a", opts.AccessKey)
	assert.Equal(t, "b", opts.SecretKey)
	assert.Equal(t, defaultRegion, opts.Region)
	assert.Empty(t, opts.Endpoint)
	assert.False(t, opts.ForcePathStyle)
	assert.False(t, opts.DisableSSL)
}

func TestParseConnectionString_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"missing secret", "AccessKey=a"},
		{"missing access key", "SecretKey=b"},
		{"malformed element", "AccessKey=a;SecretKey=b;garbage"},
		{"unknown key", "AccessKey=a;SecretKey=b;Token=c"},
		{"bad bool", "AccessKey=a;SecretKey=b;ForcePathStyle=maybe"},
		{"bad disable ssl", "AccessKey=a;SecretKey=b;DisableSSL=sometimes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConnectionString(tt.raw)
			assert.ErrorIs(t, err, interfaces.ErrConfiguration)
		})
	}
}

func TestParseConnectionString_RedactsSecrets(t *testing.T) {
	_, err := ParseConnectionString("AccessKey=a;SuperSecretValueWithoutEquals")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SecretValueWithoutEquals")
}
