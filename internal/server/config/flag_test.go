package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected *Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:8080", "-d", "db", "-s", "secret", "-t", "60", "-w", "10",
				"-k", "SG.key", "-m", "me@example.com", "-v", "s3",
				"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
				"-l", "debug",
			},
			expected: &Config{
				EndpointAddrHTTP:      "127.0.0.1:8080",
				DatabaseDSN:           "db",
				SecretKey:             "secret",
				TokenValidityDuration: time.Hour,
				BcryptCost:            10,
				SendGridAPIKey:        "SG.key",
				MailFrom:              "me@example.com",
				AvatarStorage:         "s3",
				S3RootUser:            "user",
				S3RootPassword:        "password",
				S3Bucket:              "bucket",
				S3Region:              "us-west-1",
				S3BaseEndpoint:        "http://endpoint",
				LogLevel:              "debug",
			},
		},
		{
			name:     "foreign flags are ignored",
			args:     []string{"-c", "conf.json", "-x", "1", "-a", ":1"},
			expected: &Config{EndpointAddrHTTP: ":1"},
		},
		{
			name:    "bad int",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsTTLWhenFlagAbsent(t *testing.T) {
	config := &Config{TokenValidityDuration: 90 * time.Second}
	require.NoError(t, parseFlags(config, []string{"-a", ":1"}))
	assert.Equal(t, 90*time.Second, config.TokenValidityDuration)
}
