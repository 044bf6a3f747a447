package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `environment: "staging"

client:
  endpoint: "wss://realtime.example.com"
  auth_token: "secret-token"
  max_inbound_rate: 128

channel_defaults:
  encrypted: true
  cipher_key_env: "CHANNEL_CIPHER_KEY"

logging:
  level: "debug"
  format: "text"
  output: "stdout"`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "wss://realtime.example.com", cfg.Client.Endpoint)
	assert.Equal(t, "secret-token", cfg.Client.AuthToken)
	assert.Equal(t, 128.0, cfg.Client.MaxInboundRate)
	assert.True(t, cfg.Channel.Encrypted)
	assert.Equal(t, "CHANNEL_CIPHER_KEY", cfg.Channel.CipherKeyEnv)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Defaults still apply to fields the file didn't set.
	assert.Equal(t, 15*time.Second, cfg.Client.DisconnectedRetryTimeout)
	assert.Equal(t, 10000, cfg.Client.MaxAckQueue)
}

func TestLoadFromFile_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_ENDPOINT", "wss://override.example.com")
	defer os.Unsetenv("TEST_ENDPOINT")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config-env.yaml")

	configContent := `client:
  endpoint: "${TEST_ENDPOINT}"
  auth_token: "${MISSING_TOKEN:anonymous}"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	// LoadFromFile itself does not substitute; Load does, via
	// SubstituteEnvVarsInConfig. Raw values pass through first.
	assert.Equal(t, "${TEST_ENDPOINT}", cfg.Client.Endpoint)

	SubstituteEnvVarsInConfig(cfg)
	assert.Equal(t, "wss://override.example.com", cfg.Client.Endpoint)
	assert.Equal(t, "anonymous", cfg.Client.AuthToken)
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 15*time.Second, cfg.Client.DisconnectedRetryTimeout)
	assert.Equal(t, 30*time.Second, cfg.Client.SuspendedRetryTimeout)
	assert.Equal(t, 15*time.Second, cfg.Client.ChannelRetryTimeout)
	assert.Equal(t, 10*time.Second, cfg.Client.HTTPRequestTimeout)
	assert.Equal(t, 512.0, cfg.Client.MaxInboundRate)
	assert.Equal(t, 10*time.Second, cfg.Client.AckTimeout)
	assert.Equal(t, 10000, cfg.Client.MaxAckQueue)
	assert.Equal(t, "aes", cfg.Channel.CipherAlgo)
	assert.Equal(t, 256, cfg.Channel.CipherKeyBits)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "/healthz", cfg.Health.Path)
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		wantLevel string
		wantField string
	}{
		{
			name: "valid config has no errors",
			cfg: &Config{
				Client: ClientConfig{Endpoint: "wss://x.example.com", MaxAckQueue: 10},
			},
		},
		{
			name:      "missing endpoint is a warning",
			cfg:       &Config{Client: ClientConfig{MaxAckQueue: 10}},
			wantLevel: "warning",
			wantField: "client.endpoint",
		},
		{
			name: "negative max inbound rate is an error",
			cfg: &Config{
				Client: ClientConfig{Endpoint: "wss://x.example.com", MaxInboundRate: -1, MaxAckQueue: 10},
			},
			wantLevel: "error",
			wantField: "client.max_inbound_rate",
		},
		{
			name: "zero max ack queue is an error",
			cfg: &Config{
				Client: ClientConfig{Endpoint: "wss://x.example.com"},
			},
			wantLevel: "error",
			wantField: "client.max_ack_queue",
		},
		{
			name: "encrypted channel defaults without a key source is an error",
			cfg: &Config{
				Client:  ClientConfig{Endpoint: "wss://x.example.com", MaxAckQueue: 10},
				Channel: ChannelDefaults{Encrypted: true},
			},
			wantLevel: "error",
			wantField: "channel_defaults.cipher_key_env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateConfiguration(tt.cfg)
			if tt.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.wantField {
					found = true
					assert.Equal(t, tt.wantLevel, e.Level)
				}
			}
			assert.True(t, found, "expected a finding for field %q", tt.wantField)
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	yamlPath := filepath.Join(tmpDir, "roundtrip.yaml")
	jsonPath := filepath.Join(tmpDir, "roundtrip.json")

	cfg := &Config{
		Environment: "production",
		Client: ClientConfig{
			Endpoint:  "wss://prod.example.com",
			AuthToken: "tok",
		},
	}

	require.NoError(t, SaveToFile(cfg, yamlPath))
	require.NoError(t, SaveToFile(cfg, jsonPath))

	loadedYAML, err := LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Client.Endpoint, loadedYAML.Client.Endpoint)

	loadedJSON, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, cfg.Client.Endpoint, loadedJSON.Client.Endpoint)
}
