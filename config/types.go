// Package config provides configuration management for the realtime client.
package config

import (
	"time"
)

// Config is the root configuration structure for a realtime client deployment.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Client      ClientConfig    `yaml:"client" json:"client"`
	TLS         TLSConfig       `yaml:"tls" json:"tls"`
	Channel     ChannelDefaults `yaml:"channel_defaults" json:"channel_defaults"`
	Logging     LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics" json:"metrics"`
	Health      HealthConfig    `yaml:"health" json:"health"`
}

// ClientConfig holds connection-level options passed to a realtime client
// instance: endpoint, authentication, and the timers governing the
// connection state machine.
type ClientConfig struct {
	Endpoint   string `yaml:"endpoint" json:"endpoint"`
	AuthToken  string `yaml:"auth_token" json:"auth_token"`
	AuthMethod string `yaml:"auth_method" json:"auth_method"` // token, api_key

	DisconnectedRetryTimeout time.Duration `yaml:"disconnected_retry_timeout" json:"disconnected_retry_timeout"`
	SuspendedRetryTimeout    time.Duration `yaml:"suspended_retry_timeout" json:"suspended_retry_timeout"`
	ChannelRetryTimeout      time.Duration `yaml:"channel_retry_timeout" json:"channel_retry_timeout"`
	HTTPRequestTimeout       time.Duration `yaml:"http_request_timeout" json:"http_request_timeout"`
	RealtimeRequestTimeout   time.Duration `yaml:"realtime_request_timeout" json:"realtime_request_timeout"`

	// MaxInboundRate bounds frame delivery when the server does not supply
	// its own ConnectionDetails.max_inbound_rate, in frames per second.
	MaxInboundRate float64 `yaml:"max_inbound_rate" json:"max_inbound_rate"`

	// QueueMessages is loaded from the file but not read by the connection:
	// publishes made while disconnected are always queued (bounded),
	// whatever its value.
	QueueMessages bool `yaml:"queue_messages" json:"queue_messages"`

	// AckTimeout is loaded and defaulted but not applied: OptionsFromConfig
	// does not map it and the ack tracker has no timeout, so a publish
	// waits for its Ack/Nack or for the caller's context.
	AckTimeout time.Duration `yaml:"ack_timeout" json:"ack_timeout"`

	// MaxAckQueue bounds the number of unresolved publishes the ack
	// tracker holds before evicting the oldest as a QueueOverflow.
	MaxAckQueue int `yaml:"max_ack_queue" json:"max_ack_queue"`
}

// TLSConfig controls transport security for the underlying connection.
// The core library never dials a transport itself (see Transport
// interface); these options exist to be handed to whatever transport
// implementation a caller wires in.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" json:"enabled"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
	CAFile             string `yaml:"ca_file" json:"ca_file"`
}

// ChannelDefaults holds the default ChannelOptions applied to channels
// that are created without explicit options.
type ChannelDefaults struct {
	Encrypted     bool   `yaml:"encrypted" json:"encrypted"`
	CipherKeyEnv  string `yaml:"cipher_key_env" json:"cipher_key_env"`
	CipherAlgo    string `yaml:"cipher_algorithm" json:"cipher_algorithm"` // aes
	CipherKeyBits int    `yaml:"cipher_key_length" json:"cipher_key_length"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
	Output string `yaml:"output" json:"output"` // stdout, stderr, file path
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig contains health check configuration.
type HealthConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Port    int      `yaml:"port" json:"port"`
	Path    string   `yaml:"path" json:"path"`
	Checks  []string `yaml:"checks" json:"checks"`
}
