package config

import "time"

// Config defines runtime configuration for boardctl.
type Config struct {
	// Dashboard API base URL (e.g. http://localhost:4200/api)
	APIURL string

	// Bearer key sent on API requests, empty for none
	APIKey string

	// Value of the X-FLOWBOARD-API-VERSION request header
	APIVersion string

	// Per-request timeout for API calls
	RequestTimeout time.Duration

	// Delay between flow run state polls
	PollInterval time.Duration

	// Maximum number of state polls before giving up
	MaxPolls int

	// Comma-separated etcd endpoints parsed into a slice
	EtcdEndpoints []string

	// Path to the feature flag configuration file
	FlagsPath string

	// Master switch for feature flagging
	FlaggingEnabled bool

	// OTLP collector endpoint (host:port)
	OTLPEndpoint string

	// Logical service name for observability signals
	ServiceName string

	// Enable OpenTelemetry exporters
	ObservabilityEnabled bool
}
