package config

import "time"

// APIVersion is the dashboard API version boardctl speaks.
const APIVersion = "0.8.4"

// FromEnv returns a Config built from environment variables, falling back
// to defaults. Command-line flags layer on top of these values.
func FromEnv() Config {
	return Config{
		APIURL:               envOrDefault("FLOWBOARD_API_URL", "http://127.0.0.1:4200/api"),
		APIKey:               envOrDefault("FLOWBOARD_API_KEY", ""),
		APIVersion:           envOrDefault("FLOWBOARD_API_VERSION", APIVersion),
		RequestTimeout:       envDurationOrDefault("FLOWBOARD_API_REQUEST_TIMEOUT", 30*time.Second),
		PollInterval:         envDurationOrDefault("FLOWBOARD_POLL_INTERVAL", 5*time.Second),
		MaxPolls:             60,
		EtcdEndpoints:        splitComma(envOrDefault("ETCD_ENDPOINTS", "http://127.0.0.1:2379")),
		FlagsPath:            envOrDefault("FLOWBOARD_FLAGS_PATH", "flags.yaml"),
		FlaggingEnabled:      envBoolOrDefault("FLOWBOARD_FEATURE_FLAGGING_ENABLED", false),
		OTLPEndpoint:         envOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ServiceName:          envOrDefault("OTEL_SERVICE_NAME", "boardctl"),
		ObservabilityEnabled: envBoolOrDefault("FLOWBOARD_OBSERVABILITY_ENABLED", false),
	}
}
