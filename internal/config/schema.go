package config

import "time"

// Config holds mathsteps configuration.
// Loaded from ./config.yaml or ~/.mathsteps/config.yaml.
type Config struct {
	APIKeys map[string]string `mapstructure:"api_keys" yaml:"api_keys"`
	Server  ServerCfg         `mapstructure:"server" yaml:"server"`
	Explain ExplainCfg        `mapstructure:"explain" yaml:"explain"`
	History HistoryCfg        `mapstructure:"history" yaml:"history"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"` // bind address (default: 127.0.0.1)
	Port string `mapstructure:"port" yaml:"port"` // listen port (default: 8080)
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// BatchLimit bounds parallel solves in one batch request.
	BatchLimit int `mapstructure:"batch_limit" yaml:"batch_limit"`
}

// ExplainCfg configures the optional AI explanation gate.
type ExplainCfg struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Provider selects the api_keys entry and the default base URL.
	// Any OpenAI-compatible chat endpoint works.
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url"`
	// APIKey overrides api_keys[provider] (supports ${ENV_VAR} syntax).
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	// TimeoutSeconds is the hard wall-clock budget for one gate run.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// HistoryCfg configures solve-event recording.
type HistoryCfg struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// DSN is the Postgres connection string. Empty selects the DSN of
	// the managed container below.
	DSN      string      `mapstructure:"dsn" yaml:"dsn"`
	Postgres PostgresCfg `mapstructure:"postgres" yaml:"postgres"`
}

// PostgresCfg holds settings for the managed history Postgres container.
type PostgresCfg struct {
	ContainerName string `mapstructure:"container_name" yaml:"container_name"`
	Image         string `mapstructure:"image" yaml:"image"`
	Port          string `mapstructure:"port" yaml:"port"`
	User          string `mapstructure:"user" yaml:"user"`
	Password      string `mapstructure:"password" yaml:"password"`
	Database      string `mapstructure:"database" yaml:"database"`
}

// providerBaseURLs maps known explanation providers to their
// OpenAI-compatible endpoints.
var providerBaseURLs = map[string]string{
	"cerebras":   "https://api.cerebras.ai/v1",
	"openrouter": "https://openrouter.ai/api/v1",
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIKeys: map[string]string{
			"cerebras":   "${CEREBRAS_API_KEY}",
			"openrouter": "${OPENROUTER_API_KEY}",
		},
		Server: ServerCfg{
			Host:       "127.0.0.1",
			Port:       "8080",
			LogLevel:   "info",
			BatchLimit: 4,
		},
		Explain: ExplainCfg{
			Enabled:        false,
			Provider:       "cerebras",
			Model:          "llama-3.3-70b",
			TimeoutSeconds: 10,
		},
		History: HistoryCfg{
			Enabled: false,
			Postgres: PostgresCfg{
				ContainerName: "mathsteps-postgres",
				Image:         "postgres:16-alpine",
				Port:          "5432",
				User:          "mathsteps",
				Password:      "mathsteps",
				Database:      "mathsteps",
			},
		},
	}
}

// ResolveAPIKey returns the API key for a provider with any ${ENV_VAR}
// reference expanded.
func (c *Config) ResolveAPIKey(provider string) string {
	return ResolveEnvVars(c.APIKeys[provider])
}

// ExplainAPIKey resolves the explanation key: the explicit explain
// api_key wins over the provider's api_keys entry.
func (c *Config) ExplainAPIKey() string {
	if c.Explain.APIKey != "" {
		return ResolveEnvVars(c.Explain.APIKey)
	}
	return c.ResolveAPIKey(c.Explain.Provider)
}

// ExplainBaseURL resolves the chat endpoint for the configured provider.
func (c *Config) ExplainBaseURL() string {
	if c.Explain.BaseURL != "" {
		return c.Explain.BaseURL
	}
	return providerBaseURLs[c.Explain.Provider]
}

// ExplainTimeout returns the gate budget as a duration.
func (c *Config) ExplainTimeout() time.Duration {
	if c.Explain.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Explain.TimeoutSeconds) * time.Second
}
