package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Backend   BackendConfig   `mapstructure:"backend"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	History   HistoryConfig   `mapstructure:"history"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AuthConfig contains the optional API key for /api/download and the
// debug secret guarding /api/logs. Empty values disable the check.
type AuthConfig struct {
	APIKey      string `mapstructure:"api_key"`
	DebugSecret string `mapstructure:"debug_secret"`
}

// BackendConfig configures both extraction backends.
type BackendConfig struct {
	// ClientIdentity is a browser-like User-Agent presented by the primary
	// backend to reduce upstream blocking.
	ClientIdentity string        `mapstructure:"client_identity"`
	YTDLPBinary    string        `mapstructure:"ytdlp_binary"`
	ResolveTimeout time.Duration `mapstructure:"resolve_timeout"`
	ChunkSize      int           `mapstructure:"chunk_size"`
}

// RateLimitConfig configures the per-process limiter on the API namespace.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// NotifyConfig configures the usage-telemetry webhook. The webhook fires
// only when a URL is set and Environment is "production".
type NotifyConfig struct {
	WebhookURL  string `mapstructure:"webhook_url"`
	Environment string `mapstructure:"environment"`
}

// HistoryConfig configures the sqlite download-history store.
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level        string `mapstructure:"level"`          // debug, info, warn, error
	Format       string `mapstructure:"format"`         // json, console
	OutputPath   string `mapstructure:"output_path"`    // stdout, stderr, or file path
	ErrorLogPath string `mapstructure:"error_log_path"` // append-only plain-text error log
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Auth: AuthConfig{},
		Backend: BackendConfig{
			ClientIdentity: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			YTDLPBinary:    "yt-dlp",
			ResolveTimeout: 30 * time.Second,
			ChunkSize:      64 * 1024,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
		Notify: NotifyConfig{
			Environment: "development",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.yt-stream/history.db",
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			OutputPath:   "stdout",
			ErrorLogPath: "$HOME/.yt-stream/error.log",
		},
	}
}
