package config

// ServerConfig is the root configuration for sod-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Auth   AuthSection   `koanf:"auth"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures listening endpoints.
type ServerSection struct {
	Local   LocalConfig   `koanf:"local"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// LocalConfig configures the socket peers connect to.
type LocalConfig struct {
	// Path is the socket path, or the address for non-unix networks.
	Path string `koanf:"path"`

	// Network is "unixpacket" (default), "unix", or "tcp" for testing.
	Network string `koanf:"network"`

	// Mode is the octal permission string applied to a unix socket.
	Mode string `koanf:"mode"`

	// AcceptRate limits accepted connections per second. Zero disables
	// the limit.
	AcceptRate float64 `koanf:"accept_rate"`

	// AcceptBurst is the limiter burst size.
	AcceptBurst int `koanf:"accept_burst"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the HTTP listen address. Empty disables metrics.
	Addr string `koanf:"addr"`
}

// AuthSection configures the authenticator and its collaborators.
type AuthSection struct {
	// Service is the validator service name.
	Service string `koanf:"service"`

	// Class selects the login_cap class.
	Class string `koanf:"class"`

	Identity IdentityConfig `koanf:"identity"`

	ShadowFile string `koanf:"shadow_file"`

	// SuFallback verifies unsupported hash schemes through su(1).
	SuFallback bool `koanf:"su_fallback"`
}

// IdentityConfig selects the identity source.
type IdentityConfig struct {
	// Source is "system" or "file".
	Source string `koanf:"source"`

	// PasswdFile is read when Source is "file".
	PasswdFile string `koanf:"passwd_file"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
