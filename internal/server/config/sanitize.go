package config

import "github.com/yndnr/sod-go/internal/telemetry/logger"

// Sanitize returns a copy of cfg safe to log. Free-text values that look
// like crypt hashes are masked.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Auth.Service = logger.RedactString(sanitized.Auth.Service)
	sanitized.Auth.Class = logger.RedactString(sanitized.Auth.Class)
	sanitized.Server.Local.Path = logger.RedactString(sanitized.Server.Local.Path)
	return &sanitized
}
