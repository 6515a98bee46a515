package config

import "github.com/yndnr/sod-go/pkg/frame"

// Default configuration values.
const (
	DefaultLocalSocket  = "/run/sod/sod.sock"
	DefaultLocalNetwork = frame.DefaultNetwork
	DefaultSocketMode   = "0666"
	DefaultAcceptBurst  = 16

	DefaultService        = "sod"
	DefaultClass          = "default"
	DefaultIdentitySource = "system"
	DefaultPasswdFile     = "/etc/passwd"
	DefaultShadowFile     = "/etc/shadow"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Local: LocalConfig{
				Path:        DefaultLocalSocket,
				Network:     DefaultLocalNetwork,
				Mode:        DefaultSocketMode,
				AcceptBurst: DefaultAcceptBurst,
			},
		},
		Auth: AuthSection{
			Service: DefaultService,
			Class:   DefaultClass,
			Identity: IdentityConfig{
				Source:     DefaultIdentitySource,
				PasswdFile: DefaultPasswdFile,
			},
			ShadowFile: DefaultShadowFile,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
