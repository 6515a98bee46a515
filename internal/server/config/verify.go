package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyAuth(&cfg.Auth); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	local := &cfg.Local
	if local.Path == "" {
		return errors.New("server.local.path is required")
	}
	switch local.Network {
	case "unix", "unixpacket":
		if _, err := SocketMode(local.Mode); err != nil {
			return err
		}
	case "tcp", "tcp4", "tcp6":
		if _, _, err := net.SplitHostPort(local.Path); err != nil {
			return fmt.Errorf("server.local.path: %w", err)
		}
	default:
		return fmt.Errorf("server.local.network %q is not supported", local.Network)
	}
	if local.AcceptRate < 0 {
		return errors.New("server.local.accept_rate must not be negative")
	}
	if local.AcceptRate > 0 && local.AcceptBurst < 1 {
		return errors.New("server.local.accept_burst must be at least 1 when accept_rate is set")
	}

	if addr := cfg.Metrics.Addr; addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("server.metrics.addr: %w", err)
		}
	}
	return nil
}

func verifyAuth(cfg *AuthSection) error {
	if cfg.Class == "" {
		return errors.New("auth.class is required")
	}
	switch cfg.Identity.Source {
	case "", "system":
	case "file":
		if cfg.Identity.PasswdFile == "" {
			return errors.New("auth.identity.passwd_file is required for the file source")
		}
		if _, err := os.Stat(cfg.Identity.PasswdFile); err != nil {
			return fmt.Errorf("auth.identity.passwd_file: %w", err)
		}
	default:
		return fmt.Errorf("auth.identity.source %q is not supported", cfg.Identity.Source)
	}
	if cfg.ShadowFile == "" {
		return errors.New("auth.shadow_file is required")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not supported", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is not supported", cfg.Format)
	}
	return nil
}

// SocketMode parses an octal permission string such as "0660".
func SocketMode(s string) (os.FileMode, error) {
	if s == "" {
		return 0, nil
	}
	m, err := strconv.ParseUint(s, 8, 32)
	if err != nil || m > 0o777 {
		return 0, fmt.Errorf("server.local.mode %q is not an octal permission", s)
	}
	return os.FileMode(m), nil
}
