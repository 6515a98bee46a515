// Package config defines the sod-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation after loading
//   - sanitize.go: a copy safe to log
//
// Configuration is loaded by internal/infra/confloader from a YAML file
// and SOD_ environment variables. The free-form login_cap tree is not
// part of ServerConfig; logincap reads it straight from the loader.
package config
