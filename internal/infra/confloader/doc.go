// Package confloader loads the daemon configuration with koanf.
//
// Sources are layered, later ones overriding earlier ones:
//
//  1. Defaults applied by the caller
//  2. The YAML configuration file
//  3. SOD_* environment variables
//
// Reload rebuilds the layered view from scratch and swaps it in
// atomically, so readers never observe a half-loaded configuration.
// Watcher reports edits to the configuration file so the daemon can
// reload login capabilities and the log level without a restart.
package confloader
