package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sod-go/internal/infra/buildinfo"
	"github.com/yndnr/sod-go/internal/infra/confloader"
	"github.com/yndnr/sod-go/internal/infra/shutdown"
	"github.com/yndnr/sod-go/internal/server/config"
	"github.com/yndnr/sod-go/internal/telemetry/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "sod-server",
		Usage:   "authentication proxy daemon",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"SOD_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "socket",
				Usage: "override server.local.path",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level",
			},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	loader, err := newLoader(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log.Info("starting sod-server",
		"version", buildinfo.Get().Version,
		"commit", buildinfo.Get().Commit,
		"config", loader.FilePath())
	log.Debug("configuration", "config", config.Sanitize(cfg))

	d, err := newDaemon(cfg, loader, log)
	if err != nil {
		return err
	}

	h := shutdown.NewHandler(shutdownTimeout)
	h.SetLogger(log)
	d.registerHooks(h)
	if err := d.start(c.Context); err != nil {
		return err
	}

	log.Info("server started")
	if err := h.Wait(c.Context); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// newLoader builds the loader and records command-line overrides, which
// outrank the file and the environment and survive reloads.
func newLoader(c *cli.Context) (*confloader.Loader, error) {
	var opts []confloader.Option
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	loader := confloader.NewLoader(opts...)

	overrides := map[string]any{}
	if c.IsSet("socket") {
		overrides["server.local.path"] = c.String("socket")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
	}
	return loader, nil
}

func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}
