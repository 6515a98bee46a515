package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/yndnr/sod-go/internal/core/object"
	"github.com/yndnr/sod-go/internal/core/service"
	"github.com/yndnr/sod-go/internal/infra/confloader"
	"github.com/yndnr/sod-go/internal/infra/credential"
	"github.com/yndnr/sod-go/internal/infra/logincap"
	"github.com/yndnr/sod-go/internal/infra/shutdown"
	"github.com/yndnr/sod-go/internal/server/config"
	"github.com/yndnr/sod-go/internal/server/httpserver"
	"github.com/yndnr/sod-go/internal/server/localserver"
	"github.com/yndnr/sod-go/internal/storage/memory"
	"github.com/yndnr/sod-go/internal/storage/passwd"
	"github.com/yndnr/sod-go/internal/telemetry/logger"
	"github.com/yndnr/sod-go/internal/telemetry/metric"
)

// daemon holds the running components of sod-server.
type daemon struct {
	cfg    *config.ServerConfig
	loader *confloader.Loader
	log    logger.Logger

	registry *object.Registry
	sessions *memory.Store
	auth     *service.Authenticator
	server   *localserver.Server
	metrics  *metric.Registry
	watcher  *confloader.Watcher
	http     *httpserver.Server
}

func newDaemon(cfg *config.ServerConfig, loader *confloader.Loader, log logger.Logger) (*daemon, error) {
	d := &daemon{
		cfg:      cfg,
		loader:   loader,
		log:      log,
		registry: object.NewRegistry(),
		sessions: memory.New(),
		metrics:  metric.NewRegistry(),
	}

	identities, err := passwd.NewLookup(cfg.Auth.Identity.Source, cfg.Auth.Identity.PasswdFile)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	validator := credential.NewShadowValidator(credential.Config{
		ShadowFile: cfg.Auth.ShadowFile,
		SuFallback: cfg.Auth.SuFallback,
	})

	d.auth, err = service.NewAuthenticator(d.registry, service.AuthenticatorConfig{
		Service:      cfg.Auth.Service,
		Identities:   identities,
		Validator:    validator,
		Capabilities: logincap.New(loader, cfg.Auth.Class),
		Sessions:     d.sessions,
		Observer:     d.metrics,
		Logger:       log.With("component", "authenticator"),
	})
	if err != nil {
		return nil, err
	}
	if err := d.metrics.Register(metric.NewCollector(d.auth, d.sessions)); err != nil {
		return nil, fmt.Errorf("register collector: %w", err)
	}

	mode, err := config.SocketMode(cfg.Server.Local.Mode)
	if err != nil {
		return nil, err
	}
	d.server = localserver.New(localserver.Config{
		Network:     cfg.Server.Local.Network,
		Path:        cfg.Server.Local.Path,
		Mode:        mode,
		AcceptRate:  cfg.Server.Local.AcceptRate,
		AcceptBurst: cfg.Server.Local.AcceptBurst,
		Logger:      log.With("component", "localserver"),
	}, localserver.HandlerFunc(d.create))

	if loader.FilePath() != "" {
		d.watcher, err = confloader.NewWatcher(confloader.WithWatcherLogger(log))
		if err != nil {
			return nil, fmt.Errorf("config watcher: %w", err)
		}
		if err := d.watcher.Watch(loader.FilePath()); err != nil {
			return nil, fmt.Errorf("watch config: %w", err)
		}
		d.watcher.OnChange(func(string) { d.reload() })
	}
	return d, nil
}

func (d *daemon) create(l net.Listener, conn net.Conn) (localserver.Worker, error) {
	s, err := d.auth.Create(l, conn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// start opens the listeners and launches the serving goroutines.
func (d *daemon) start(ctx context.Context) error {
	if err := d.server.Listen(); err != nil {
		return err
	}
	go func() {
		if err := d.server.Serve(ctx); err != nil {
			d.log.Error("accept loop stopped", "error", err)
		}
	}()

	if addr := d.cfg.Server.Metrics.Addr; addr != "" {
		d.http = httpserver.New(addr, httpserver.NewRouter(&httpserver.RouterConfig{
			Metrics: d.metrics.Handler(),
			Ready:   d.ready,
			Logger:  d.log.With("component", "httpserver"),
		}))
		if err := d.http.Listen(); err != nil {
			_ = d.server.Close()
			return fmt.Errorf("metrics: %w", err)
		}
		go func() {
			if err := d.http.Serve(); err != nil {
				d.log.Error("metrics server stopped", "error", err)
			}
		}()
		d.log.Info("metrics listening", "addr", d.http.Addr().String())
	}

	if d.watcher != nil {
		go d.watcher.Run(ctx)
	}
	return nil
}

func (d *daemon) ready() error {
	if !d.server.Running() {
		return errors.New("accept loop is not listening")
	}
	return nil
}

// reload re-reads the configuration. Login policy is read live from the
// loader; the log level is applied here.
func (d *daemon) reload() {
	if err := d.loader.Reload(); err != nil {
		d.log.Error("reload config", "error", err)
		return
	}
	if level := d.loader.GetString("log.level"); level != "" {
		logger.SetLevel(level)
	}
	d.log.Info("configuration reloaded", "version", d.loader.Version())
}

// registerHooks registers shutdown steps. Hooks run in reverse order, so
// accepting stops first and metrics stop last.
func (d *daemon) registerHooks(h *shutdown.Handler) {
	h.OnReload(d.reload)

	h.OnShutdown("metrics", func(ctx context.Context) error {
		if d.http == nil {
			return nil
		}
		return d.http.Shutdown(ctx)
	})
	h.OnShutdown("watcher", func(context.Context) error {
		if d.watcher == nil {
			return nil
		}
		return d.watcher.Stop()
	})
	h.OnShutdown("workers", d.server.Shutdown)
	h.OnShutdown("authenticator", func(ctx context.Context) error {
		if users := d.sessions.Usernames(); len(users) > 0 {
			d.log.Info("closing open sessions", "users", users)
		}
		return d.auth.Close(ctx)
	})
	h.OnShutdown("listener", func(context.Context) error {
		return d.server.Close()
	})
}
