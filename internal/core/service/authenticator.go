package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/sod-go/internal/core/domain"
	"github.com/yndnr/sod-go/internal/core/object"
	"github.com/yndnr/sod-go/internal/telemetry/logger"
	"github.com/yndnr/sod-go/pkg/frame"
)

// AuthenticatorClassID identifies the authenticator class under the root.
const AuthenticatorClassID object.ID = 0x736f645f61757468

// DefaultService is the validator service name used when none is configured.
const DefaultService = "sod"

// AuthenticatorConfig wires an Authenticator to its collaborators.
type AuthenticatorConfig struct {
	// Service is the validator service name.
	Service string

	// Identities resolves login names. Required.
	Identities domain.IdentityLookup

	// Validator verifies credentials. Required.
	Validator domain.CredentialValidator

	// Capabilities supplies the per-host login policy. Optional.
	Capabilities domain.Capabilities

	// Sessions keeps open sessions between AUTH and TERM. Required.
	Sessions SessionStore

	// Observer receives transaction events. Optional.
	Observer Observer

	// Logger is the base logger. Optional.
	Logger logger.Logger

	// Hostname resolves the local host name. Defaults to os.Hostname.
	Hostname func() (string, error)
}

// Authenticator runs one authentication transaction per accepted
// connection, each on its own threaded instance.
type Authenticator struct {
	class      *object.Class
	registry   *object.Registry
	clock      clock.Clock
	service    string
	identities domain.IdentityLookup
	validator  domain.CredentialValidator
	caps       domain.Capabilities
	sessions   SessionStore
	obs        Observer
	log        logger.Logger
	hostname   func() (string, error)

	closeOnce sync.Once
}

// NewAuthenticator defines the authenticator class under reg's root.
func NewAuthenticator(reg *object.Registry, cfg AuthenticatorConfig) (*Authenticator, error) {
	if reg == nil {
		return nil, domain.ErrMissingArgument.WithDetails("registry is required")
	}
	if cfg.Identities == nil {
		return nil, domain.ErrMissingArgument.WithDetails("identity lookup is required")
	}
	if cfg.Validator == nil {
		return nil, domain.ErrMissingArgument.WithDetails("credential validator is required")
	}
	if cfg.Sessions == nil {
		return nil, domain.ErrMissingArgument.WithDetails("session store is required")
	}

	a := &Authenticator{
		registry:   reg,
		clock:      reg.Clock(),
		service:    cfg.Service,
		identities: cfg.Identities,
		validator:  cfg.Validator,
		caps:       cfg.Capabilities,
		sessions:   cfg.Sessions,
		obs:        cfg.Observer,
		log:        cfg.Logger,
		hostname:   cfg.Hostname,
	}
	if a.service == "" {
		a.service = DefaultService
	}
	if a.obs == nil {
		a.obs = nopObserver{}
	}
	if a.log == nil {
		a.log = logger.Default()
	}
	if a.hostname == nil {
		a.hostname = os.Hostname
	}

	a.class = reg.NewClass(AuthenticatorClassID, "authenticator", newAuthSession)
	if err := a.class.Init(reg.Root()); err != nil {
		return nil, fmt.Errorf("init authenticator class: %w", err)
	}
	if err := a.class.Override(object.Overrides{Start: a.start, Stop: a.stop}); err != nil {
		return nil, fmt.Errorf("override authenticator class: %w", err)
	}
	a.class.SetPublic(a)
	return a, nil
}

// Class returns the authenticator class.
func (a *Authenticator) Class() *object.Class { return a.class }

// Create starts a transaction for conn, accepted on listener. The
// instance's worker is woken before Create returns.
func (a *Authenticator) Create(listener net.Listener, conn net.Conn) (*AuthSession, error) {
	if conn == nil {
		return nil, domain.ErrMissingArgument.WithDetails("peer connection is required")
	}

	inst, err := a.class.Create()
	if err != nil {
		return nil, domain.ErrAllocation.WithCause(err)
	}
	s := inst.(*AuthSession)
	s.attach(a, listener, conn)
	a.obs.InstanceCreated()

	if err := a.class.Wakeup(s); err != nil {
		_ = a.Destroy(s)
		return nil, domain.ErrAllocation.WithCause(err)
	}
	return s, nil
}

// Join blocks until the transaction's worker has finished.
func (a *Authenticator) Join(s *AuthSession) {
	s.Thread.Join()
}

// Destroy stops s, closes its connection and evicts it.
func (a *Authenticator) Destroy(s *AuthSession) error {
	if s == nil {
		return domain.ErrMissingArgument.WithDetails("session is required")
	}
	if s.State() == object.StateDestroyed {
		return nil
	}
	if err := a.class.Destroy(s); err != nil {
		if s.State() == object.StateDestroyed {
			return nil
		}
		return err
	}
	s.reportOnce.Do(func() {
		a.obs.InstanceDestroyed(a.clock.Since(s.startedAt))
	})
	return nil
}

// Live returns the number of transactions not yet destroyed.
func (a *Authenticator) Live() int {
	return len(a.class.Instances())
}

// Close destroys every live transaction, finalizes the class and closes
// every open session. It is safe to call more than once.
func (a *Authenticator) Close(ctx context.Context) error {
	var errs []error
	a.closeOnce.Do(func() {
		for _, inst := range a.class.Instances() {
			if err := a.Destroy(inst.(*AuthSession)); err != nil {
				errs = append(errs, err)
			}
		}
		if err := a.class.Fini(a.registry.Root()); err != nil {
			errs = append(errs, fmt.Errorf("fini authenticator class: %w", err))
		}
		for _, open := range a.sessions.Drain() {
			if err := open.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close session for %s: %w", open.Username, err))
				continue
			}
			a.obs.SessionClosed()
		}
	})
	return errors.Join(errs...)
}

// start is the worker body: stay suspended until Create wakes the
// instance, then run the transaction.
func (a *Authenticator) start(inst object.Instance) {
	s := inst.(*AuthSession)
	if err := a.class.Sleep(s); err != nil {
		return
	}
	s.run()
}

// stop closes the peer connection, which unblocks any pending exchange.
func (a *Authenticator) stop(inst object.Instance) {
	inst.(*AuthSession).closePeer()
}

func listenerPath(l net.Listener) string {
	if l == nil || l.Addr() == nil {
		return ""
	}
	return l.Addr().String()
}

// codeName splits a final frame code into metric labels.
func codeName(c frame.Code) (verb, outcome string) {
	switch c.Verb() {
	case frame.AuthRequest:
		verb = "auth"
	case frame.TermRequest:
		verb = "term"
	default:
		verb = "unknown"
	}
	switch c.Status() {
	case frame.Ack:
		outcome = "ack"
	case frame.Reject:
		outcome = "reject"
	default:
		outcome = "dropped"
	}
	return verb, outcome
}
