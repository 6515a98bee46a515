package service

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/yndnr/sod-go/internal/core/domain"
	"github.com/yndnr/sod-go/internal/core/object"
	"github.com/yndnr/sod-go/internal/telemetry/logger"
	"github.com/yndnr/sod-go/pkg/frame"
)

// AuthSession is one authentication transaction bound to one peer
// connection and one worker goroutine.
type AuthSession struct {
	object.Thread

	auth      *Authenticator
	listener  net.Listener
	peer      net.Conn
	closeOnce sync.Once

	reportOnce sync.Once

	tty      string
	hostname string
	username string
	policy   domain.LoginPolicy
	handle   domain.CredentialHandle

	verb    frame.Code
	outcome frame.Code
	buf     frame.Frame

	log       logger.Logger
	startedAt time.Time
}

func newAuthSession() object.Instance {
	return &AuthSession{buf: *frame.New()}
}

func (s *AuthSession) attach(a *Authenticator, l net.Listener, conn net.Conn) {
	s.auth = a
	s.listener = l
	s.peer = conn
	s.tty = listenerPath(l)
	s.policy = domain.DefaultLoginPolicy()
	s.startedAt = a.clock.Now()
	s.log = a.log.With("instance", s.ID().String(), "tty", s.tty)
}

// Username returns the candidate login name taken from the request.
func (s *AuthSession) Username() string { return s.username }

// Outcome returns the final code delivered to the peer, or zero if no
// final frame was sent.
func (s *AuthSession) Outcome() frame.Code { return s.outcome }

// Destroy tears the transaction down through its authenticator.
func (s *AuthSession) Destroy() error { return s.auth.Destroy(s) }

func (s *AuthSession) closePeer() {
	s.closeOnce.Do(func() {
		if s.peer != nil {
			_ = s.peer.Close()
		}
	})
}

type phase int

const (
	phaseEstablish phase = iota
	phaseAuthenticate
	phaseTerminate
	phaseRespond
	phaseDone
)

func (s *AuthSession) run() {
	ctx := logger.WithLogger(s.Context(), s.auth.log)
	ctx = logger.WithInstanceID(ctx, s.ID().String())
	defer s.release()

	p := phaseEstablish
	for p != phaseDone {
		switch p {
		case phaseEstablish:
			p = s.establish(ctx)
		case phaseAuthenticate:
			p = s.authenticate(ctx)
		case phaseTerminate:
			p = s.terminate(ctx)
		case phaseRespond:
			p = s.respond()
		default:
			p = phaseDone
		}
	}

	verb, outcome := codeName(s.verb | s.outcome)
	s.auth.obs.TransactionFinished(verb, outcome)
}

// release ends a credential handle still held when the worker exits.
func (s *AuthSession) release() {
	s.buf.Wipe()
	if s.handle == nil {
		return
	}
	if err := s.handle.End(domain.ErrCredentialMismatch); err != nil {
		s.log.Warn("release credential handle", "error", err)
	}
	s.handle = nil
}

func (s *AuthSession) establish(ctx context.Context) phase {
	if err := s.exchange(frame.OpReceive); err != nil {
		if errors.Is(err, domain.ErrProtocolViolation) {
			s.log.Warn("malformed request", "error", err)
			return s.reject(frame.AuthReject)
		}
		s.log.Debug("receive request", "error", err)
		return phaseDone
	}

	if s.buf.Correlation == uint64(s.ID()) {
		s.log.Warn("request rejected", "error", domain.ErrLoopback)
		return s.reject(frame.AuthReject)
	}

	switch s.buf.Code {
	case frame.AuthRequest:
		s.verb = frame.AuthRequest
		host, err := s.auth.hostname()
		if err != nil {
			s.log.Error("resolve host name", "error", domain.ErrHostname.WithCause(err))
			return phaseDone
		}
		s.hostname = host
		s.username = s.buf.Text()
		return phaseAuthenticate

	case frame.TermRequest:
		s.verb = frame.TermRequest
		s.username = s.buf.Text()
		return phaseTerminate

	default:
		s.log.Warn("request rejected",
			"error", domain.ErrUnexpectedVerb.WithDetails(s.buf.Code.String()))
		return s.reject(frame.AuthReject)
	}
}

func (s *AuthSession) authenticate(ctx context.Context) phase {
	s.policy = domain.PolicyFromCapabilities(s.auth.caps)
	log := s.log.With("user", s.username)

	if err := domain.ValidateUsername(s.username); err != nil {
		log.Warn("authentication refused", "error", err)
		return s.reject(frame.AuthReject)
	}
	id, err := s.auth.identities.Lookup(ctx, s.username)
	if err != nil {
		log.Warn("authentication refused", "error", err)
		return s.reject(frame.AuthReject)
	}
	if id.IsRoot() {
		log.Warn("authentication refused", "error", domain.ErrRootRefused)
		return s.reject(frame.AuthReject)
	}

	attempts := 0
	for {
		err := s.attempt(ctx)
		if err == nil {
			s.auth.obs.AttemptFinished("success")
			break
		}
		s.releaseHandle(err)

		if domain.IsTransport(err) {
			s.auth.obs.AttemptFinished("aborted")
			log.Debug("conversation aborted", "error", err)
			return phaseDone
		}
		if !domain.IsRetryable(err) {
			s.auth.obs.AttemptFinished("failed")
			log.Warn("authentication failed", "error", err)
			return s.reject(frame.AuthReject)
		}

		attempts++
		s.auth.obs.AttemptFinished("mismatch")
		if s.policy.GiveUp(attempts) {
			log.Warn("authentication failed", "attempts", attempts)
			return s.reject(frame.AuthReject)
		}
		if d := s.policy.Delay(attempts); d > 0 {
			log.Info("backing off", "attempts", attempts, "delay", d)
			s.auth.obs.BackoffWaited(d)
			if err := s.auth.class.Wait(s, d); err != nil && !errors.Is(err, object.ErrWaitTimeout) {
				log.Debug("backoff interrupted", "error", err)
				return phaseDone
			}
		}
	}

	if err := s.handle.OpenSession(ctx); err != nil {
		log.Error("open session", "error", domain.ErrSessionOpen.WithCause(err))
		s.releaseHandle(err)
		return s.reject(frame.AuthReject)
	}
	s.recordSession(ctx)

	log.Info("authenticated", "attempts", attempts+1)
	s.buf.Prepare(s.username, frame.AuthAck, uint64(s.ID()))
	return phaseRespond
}

// attempt runs one validator round, leaving the handle on s.
func (s *AuthSession) attempt(ctx context.Context) error {
	h, err := s.auth.validator.Start(ctx, s.auth.service, s.username, s.converse)
	if err != nil {
		return err
	}
	s.handle = h

	items := []struct {
		item  domain.Item
		value string
	}{
		{domain.ItemRemoteUser, s.username},
		{domain.ItemRemoteHost, s.hostname},
		{domain.ItemTTY, s.tty},
		{domain.ItemUserPrompt, s.policy.LoginPrompt},
		{domain.ItemAuthtokPrompt, s.policy.PasswordPrompt},
	}
	for _, it := range items {
		if err := h.SetItem(it.item, it.value); err != nil {
			return err
		}
	}
	return h.Authenticate(ctx)
}

func (s *AuthSession) releaseHandle(status error) {
	if s.handle == nil {
		return
	}
	if err := s.handle.End(status); err != nil {
		s.log.Debug("end credential handle", "error", err)
	}
	s.handle = nil
}

func (s *AuthSession) recordSession(ctx context.Context) {
	open := &domain.OpenSession{
		Username: s.username,
		Handle:   s.handle,
		Owner:    uint64(s.ID()),
		OpenedAt: s.auth.clock.Now(),
	}
	s.handle = nil
	s.auth.obs.SessionOpened()

	if prev := s.auth.sessions.Put(open); prev != nil {
		if err := prev.Close(ctx); err != nil {
			s.log.Warn("close replaced session", "user", prev.Username, "error", err)
		}
		s.auth.obs.SessionClosed()
	}
}

func (s *AuthSession) terminate(ctx context.Context) phase {
	open, ok := s.auth.sessions.Take(s.username)
	if !ok {
		s.log.Info("no open session", "user", s.username)
		return s.reject(frame.TermReject)
	}
	if err := open.Close(ctx); err != nil {
		s.log.Warn("close session", "user", s.username, "error", err)
		s.auth.obs.SessionClosed()
		return s.reject(frame.TermReject)
	}
	s.auth.obs.SessionClosed()

	s.log.Info("session closed", "user", s.username)
	s.buf.Prepare(s.username, frame.TermAck, uint64(s.ID()))
	return phaseRespond
}

func (s *AuthSession) reject(code frame.Code) phase {
	s.buf.Prepare("", code, uint64(s.ID()))
	if s.verb == 0 {
		s.verb = code.Verb()
	}
	return phaseRespond
}

func (s *AuthSession) respond() phase {
	code := s.buf.Code
	if err := s.exchange(frame.OpSend); err != nil {
		s.log.Warn("send response", "code", code.String(), "error", err)
		return phaseDone
	}
	s.outcome = code.Status()
	s.log.Debug("response sent", "code", code.String())
	return phaseDone
}

// exchange runs one codec operation on the scratch frame. A received frame
// with a bad declared length is a protocol violation; everything else is
// a transport failure.
func (s *AuthSession) exchange(op frame.Op) error {
	if err := frame.Exchange(op, s.peer, &s.buf); err != nil {
		if errors.Is(err, frame.ErrLength) && op == frame.OpReceive {
			return domain.ErrProtocolViolation.WithCause(err)
		}
		return domain.ErrTransport.WithCause(err)
	}
	s.auth.obs.FrameExchanged(op.String())
	return nil
}
