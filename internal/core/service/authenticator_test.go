package service

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yndnr/sod-go/internal/core/domain"
	"github.com/yndnr/sod-go/internal/core/object"
	"github.com/yndnr/sod-go/internal/telemetry/logger"
	"github.com/yndnr/sod-go/pkg/frame"
)

const testSocket = "/run/sod/test.sock"

// ---- fakes ----

type fakeLookup map[string]*domain.Identity

func (f fakeLookup) Lookup(_ context.Context, name string) (*domain.Identity, error) {
	id, ok := f[name]
	if !ok {
		return nil, domain.ErrUserUnknown.WithDetails(name)
	}
	return id, nil
}

type fakeValidator struct {
	mu         sync.Mutex
	password   string
	mismatches int
	startErr   error
	openErr    error
	rounds     int
	items      map[domain.Item]string
	handles    []*fakeHandle
}

func (v *fakeValidator) Start(_ context.Context, service, user string, conv domain.Conversation) (domain.CredentialHandle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.startErr != nil {
		return nil, v.startErr
	}
	if v.items == nil {
		v.items = make(map[domain.Item]string)
	}
	h := &fakeHandle{v: v, conv: conv}
	v.handles = append(v.handles, h)
	return h, nil
}

func (v *fakeValidator) item(i domain.Item) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.items[i]
}

func (v *fakeValidator) counts() (rounds, ended, closed int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, h := range v.handles {
		ended += h.ended
		closed += h.closed
	}
	return v.rounds, ended, closed
}

type fakeHandle struct {
	v      *fakeValidator
	conv   domain.Conversation
	ended  int
	closed int
}

func (h *fakeHandle) SetItem(i domain.Item, value string) error {
	h.v.mu.Lock()
	defer h.v.mu.Unlock()
	h.v.items[i] = value
	return nil
}

func (h *fakeHandle) Authenticate(ctx context.Context) error {
	replies, err := h.conv(ctx, []domain.Message{
		{Style: domain.PromptEchoOff, Text: h.v.item(domain.ItemAuthtokPrompt)},
	})
	if err != nil {
		return domain.ErrConversation.WithCause(err)
	}

	h.v.mu.Lock()
	defer h.v.mu.Unlock()
	h.v.rounds++
	if h.v.rounds <= h.v.mismatches || replies[0] != h.v.password {
		return domain.ErrCredentialMismatch
	}
	return nil
}

func (h *fakeHandle) OpenSession(context.Context) error {
	h.v.mu.Lock()
	defer h.v.mu.Unlock()
	return h.v.openErr
}

func (h *fakeHandle) CloseSession(context.Context) error {
	h.v.mu.Lock()
	defer h.v.mu.Unlock()
	h.closed++
	return nil
}

func (h *fakeHandle) End(error) error {
	h.v.mu.Lock()
	defer h.v.mu.Unlock()
	h.ended++
	return nil
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.OpenSession
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*domain.OpenSession)}
}

func (s *fakeStore) Put(o *domain.OpenSession) *domain.OpenSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions[o.Username]
	s.sessions[o.Username] = o
	return prev
}

func (s *fakeStore) Take(username string) (*domain.OpenSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.sessions[username]
	delete(s.sessions, username)
	return o, ok
}

func (s *fakeStore) Drain() []*domain.OpenSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.OpenSession, 0, len(s.sessions))
	for k, o := range s.sessions {
		out = append(out, o)
		delete(s.sessions, k)
	}
	return out
}

func (s *fakeStore) has(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[username]
	return ok
}

type recordingObserver struct {
	nopObserver
	mu        sync.Mutex
	backoffs  []time.Duration
	outcomes  []string
	destroyed int
}

func (o *recordingObserver) InstanceDestroyed(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.destroyed++
}

func (o *recordingObserver) BackoffWaited(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.backoffs = append(o.backoffs, d)
}

func (o *recordingObserver) TransactionFinished(verb, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, verb+"/"+outcome)
}

func (o *recordingObserver) waits() []time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]time.Duration(nil), o.backoffs...)
}

type fakeListener struct{}

func (fakeListener) Accept() (net.Conn, error) { return nil, net.ErrClosed }
func (fakeListener) Close() error              { return nil }
func (fakeListener) Addr() net.Addr            { return &net.UnixAddr{Name: testSocket, Net: "unixpacket"} }

// ---- harness ----

type harness struct {
	t         *testing.T
	auth      *Authenticator
	validator *fakeValidator
	store     *fakeStore
	obs       *recordingObserver
}

func newHarness(t *testing.T, v *fakeValidator, opts ...object.Option) *harness {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Output: io.Discard})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}
	h := &harness{t: t, validator: v, store: newFakeStore(), obs: &recordingObserver{}}
	h.auth, err = NewAuthenticator(object.NewRegistry(opts...), AuthenticatorConfig{
		Identities: fakeLookup{
			"alice": {Name: "alice", UID: 1000, GID: 1000},
			"root":  {Name: "root", UID: 0, GID: 0},
		},
		Validator: v,
		Sessions:  h.store,
		Observer:  h.obs,
		Logger:    log,
		Hostname:  func() (string, error) { return "testhost", nil },
	})
	if err != nil {
		t.Fatalf("NewAuthenticator() error = %v", err)
	}
	return h
}

// connect starts a transaction and returns the client end.
func (h *harness) connect() (*AuthSession, *client) {
	h.t.Helper()
	server, peer := net.Pipe()
	s, err := h.auth.Create(fakeListener{}, server)
	if err != nil {
		h.t.Fatalf("Create() error = %v", err)
	}
	h.t.Cleanup(func() {
		_ = peer.Close()
		_ = s.Destroy()
	})
	return s, &client{t: h.t, conn: peer}
}

type client struct {
	t    *testing.T
	conn net.Conn
}

func (c *client) send(code frame.Code, token string, correlation uint64) {
	c.t.Helper()
	f := frame.New()
	f.Prepare(token, code, correlation)
	_ = c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err := frame.Send(c.conn, f); err != nil {
		c.t.Fatalf("client send %v: %v", code, err)
	}
}

func (c *client) recv() *frame.Frame {
	c.t.Helper()
	f := frame.New()
	_ = c.conn.SetDeadline(time.Now().Add(5 * time.Second))
	if err := frame.Receive(c.conn, f); err != nil {
		c.t.Fatalf("client receive: %v", err)
	}
	return f
}

// login answers every prompt with password and returns the final frame.
func (c *client) login(user, password string) (*frame.Frame, int) {
	c.t.Helper()
	c.send(frame.AuthRequest, user, 0)
	prompts := 0
	for {
		f := c.recv()
		if f.Code != frame.AuthNak {
			return f, prompts
		}
		prompts++
		c.send(frame.AuthRequest, password, f.Correlation)
	}
}

func join(t *testing.T, s *AuthSession) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit")
	}
}

// ---- tests ----

func TestNewAuthenticator_RequiresCollaborators(t *testing.T) {
	reg := object.NewRegistry()
	full := AuthenticatorConfig{
		Identities: fakeLookup{},
		Validator:  &fakeValidator{},
		Sessions:   newFakeStore(),
	}

	tests := []struct {
		name   string
		reg    *object.Registry
		mutate func(*AuthenticatorConfig)
	}{
		{"nil registry", nil, func(*AuthenticatorConfig) {}},
		{"no identities", reg, func(c *AuthenticatorConfig) { c.Identities = nil }},
		{"no validator", reg, func(c *AuthenticatorConfig) { c.Validator = nil }},
		{"no sessions", reg, func(c *AuthenticatorConfig) { c.Sessions = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mutate(&cfg)
			if _, err := NewAuthenticator(tt.reg, cfg); !errors.Is(err, domain.ErrMissingArgument) {
				t.Errorf("NewAuthenticator() error = %v, want ErrMissingArgument", err)
			}
		})
	}
}

func TestAuthenticator_Login(t *testing.T) {
	h := newHarness(t, &fakeValidator{password: "secret"})
	s, c := h.connect()

	c.send(frame.AuthRequest, "alice", 0)
	nak := c.recv()
	if nak.Code != frame.AuthNak {
		t.Fatalf("first response = %v, want AUTH_NAK", nak.Code)
	}
	if nak.Text() != domain.DefaultPasswordPrompt {
		t.Errorf("prompt = %q, want %q", nak.Text(), domain.DefaultPasswordPrompt)
	}
	if nak.Correlation != uint64(s.ID()) {
		t.Errorf("prompt correlation = %x, want %x", nak.Correlation, uint64(s.ID()))
	}

	c.send(frame.AuthRequest, "secret", nak.Correlation)
	ack := c.recv()
	if ack.Code != frame.AuthAck {
		t.Fatalf("final response = %v, want AUTH_ACK", ack.Code)
	}
	if ack.Text() != "alice" {
		t.Errorf("ack token = %q, want alice", ack.Text())
	}

	join(t, s)
	if s.Outcome() != frame.Ack {
		t.Errorf("Outcome() = %v, want ACK", s.Outcome())
	}
	if !h.store.has("alice") {
		t.Error("successful login should record an open session")
	}

	v := h.validator
	if got := v.item(domain.ItemRemoteUser); got != "alice" {
		t.Errorf("remote user = %q, want alice", got)
	}
	if got := v.item(domain.ItemRemoteHost); got != "testhost" {
		t.Errorf("remote host = %q, want testhost", got)
	}
	if got := v.item(domain.ItemTTY); got != testSocket {
		t.Errorf("tty = %q, want %q", got, testSocket)
	}
	if got := v.item(domain.ItemUserPrompt); got != domain.DefaultLoginPrompt {
		t.Errorf("user prompt = %q, want %q", got, domain.DefaultLoginPrompt)
	}

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if h.auth.Live() != 0 {
		t.Errorf("Live() = %d after Destroy, want 0", h.auth.Live())
	}
	if _, ended, _ := v.counts(); ended != 0 {
		t.Errorf("open session handle ended %d times before TERM, want 0", ended)
	}
}

func TestAuthenticator_Refusals(t *testing.T) {
	tests := []struct {
		name string
		user string
		v    *fakeValidator
	}{
		{"root", "root", &fakeValidator{password: "secret"}},
		{"unknown user", "mallory", &fakeValidator{password: "secret"}},
		{"empty user", "", &fakeValidator{password: "secret"}},
		{"hard validator error", "alice", &fakeValidator{startErr: domain.ErrValidator}},
		{"session open failure", "alice", &fakeValidator{password: "secret", openErr: errors.New("no session")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.v)
			s, c := h.connect()

			f, _ := c.login(tt.user, "secret")
			if f.Code != frame.AuthReject {
				t.Errorf("response = %v, want AUTH_REJ", f.Code)
			}
			join(t, s)
			if h.store.has(tt.user) {
				t.Error("refused login should not record a session")
			}
		})
	}
}

func TestAuthenticator_RootNeverPrompted(t *testing.T) {
	v := &fakeValidator{password: "secret"}
	h := newHarness(t, v)
	s, c := h.connect()

	_, prompts := c.login("root", "secret")
	join(t, s)
	if prompts != 0 {
		t.Errorf("root login was prompted %d times, want 0", prompts)
	}
	if rounds, _, _ := v.counts(); rounds != 0 {
		t.Errorf("validator ran %d rounds for root, want 0", rounds)
	}
}

func TestAuthenticator_EstablishRejects(t *testing.T) {
	tests := []struct {
		name     string
		code     frame.Code
		loopback bool
	}{
		{"loopback correlation", frame.AuthRequest, true},
		{"ack code", frame.AuthAck, false},
		{"unknown verb", frame.Code(0x05), false},
		{"nak code", frame.AuthNak, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeValidator{password: "secret"})
			s, c := h.connect()

			var corr uint64
			if tt.loopback {
				corr = uint64(s.ID())
			}
			c.send(tt.code, "alice", corr)
			if f := c.recv(); f.Code != frame.AuthReject {
				t.Errorf("response = %v, want AUTH_REJ", f.Code)
			}
			join(t, s)
			if rounds, _, _ := h.validator.counts(); rounds != 0 {
				t.Errorf("validator ran %d rounds, want 0", rounds)
			}
		})
	}
}

func TestAuthenticator_BadReplyRejects(t *testing.T) {
	tests := []struct {
		name  string
		code  frame.Code
		wrong bool
	}{
		{"wrong correlation", frame.AuthRequest, true},
		{"wrong verb", frame.TermRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &fakeValidator{password: "secret"})
			s, c := h.connect()

			c.send(frame.AuthRequest, "alice", 0)
			nak := c.recv()
			corr := nak.Correlation
			if tt.wrong {
				corr++
			}
			c.send(tt.code, "secret", corr)

			if f := c.recv(); f.Code != frame.AuthReject {
				t.Errorf("response = %v, want AUTH_REJ", f.Code)
			}
			join(t, s)
			if h.store.has("alice") {
				t.Error("rejected round should not open a session")
			}
			if _, ended, _ := h.validator.counts(); ended != 1 {
				t.Errorf("handle ended %d times, want 1", ended)
			}
		})
	}
}

func TestAuthenticator_MismatchRetriesWithoutBackoff(t *testing.T) {
	v := &fakeValidator{password: "secret"}
	h := newHarness(t, v)
	s, c := h.connect()

	c.send(frame.AuthRequest, "alice", 0)
	nak := c.recv()
	c.send(frame.AuthRequest, "wrong", nak.Correlation)
	nak = c.recv()
	if nak.Code != frame.AuthNak {
		t.Fatalf("response after mismatch = %v, want AUTH_NAK", nak.Code)
	}
	c.send(frame.AuthRequest, "secret", nak.Correlation)
	if f := c.recv(); f.Code != frame.AuthAck {
		t.Fatalf("final response = %v, want AUTH_ACK", f.Code)
	}
	join(t, s)

	if got := h.obs.waits(); len(got) != 0 {
		t.Errorf("backoff waits = %v, want none", got)
	}
	if rounds, ended, _ := v.counts(); rounds != 2 || ended != 1 {
		t.Errorf("rounds = %d, ended = %d, want 2, 1", rounds, ended)
	}
}

func TestAuthenticator_Backoff(t *testing.T) {
	tests := []struct {
		name       string
		mismatches int
		want       frame.Code
		waits      []time.Duration
	}{
		{
			name:       "three mismatches no delay",
			mismatches: 3,
			want:       frame.AuthAck,
		},
		{
			name:       "five mismatches",
			mismatches: 5,
			want:       frame.AuthAck,
			waits:      []time.Duration{5 * time.Second, 10 * time.Second},
		},
		{
			name:       "nine mismatches",
			mismatches: 9,
			want:       frame.AuthAck,
			waits: []time.Duration{
				5 * time.Second, 10 * time.Second, 15 * time.Second,
				20 * time.Second, 25 * time.Second, 30 * time.Second,
			},
		},
		{
			name:       "ten mismatches gives up",
			mismatches: 10,
			want:       frame.AuthReject,
			waits: []time.Duration{
				5 * time.Second, 10 * time.Second, 15 * time.Second,
				20 * time.Second, 25 * time.Second, 30 * time.Second,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := clock.NewMock()
			v := &fakeValidator{password: "secret", mismatches: tt.mismatches}
			h := newHarness(t, v, object.WithClock(mock))
			s, c := h.connect()

			type result struct {
				code    frame.Code
				prompts int
			}
			done := make(chan result, 1)
			go func() {
				f, prompts := c.login("alice", "secret")
				done <- result{f.Code, prompts}
			}()

			start := mock.Now()
			var res result
			deadline := time.After(10 * time.Second)
		loop:
			for {
				select {
				case res = <-done:
					break loop
				case <-deadline:
					t.Fatal("login did not finish")
				case <-time.After(2 * time.Millisecond):
					mock.Add(time.Second)
				}
			}
			join(t, s)

			if res.code != tt.want {
				t.Errorf("final response = %v, want %v", res.code, tt.want)
			}
			wantPrompts := tt.mismatches + 1
			if tt.want == frame.AuthReject {
				wantPrompts = tt.mismatches
			}
			if res.prompts != wantPrompts {
				t.Errorf("prompts = %d, want %d", res.prompts, wantPrompts)
			}

			got := h.obs.waits()
			if len(got) != len(tt.waits) {
				t.Fatalf("backoff waits = %v, want %v", got, tt.waits)
			}
			var total time.Duration
			for i := range got {
				if got[i] != tt.waits[i] {
					t.Errorf("wait %d = %v, want %v", i, got[i], tt.waits[i])
				}
				total += got[i]
			}
			if elapsed := mock.Now().Sub(start); elapsed < total {
				t.Errorf("mock clock advanced %v, want at least %v", elapsed, total)
			}
		})
	}
}

func TestAuthenticator_Terminate(t *testing.T) {
	v := &fakeValidator{password: "secret"}
	h := newHarness(t, v)

	s, c := h.connect()
	if f, _ := c.login("alice", "secret"); f.Code != frame.AuthAck {
		t.Fatalf("login response = %v, want AUTH_ACK", f.Code)
	}
	join(t, s)

	s, c = h.connect()
	c.send(frame.TermRequest, "alice", 0)
	if f := c.recv(); f.Code != frame.TermAck {
		t.Errorf("TERM response = %v, want TERM_ACK", f.Code)
	}
	join(t, s)
	if h.store.has("alice") {
		t.Error("TERM should remove the open session")
	}
	if _, ended, closed := v.counts(); ended != 1 || closed != 1 {
		t.Errorf("ended = %d, closed = %d, want 1, 1", ended, closed)
	}

	s, c = h.connect()
	c.send(frame.TermRequest, "alice", 0)
	if f := c.recv(); f.Code != frame.TermReject {
		t.Errorf("second TERM response = %v, want TERM_REJ", f.Code)
	}
	join(t, s)
}

func TestAuthenticator_ReceiveFailureDropsConnection(t *testing.T) {
	h := newHarness(t, &fakeValidator{password: "secret"})
	s, c := h.connect()

	_ = c.conn.Close()
	join(t, s)
	if s.Outcome() != 0 {
		t.Errorf("Outcome() = %v, want none", s.Outcome())
	}

	h.obs.mu.Lock()
	defer h.obs.mu.Unlock()
	if len(h.obs.outcomes) != 1 || h.obs.outcomes[0] != "unknown/dropped" {
		t.Errorf("outcomes = %v, want [unknown/dropped]", h.obs.outcomes)
	}
}

func TestAuthenticator_DestroyMidConversation(t *testing.T) {
	v := &fakeValidator{password: "secret"}
	h := newHarness(t, v)
	s, c := h.connect()

	c.send(frame.AuthRequest, "alice", 0)
	_ = c.recv() // prompt left unanswered

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if !s.Exited() {
		t.Error("Destroy() returned before the worker exited")
	}
	if s.State() != object.StateDestroyed {
		t.Errorf("State() = %v, want DESTROYED", s.State())
	}
	if _, ended, _ := v.counts(); ended != 1 {
		t.Errorf("handle ended %d times, want 1", ended)
	}
	if err := s.Destroy(); err != nil {
		t.Errorf("second Destroy() error = %v, want nil", err)
	}
}

func TestAuthenticator_Close(t *testing.T) {
	v := &fakeValidator{password: "secret"}
	h := newHarness(t, v)

	s, c := h.connect()
	if f, _ := c.login("alice", "secret"); f.Code != frame.AuthAck {
		t.Fatalf("login response = %v, want AUTH_ACK", f.Code)
	}
	join(t, s)

	idle, _ := h.connect()
	if err := h.auth.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !idle.Exited() {
		t.Error("Close() should stop live transactions")
	}
	if h.auth.Live() != 0 {
		t.Errorf("Live() = %d after Close, want 0", h.auth.Live())
	}
	if _, _, closed := v.counts(); closed != 1 {
		t.Errorf("sessions closed = %d, want 1", closed)
	}
	if _, err := h.auth.Create(fakeListener{}, &net.UnixConn{}); !errors.Is(err, domain.ErrAllocation) {
		t.Errorf("Create() after Close error = %v, want ErrAllocation", err)
	}
}

func TestAuthenticator_ConcurrentDestroyAndClose(t *testing.T) {
	v := &fakeValidator{password: "secret"}
	h := newHarness(t, v)
	s, c := h.connect()

	c.send(frame.AuthRequest, "alice", 0)
	_ = c.recv() // prompt left unanswered

	const callers = 4
	errs := make(chan error, callers+1)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Destroy()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs <- h.auth.Close(context.Background())
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("teardown error = %v, want nil", err)
		}
	}
	if s.State() != object.StateDestroyed {
		t.Errorf("State() = %v, want DESTROYED", s.State())
	}
	if h.auth.Live() != 0 {
		t.Errorf("Live() = %d, want 0", h.auth.Live())
	}
	h.obs.mu.Lock()
	defer h.obs.mu.Unlock()
	if h.obs.destroyed != 1 {
		t.Errorf("InstanceDestroyed reported %d times, want 1", h.obs.destroyed)
	}
}
