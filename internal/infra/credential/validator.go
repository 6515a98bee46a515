package credential

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yndnr/sod-go/internal/core/domain"
	"github.com/yndnr/sod-go/internal/storage/passwd"
	"github.com/yndnr/sod-go/internal/telemetry/logger"
)

var _ domain.CredentialValidator = (*ShadowValidator)(nil)

// Config configures a ShadowValidator.
type Config struct {
	// ShadowFile is the shadow(5) database. Defaults to /etc/shadow.
	ShadowFile string

	// SuFallback enables su(1) verification for unsupported hashes.
	SuFallback bool

	// SuTimeout bounds one su(1) run. Defaults to DefaultSuTimeout.
	SuTimeout time.Duration
}

// ShadowValidator verifies passwords against shadow(5) hashes.
type ShadowValidator struct {
	shadowFile string
	su         suVerifier
}

// NewShadowValidator creates a validator from cfg.
func NewShadowValidator(cfg Config) *ShadowValidator {
	v := &ShadowValidator{shadowFile: cfg.ShadowFile}
	if v.shadowFile == "" {
		v.shadowFile = passwd.DefaultShadowFile
	}
	if cfg.SuFallback {
		timeout := cfg.SuTimeout
		if timeout <= 0 {
			timeout = DefaultSuTimeout
		}
		v.su = verifyWithSu(timeout)
	}
	return v
}

// Start begins a transaction for user. service is accepted for interface
// compatibility and recorded only.
func (v *ShadowValidator) Start(_ context.Context, service, user string, conv domain.Conversation) (domain.CredentialHandle, error) {
	if user == "" {
		return nil, domain.ErrMissingArgument.WithDetails("user is required")
	}
	if conv == nil {
		return nil, domain.ErrMissingArgument.WithDetails("conversation is required")
	}
	return &handle{
		v:       v,
		service: service,
		user:    user,
		conv:    conv,
		items:   make(map[domain.Item]string),
	}, nil
}

type handle struct {
	v       *ShadowValidator
	service string
	user    string
	conv    domain.Conversation

	mu            sync.Mutex
	items         map[domain.Item]string
	authenticated bool
	open          bool
	ended         bool
}

var errEnded = errors.New("credential: handle already ended")

func (h *handle) SetItem(item domain.Item, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ended {
		return errEnded
	}
	h.items[item] = value
	return nil
}

func (h *handle) item(item domain.Item, def string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v := h.items[item]; v != "" {
		return v
	}
	return def
}

// Authenticate asks for one password and verifies it.
func (h *handle) Authenticate(ctx context.Context) error {
	prompt := h.item(domain.ItemAuthtokPrompt, domain.DefaultPasswordPrompt)
	replies, err := h.conv(ctx, []domain.Message{{Style: domain.PromptEchoOff, Text: prompt}})
	if err != nil {
		return domain.ErrConversation.WithCause(err)
	}
	if len(replies) != 1 {
		return domain.ErrConversation.WithDetails("expected one reply")
	}
	password := replies[0]

	ok, err := h.v.verify(ctx, h.user, password)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCredentialMismatch
	}

	h.mu.Lock()
	h.authenticated = true
	h.mu.Unlock()
	return nil
}

func (v *ShadowValidator) verify(ctx context.Context, user, password string) (bool, error) {
	sh, err := passwd.LoadShadow(v.shadowFile)
	if err != nil {
		return false, domain.ErrValidator.WithCause(err)
	}
	entry := sh.Find(user)
	if entry == nil {
		return false, nil
	}
	if entry.Locked() {
		return false, domain.ErrUserLocked.WithDetails(user)
	}

	ok, err := VerifyHash(entry.Hash, password)
	if errors.Is(err, ErrUnsupportedHash) && v.su != nil {
		logger.L(ctx).Debug("hash scheme unsupported, trying su", "user", user)
		ok, err = v.su(ctx, user, password)
	}
	if err != nil {
		return false, domain.ErrValidator.WithCause(err)
	}
	return ok, nil
}

func (h *handle) OpenSession(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.authenticated || h.ended {
		return domain.ErrSessionOpen.WithDetails("not authenticated")
	}
	h.open = true
	return nil
}

func (h *handle) CloseSession(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.open {
		return domain.ErrSessionNotFound
	}
	h.open = false
	return nil
}

// End releases the handle. It is idempotent.
func (h *handle) End(error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ended = true
	h.open = false
	clear(h.items)
	return nil
}
