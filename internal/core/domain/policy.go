package domain

import "time"

// Capability keys and their defaults.
const (
	CapLoginPrompt    = "login_prompt"
	CapPasswordPrompt = "passwd_prompt"
	CapLoginRetries   = "login-retries"
	CapLoginBackoff   = "login-backoff"

	DefaultLoginPrompt    = "login: "
	DefaultPasswordPrompt = "Password:"
	DefaultLoginRetries   = 10
	DefaultLoginBackoff   = 3

	// BackoffStep is the delay added per attempt past the backoff threshold.
	BackoffStep = 5 * time.Second
)

// Capabilities is a per-host capability source.
type Capabilities interface {
	String(key, def string) string
	Int(key string, def int) int
}

// LoginPolicy bounds one authentication transaction.
type LoginPolicy struct {
	LoginPrompt    string
	PasswordPrompt string
	Retries        int
	Backoff        int
}

// DefaultLoginPolicy returns the policy used when no capability overrides it.
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{
		LoginPrompt:    DefaultLoginPrompt,
		PasswordPrompt: DefaultPasswordPrompt,
		Retries:        DefaultLoginRetries,
		Backoff:        DefaultLoginBackoff,
	}
}

// PolicyFromCapabilities reads the login policy from caps. A nil source
// yields the defaults. Non-positive retry counts fall back to the default,
// negative backoff thresholds are treated as zero.
func PolicyFromCapabilities(caps Capabilities) LoginPolicy {
	p := DefaultLoginPolicy()
	if caps == nil {
		return p
	}

	p.LoginPrompt = caps.String(CapLoginPrompt, p.LoginPrompt)
	p.PasswordPrompt = caps.String(CapPasswordPrompt, p.PasswordPrompt)
	if n := caps.Int(CapLoginRetries, p.Retries); n > 0 {
		p.Retries = n
	}
	p.Backoff = max(caps.Int(CapLoginBackoff, p.Backoff), 0)
	return p
}

// GiveUp reports whether the transaction stops after the given number of
// failed attempts.
func (p LoginPolicy) GiveUp(attempts int) bool {
	return attempts >= p.Retries
}

// Delay returns how long to wait before the next attempt once attempts
// failures have been observed. Attempts up to the backoff threshold retry
// immediately; each one past it waits a further BackoffStep.
func (p LoginPolicy) Delay(attempts int) time.Duration {
	if attempts <= p.Backoff {
		return 0
	}
	return time.Duration(attempts-p.Backoff) * BackoffStep
}
