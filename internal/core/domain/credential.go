package domain

import "context"

// MessageStyle classifies a prompt issued by a credential validator.
type MessageStyle int

const (
	// PromptEchoOff asks for a secret; the reply must not be echoed.
	PromptEchoOff MessageStyle = iota + 1
	// PromptEchoOn asks for visible input.
	PromptEchoOn
	// ErrorMessage reports a problem to the user.
	ErrorMessage
	// TextInfo is informational text.
	TextInfo
)

// String returns the style name.
func (s MessageStyle) String() string {
	switch s {
	case PromptEchoOff:
		return "echo_off"
	case PromptEchoOn:
		return "echo_on"
	case ErrorMessage:
		return "error"
	case TextInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Message is one prompt from a validator to the remote user.
type Message struct {
	Style MessageStyle
	Text  string
}

// Conversation relays validator prompts to the remote user and returns
// one reply per message, in order.
type Conversation func(ctx context.Context, msgs []Message) ([]string, error)

// Item names a context value handed to a credential handle before
// authentication.
type Item int

const (
	// ItemRemoteUser is the user on whose behalf the request is made.
	ItemRemoteUser Item = iota + 1
	// ItemRemoteHost is the host the request is made from.
	ItemRemoteHost
	// ItemTTY is the terminal the request arrived on (the socket path).
	ItemTTY
	// ItemUserPrompt is the prompt used when asking for a login name.
	ItemUserPrompt
	// ItemAuthtokPrompt is the prompt used when asking for the secret.
	ItemAuthtokPrompt
)

// String returns the item name.
func (i Item) String() string {
	switch i {
	case ItemRemoteUser:
		return "ruser"
	case ItemRemoteHost:
		return "rhost"
	case ItemTTY:
		return "tty"
	case ItemUserPrompt:
		return "user_prompt"
	case ItemAuthtokPrompt:
		return "authtok_prompt"
	default:
		return "unknown"
	}
}

// CredentialValidator is the external authentication mechanism.
type CredentialValidator interface {
	// Start begins a transaction for user under the named service. Prompts
	// raised while authenticating are relayed through conv.
	Start(ctx context.Context, service, user string, conv Conversation) (CredentialHandle, error)
}

// CredentialHandle is one validator transaction.
//
// Authenticate returns nil on success, an error matching
// ErrCredentialMismatch when the secret did not verify, and any other
// error for failures that must not be retried.
type CredentialHandle interface {
	SetItem(item Item, value string) error
	Authenticate(ctx context.Context) error
	OpenSession(ctx context.Context) error
	CloseSession(ctx context.Context) error
	// End releases the handle. status is the last error observed, or nil.
	End(status error) error
}
