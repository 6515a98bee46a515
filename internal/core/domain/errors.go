package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a sign-on failure with a structured error code.
//
// Codes follow the layout SOD-<AREA>-<NNNN>. Two DomainErrors match under
// errors.Is when their codes are equal, regardless of message or details.
type DomainError struct {
	Code    string // Error code (e.g., "SOD-CRED-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsRetryable reports whether err is a credential mismatch, the only
// failure an authentication transaction answers with another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCredentialMismatch)
}

// IsTransport reports whether err came from moving frames over the peer
// connection. Transport failures end a transaction without a response.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// ============================================================================
// Protocol Errors (PROT)
// ============================================================================

var (
	// ErrProtocolViolation is the generic protocol failure.
	ErrProtocolViolation = NewDomainError("SOD-PROT-4000", "protocol violation")

	// ErrLoopback indicates a request carried the receiving instance's own identifier.
	ErrLoopback = NewDomainError("SOD-PROT-4001", "loopback request")

	// ErrUnexpectedVerb indicates a frame carried a verb not valid in the current phase.
	ErrUnexpectedVerb = NewDomainError("SOD-PROT-4002", "unexpected verb")

	// ErrCorrelationMismatch indicates a reply did not echo the instance identifier.
	ErrCorrelationMismatch = NewDomainError("SOD-PROT-4003", "correlation mismatch")
)

// ============================================================================
// Credential Errors (CRED)
// ============================================================================

var (
	// ErrCredentialMismatch indicates the supplied secret did not verify.
	// It is the only retryable credential failure.
	ErrCredentialMismatch = NewDomainError("SOD-CRED-4010", "credential mismatch")

	// ErrUserUnknown indicates the identity lookup found no such account.
	ErrUserUnknown = NewDomainError("SOD-CRED-4040", "unknown user")

	// ErrRootRefused indicates an attempt to authenticate the superuser.
	ErrRootRefused = NewDomainError("SOD-CRED-4030", "superuser login refused")

	// ErrUserLocked indicates the account is locked or has no usable secret.
	ErrUserLocked = NewDomainError("SOD-CRED-4031", "account locked")

	// ErrValidator indicates the credential mechanism failed for a reason
	// other than a mismatch.
	ErrValidator = NewDomainError("SOD-CRED-5000", "credential validator failure")

	// ErrConversation indicates the prompt relay to the peer failed.
	ErrConversation = NewDomainError("SOD-CRED-5001", "conversation failure")
)

// ============================================================================
// Resource Errors (RSRC)
// ============================================================================

var (
	// ErrAllocation indicates an instance or primitive could not be set up.
	ErrAllocation = NewDomainError("SOD-RSRC-5000", "resource allocation failed")

	// ErrHostname indicates the local host name could not be resolved.
	ErrHostname = NewDomainError("SOD-RSRC-5001", "hostname resolution failed")
)

// ============================================================================
// Transport Errors (TRAN)
// ============================================================================

var (
	// ErrTransport indicates a frame could not be moved over the peer connection.
	ErrTransport = NewDomainError("SOD-TRAN-5000", "transport failure")
)

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates no open session exists for the user.
	ErrSessionNotFound = NewDomainError("SOD-SESS-4040", "session not found")

	// ErrSessionOpen indicates the validator refused to open a session.
	ErrSessionOpen = NewDomainError("SOD-SESS-5000", "session open failed")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("SOD-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("SOD-ARG-1002", "missing required argument")
)
