package manifest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorType classifies manifest errors for better handling
type ErrorType int

const (
	// ErrTypeNetwork indicates a generic network-related error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeHTTP indicates a non-2xx response from the manifest host
	ErrTypeHTTP
	// ErrTypeParsing indicates an error parsing the manifest payload
	ErrTypeParsing
	// ErrTypeValidation indicates an entry failed validation
	ErrTypeValidation
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeDNS indicates DNS resolution failure
	ErrTypeDNS
	// ErrTypeConnection indicates connection refused or reset
	ErrTypeConnection
	// ErrTypeTLS indicates TLS/SSL certificate errors
	ErrTypeTLS
	// ErrTypeSignature indicates the manifest signature did not verify
	ErrTypeSignature
	// ErrTypeSchema indicates the manifest schema version is unsupported
	ErrTypeSchema
)

// Error provides structured error information for manifest operations.
type Error struct {
	Type    ErrorType
	Addon   string // Add-on name that caused the error, if any
	Status  int    // HTTP status for ErrTypeHTTP
	Message string // Human-readable error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("manifest: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support
func (e *Error) Unwrap() error {
	return e.Err
}

// Suggestion returns an actionable suggestion for the user based on the error type.
// Returns an empty string if no specific suggestion is available.
func (e *Error) Suggestion() string {
	switch e.Type {
	case ErrTypeTimeout:
		return "Check your internet connection and try again"
	case ErrTypeDNS:
		return "Check your DNS settings and internet connection"
	case ErrTypeConnection:
		return "The manifest host may be down. Try again in a few minutes"
	case ErrTypeTLS:
		return "There may be a certificate issue. Check your system time is correct"
	case ErrTypeHTTP:
		if e.Status >= 500 {
			return "The manifest host is having problems. Try again later"
		}
		return "Check the manifest URL in nwupd.toml"
	case ErrTypeParsing, ErrTypeValidation:
		return "The published manifest is broken. Report it to the add-on maintainers"
	case ErrTypeSignature:
		return "The manifest signature did not verify. Do not install until this is resolved"
	case ErrTypeSchema:
		return "This manifest needs a newer nwupd. Update the client"
	case ErrTypeNetwork:
		return "Check your internet connection and try again"
	default:
		return ""
	}
}

// classifyError examines an error and returns the most specific ErrorType.
// This function uses Go's error unwrapping to detect specific network error types.
func classifyError(err error) ErrorType {
	if err == nil {
		return ErrTypeNetwork
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrTypeNetwork
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrTypeTimeout
		}
		return ErrTypeDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrTypeTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrTypeTimeout
		}
		var innerDNS *net.DNSError
		if errors.As(opErr.Err, &innerDNS) {
			return ErrTypeDNS
		}
		// Connection refused, reset, etc.
		return ErrTypeConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrTypeTimeout
		}
		if strings.Contains(urlErr.Err.Error(), "certificate") ||
			strings.Contains(urlErr.Err.Error(), "tls") ||
			strings.Contains(urlErr.Err.Error(), "x509") {
			return ErrTypeTLS
		}
		// Recurse into the wrapped error
		return classifyError(urlErr.Err)
	}

	return ErrTypeNetwork
}

// wrapNetworkError wraps a transport error with the appropriate type based on
// classification.
func wrapNetworkError(err error, message string) *Error {
	return &Error{
		Type:    classifyError(err),
		Message: message,
		Err:     err,
	}
}
