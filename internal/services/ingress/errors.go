package ingress

import (
	"errors"
	"fmt"
	"strings"
)

// Admission error codes. Codes are stable identifiers surfaced in logs and
// mapped to human-readable messages at the handler layer.
const (
	CodeURLMissing         = "URL_MISSING"
	CodeURLEmpty           = "URL_EMPTY"
	CodeURLMalformed       = "URL_MALFORMED"
	CodeInvalidProtocol    = "URL_INVALID_PROTOCOL"
	CodeInvalidHostname    = "URL_INVALID_HOSTNAME"
	CodeNoTLD              = "URL_NO_TLD"
	CodeRawIP              = "URL_RAW_IP"
	CodeDNSFailed          = "DNS_FAILED"
	CodeDNSTimeout         = "DNS_TIMEOUT"
	CodeSSRFHostname       = "SSRF_BLOCKED_HOSTNAME"
	CodeSSRFPattern        = "SSRF_BLOCKED_PATTERN"
	CodeSSRFPrivateIP      = "SSRF_PRIVATE_IP"
	CodeInternal           = "INTERNAL"
	CodeEnqueueFailed      = "ENQUEUE_FAILED"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// Error is a coded admission failure
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a coded admission error
func NewError(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the admission code from an error chain, or INTERNAL
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// IsClientError reports whether the code maps to a 400-class response.
// DNS_FAILED carries the resolver's error class as a suffix, so the match
// is by prefix.
func IsClientError(code string) bool {
	switch code {
	case CodeURLMissing, CodeURLEmpty, CodeURLMalformed, CodeInvalidProtocol,
		CodeInvalidHostname, CodeNoTLD, CodeRawIP, CodeDNSTimeout,
		CodeSSRFHostname, CodeSSRFPattern, CodeSSRFPrivateIP:
		return true
	}
	return strings.HasPrefix(code, CodeDNSFailed)
}
