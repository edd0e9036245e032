package engine

import (
	"errors"
	"net"
	"strings"
)

// Error codes for ACP.
const (
	// Local validation failures. These never reach the engine.
	ErrNoScript     = "NO_SCRIPT"
	ErrNoEvidence   = "NO_EVIDENCE"
	ErrNoSession    = "NO_SESSION"
	ErrBadPhase     = "BAD_PHASE"
	ErrBusy         = "BUSY"
	ErrNotReady     = "NOT_READY"
	ErrFileTooLarge = "FILE_TOO_LARGE"
	ErrBadFileType  = "BAD_FILE_TYPE"
	ErrFileNotFound = "FILE_NOT_FOUND"
	ErrInvalidUsage = "INVALID_USAGE"

	// Engine call failures.
	ErrEngineUnreachable = "ENGINE_UNREACHABLE"
	ErrEngineTimeout     = "ENGINE_TIMEOUT"
	ErrEngineHTTP        = "ENGINE_HTTP_ERROR"

	// The engine answered but the answer is unusable.
	ErrLogicalFailure    = "LOGICAL_FAILURE"
	ErrMalformedResponse = "MALFORMED_RESPONSE"
)

// EngineError carries an ACP error code, message, and suggestion.
type EngineError struct {
	Code       string
	Message    string
	Suggestion string
}

func (e *EngineError) Error() string {
	return e.Message
}

// NewError creates an EngineError with the given code, message, and suggestion.
func NewError(code, message, suggestion string) *EngineError {
	return &EngineError{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// validationCodes are the codes raised before any network activity.
var validationCodes = map[string]bool{
	ErrNoScript:     true,
	ErrNoEvidence:   true,
	ErrNoSession:    true,
	ErrBadPhase:     true,
	ErrBusy:         true,
	ErrNotReady:     true,
	ErrFileTooLarge: true,
	ErrBadFileType:  true,
	ErrFileNotFound: true,
	ErrInvalidUsage: true,
}

// IsValidation reports whether err is a local precondition failure,
// i.e. one that was raised without contacting the engine.
func IsValidation(err error) bool {
	var ee *EngineError
	if !errors.As(err, &ee) {
		return false
	}
	return validationCodes[ee.Code]
}

// ErrorMessage extracts the single operator-facing string for err.
// Status codes and error kinds never cross this boundary.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Message
	}
	return err.Error()
}

// MapNetworkError determines if an error is a network error and returns the appropriate code.
func MapNetworkError(err error) (code string, isNetwork bool) {
	if err == nil {
		return "", false
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return ErrEngineUnreachable, true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrEngineUnreachable, true
	}

	msg := err.Error()
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "i/o timeout") {
		return ErrEngineUnreachable, true
	}

	if strings.Contains(msg, "context deadline exceeded") {
		return ErrEngineTimeout, true
	}

	return "", false
}
