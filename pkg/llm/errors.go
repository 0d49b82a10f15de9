// Error types and handling
package llm

import "fmt"

// Error type identifiers for the failure taxonomy
const (
	ErrorTypeNetwork    = "network_error"  // connection failure, non-2xx with no parseable body
	ErrorTypeProvider   = "provider_error" // structured error payload from the API
	ErrorTypeParse      = "parse_error"    // malformed payload or stream line
	ErrorTypeSafety     = "safety_block"   // provider-side content filtering, terminal
	ErrorTypeAbort      = "abort"          // caller cancellation, not a failure
	ErrorTypeValidation = "validation_error"
)

// Error represents a standardized LLM error
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// IsSafetyBlock reports whether the error is a terminal content filter block
func (e *Error) IsSafetyBlock() bool {
	return e != nil && e.Type == ErrorTypeSafety
}

// IsParse reports whether the error is a recoverable parse failure
func (e *Error) IsParse() bool {
	return e != nil && e.Type == ErrorTypeParse
}

// NewNetworkError creates a network-level error
func NewNetworkError(statusCode int, format string, args ...any) *Error {
	return &Error{
		Code:       "network_error",
		Message:    fmt.Sprintf(format, args...),
		Type:       ErrorTypeNetwork,
		StatusCode: statusCode,
	}
}

// NewProviderError creates an error carrying a structured API error payload
func NewProviderError(code string, statusCode int, message string) *Error {
	if code == "" {
		code = "provider_error"
	}
	return &Error{
		Code:       code,
		Message:    message,
		Type:       ErrorTypeProvider,
		StatusCode: statusCode,
	}
}

// NewParseError creates a recoverable parse error
func NewParseError(format string, args ...any) *Error {
	return &Error{
		Code:    "parse_error",
		Message: fmt.Sprintf(format, args...),
		Type:    ErrorTypeParse,
	}
}

// NewSafetyBlockError creates a terminal content-filter error
func NewSafetyBlockError(reason string) *Error {
	return &Error{
		Code:    "safety_block",
		Message: reason,
		Type:    ErrorTypeSafety,
	}
}

// NewValidationError creates a caller-input validation error
func NewValidationError(code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Type:    ErrorTypeValidation,
	}
}
