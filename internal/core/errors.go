package core

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeConfiguration indicates the gateway is disabled, a feature
	// flag is off, or the provider/credential is missing
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeRateLimit indicates a gateway rate window was exhausted
	ErrorTypeRateLimit ErrorType = "rate_limit_error"
	// ErrorTypeProvider indicates a non-success status or malformed
	// envelope from the upstream provider
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeParse indicates the model reply could not be parsed into the
	// expected structure. Internal: the gateway substitutes fallback data
	// instead of surfacing it for anomalies/recommendations.
	ErrorTypeParse ErrorType = "parse_error"
	// ErrorTypeConnectionTest wraps any failure during a connection test
	ErrorTypeConnectionTest ErrorType = "connection_test_failed"
	// ErrorTypeAuthentication indicates the upstream rejected the credential
	ErrorTypeAuthentication ErrorType = "authentication_error"
)

// GatewayError is the base error type for all gateway errors
type GatewayError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *GatewayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeConfiguration:
		return http.StatusPreconditionFailed
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeProvider, ErrorTypeConnectionTest:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *GatewayError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewConfigurationError creates an error for a disabled feature or missing
// provider/credential configuration
func NewConfigurationError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeConfiguration,
		Message:    message,
		StatusCode: http.StatusPreconditionFailed,
	}
}

// NewRateLimitError creates a new rate limit error (429)
func NewRateLimitError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// NewProviderError creates a new provider error
func NewProviderError(provider string, statusCode int, message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeProvider,
		Message:    message,
		StatusCode: statusCode,
		Provider:   provider,
		Err:        err,
	}
}

// NewParseError creates an internal parse error
func NewParseError(message string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeParse,
		Message: message,
		Err:     err,
	}
}

// NewAuthenticationError creates a new authentication error (401)
func NewAuthenticationError(provider string, message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Provider:   provider,
	}
}

// NewConnectionTestError wraps any failure during a connection test,
// preserving the original message for display
func NewConnectionTestError(provider string, err error) *GatewayError {
	msg := "connection test failed"
	if err != nil {
		msg = err.Error()
	}
	return &GatewayError{
		Type:       ErrorTypeConnectionTest,
		Message:    msg,
		StatusCode: http.StatusBadGateway,
		Provider:   provider,
		Err:        err,
	}
}

// ParseProviderError parses an error response from a provider and returns an
// appropriate GatewayError. Most providers wrap failures in an {"error":
// {"message": ...}} envelope; the raw body is used when they don't.
func ParseProviderError(provider string, statusCode int, body []byte, originalErr error) *GatewayError {
	var errorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
		// Cohere and Ollama return a top-level message field instead
		Message string `json:"message"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &errorResponse); err == nil {
		if errorResponse.Error.Message != "" {
			message = errorResponse.Error.Message
		} else if errorResponse.Message != "" {
			message = errorResponse.Message
		}
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return NewAuthenticationError(provider, message)
	case statusCode == http.StatusTooManyRequests:
		err := NewProviderError(provider, statusCode, message, originalErr)
		return err
	default:
		return NewProviderError(provider, statusCode, message, originalErr)
	}
}
