package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory represents the layer or cause of a failure
type ErrorCategory string

const (
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
	ErrorCategoryValidation    ErrorCategory = "VALIDATION"
	ErrorCategoryData          ErrorCategory = "DATA"
	ErrorCategoryExchange      ErrorCategory = "EXCHANGE"
	ErrorCategoryStorage       ErrorCategory = "STORAGE"

	// Transient failures that a caller may retry
	ErrorCategoryNetwork   ErrorCategory = "NETWORK"
	ErrorCategoryTimeout   ErrorCategory = "TIMEOUT"
	ErrorCategoryRateLimit ErrorCategory = "RATE_LIMIT"
)

// RiskError represents a categorized error raised at an I/O boundary of the
// risk engine (configuration store, market data, audit storage). The
// calculations themselves never return errors.
type RiskError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
	Retryable  bool
}

// Error implements the error interface
func (e *RiskError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *RiskError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *RiskError) IsRetryable() bool {
	return e.Retryable
}

// New creates a new categorized error
func New(category ErrorCategory, component, operation, message string) *RiskError {
	return &RiskError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Retryable: isRetryableCategory(category),
	}
}

// Wrap wraps an existing error with category context. Wrap(nil, ...) is nil.
func Wrap(err error, category ErrorCategory, component, operation, message string) *RiskError {
	if err == nil {
		return nil
	}
	if message == "" {
		message = "operation failed"
	}
	return &RiskError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]interface{}),
		Retryable:  isRetryableCategory(category),
	}
}

// WithContext adds context information to the error
func (e *RiskError) WithContext(key string, value interface{}) *RiskError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// HasCategory reports whether any RiskError in err's chain has the category
func HasCategory(err error, category ErrorCategory) bool {
	var re *RiskError
	for err != nil {
		if !errors.As(err, &re) {
			return false
		}
		if re.Category == category {
			return true
		}
		err = re.Underlying
	}
	return false
}

func isRetryableCategory(category ErrorCategory) bool {
	switch category {
	case ErrorCategoryNetwork, ErrorCategoryTimeout, ErrorCategoryRateLimit:
		return true
	default:
		return false
	}
}

// Categorize attempts to categorize a generic error coming from a transport
func Categorize(err error, component, operation string) *RiskError {
	if err == nil {
		return nil
	}

	var re *RiskError
	if errors.As(err, &re) {
		return re
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "context deadline exceeded"):
		return Wrap(err, ErrorCategoryTimeout, component, operation, "")
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return Wrap(err, ErrorCategoryRateLimit, component, operation, "")
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network") ||
		strings.Contains(msg, "dns") || strings.Contains(msg, "dial"):
		return Wrap(err, ErrorCategoryNetwork, component, operation, "")
	}
	return Wrap(err, ErrorCategoryExchange, component, operation, "")
}

func NewValidationError(component, operation, message string) *RiskError {
	return New(ErrorCategoryValidation, component, operation, message)
}

func NewConfigurationError(component, operation string, err error) *RiskError {
	return Wrap(err, ErrorCategoryConfiguration, component, operation, "")
}

func NewStorageError(component, operation string, err error) *RiskError {
	return Wrap(err, ErrorCategoryStorage, component, operation, "")
}

func NewDataError(component, operation, message string) *RiskError {
	return New(ErrorCategoryData, component, operation, message)
}
