package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a missing campaign/supplier/config record
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation represents rejected input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeRobotsDisallowed represents a scrape blocked by robots.txt
	ErrorTypeRobotsDisallowed ErrorType = "robots_disallowed"
	// ErrorTypeFetch represents network/timeout/non-200 failures
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeTransport represents mail transport failures
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypePersistence represents storage layer failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// EngineError represents an engine-specific error
type EngineError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsSoft reports whether the error is absorbed at the component boundary.
// Soft errors cause a supplier to be omitted from enrichment but never
// abort a dispatch.
func (e *EngineError) IsSoft() bool {
	switch e.Type {
	case ErrorTypeRobotsDisallowed, ErrorTypeFetch:
		return true
	default:
		return false
	}
}

// New creates a new EngineError
func New(errType ErrorType, component, message string, err error) *EngineError {
	return &EngineError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNotFound creates a new not-found error
func NewNotFound(component, message string) *EngineError {
	return New(ErrorTypeNotFound, component, message, nil)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *EngineError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewRobotsDisallowed creates a new robots-disallowed error
func NewRobotsDisallowed(component, url string) *EngineError {
	message := fmt.Sprintf("scraping disallowed by robots.txt: %s", url)
	return New(ErrorTypeRobotsDisallowed, component, message, nil)
}

// NewFetch creates a new fetch error
func NewFetch(component, message string, err error) *EngineError {
	return New(ErrorTypeFetch, component, message, err)
}

// NewTransport creates a new mail transport error
func NewTransport(component, message string, err error) *EngineError {
	return New(ErrorTypeTransport, component, message, err)
}

// NewPersistence creates a new persistence error
func NewPersistence(component, message string, err error) *EngineError {
	return New(ErrorTypePersistence, component, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *EngineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// TypeOf returns the ErrorType of err when it is an EngineError,
// or an empty type otherwise.
func TypeOf(err error) ErrorType {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Type
	}
	return ""
}

// IsType reports whether err is an EngineError of the given type
func IsType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}
