package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineError(t *testing.T) {
	underlying := fmt.Errorf("connection refused")
	err := NewFetch("scraper", "failed to fetch page", underlying)

	assert.Equal(t, ErrorTypeFetch, err.Type)
	assert.Contains(t, err.Error(), "scraper")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, underlying, err.Unwrap())
}

func TestIsSoft(t *testing.T) {
	assert.True(t, NewFetch("scraper", "timeout", nil).IsSoft())
	assert.True(t, NewRobotsDisallowed("scraper", "http://example.com").IsSoft())
	assert.False(t, NewTransport("dispatcher", "smtp failure", nil).IsSoft())
	assert.False(t, NewNotFound("store", "campaign 1").IsSoft())
	assert.False(t, NewValidation("api", "name required").IsSoft())
	assert.False(t, NewPersistence("store", "write failed", nil).IsSoft())
}

func TestTypeOf(t *testing.T) {
	err := NewNotFound("store", "campaign 42 not found")
	assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
	assert.True(t, IsType(err, ErrorTypeNotFound))
	assert.False(t, IsType(err, ErrorTypeValidation))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, ErrorTypeNotFound, TypeOf(wrapped))

	plain := fmt.Errorf("plain error")
	assert.Equal(t, ErrorType(""), TypeOf(plain))
}
