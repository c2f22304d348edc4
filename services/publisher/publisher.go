package publisher

// Publisher represents a service for publishing dispatch events to
// downstream consumers
type Publisher interface {
	// Publish publishes a message under the given key
	Publish(key string, message []byte) error

	// TrimStream trims the stream to the configured maximum length
	TrimStream() error

	// Close closes the publisher connection
	Close() error
}

// Noop is a Publisher that drops everything. Used when no Redis
// address is configured.
type Noop struct{}

// Publish drops the message
func (Noop) Publish(string, []byte) error { return nil }

// TrimStream does nothing
func (Noop) TrimStream() error { return nil }

// Close does nothing
func (Noop) Close() error { return nil }
