package mq

import (
	"context"
	"time"
)

// Connector dials a broker and prepares the topology publishing needs.
// This abstraction allows switching between broker implementations
// (RabbitMQ, Kafka) without changing the publisher.
type Connector interface {
	// Connect opens a fresh channel. Every call returns a new channel.
	Connect(ctx context.Context) (Channel, error)

	// Name identifies the connector in logs
	Name() string
}

// Channel is one live publishing session.
type Channel interface {
	// Publish sends the message without waiting for consumer acknowledgment
	Publish(ctx context.Context, message *Message) error

	// Close releases the session and its connection
	Close() error
}

// Message represents an outbound message
type Message struct {
	// ID is the unique identifier for the message
	ID string `json:"id"`

	// Body is the message payload
	Body []byte `json:"body"`

	// ContentType describes Body
	ContentType string `json:"content_type"`

	// Headers contains metadata about the message
	Headers map[string]string `json:"headers"`

	// Timestamp is when the message was created
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a new message with the given body
func NewMessage(body []byte) *Message {
	return &Message{
		Body:        body,
		ContentType: "application/json",
		Headers:     make(map[string]string),
		Timestamp:   time.Now(),
	}
}

// SetHeader sets a header value
func (m *Message) SetHeader(key, value string) {
	if m.Headers == nil {
		m.Headers = make(map[string]string)
	}
	m.Headers[key] = value
}

// GetHeader retrieves a header value
func (m *Message) GetHeader(key string) (string, bool) {
	if m.Headers == nil {
		return "", false
	}
	val, ok := m.Headers[key]
	return val, ok
}
