package message_broaker

import "context"

// Message is a single outbound broker message.
type Message struct {
	ID      string
	Body    []byte
	Headers map[string]any
}

type MessageBroker interface {
	Publish(ctx context.Context, routingKey string, message Message) error
	Close() error
}
