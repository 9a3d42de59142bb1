package broker

import (
	"context"
	"time"
)

// Message is a Kafka record as seen by handlers and producers.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Time      time.Time
}

// HandlerFunc processes one record. A returned error stops the consumer and the
// record stays uncommitted.
type HandlerFunc func(ctx context.Context, msg Message) error

type Producer interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, handler HandlerFunc) error
	Close() error
}

// Publisher delivers one serialized event to the outbound queue and waits for
// the broker to confirm it.
type Publisher interface {
	Publish(ctx context.Context, body []byte, headers map[string]string) error
	Close() error
}
