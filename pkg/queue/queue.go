package queue

import (
	"context"
	"time"
)

// QueueService is the producer-side surface consumers of this package depend
// on, notably the log collector.
type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// Message represents a message in the queue.
type Message struct {
	ID        string
	Type      string
	Payload   interface{}
	Attempts  int
	Timestamp time.Time
}
