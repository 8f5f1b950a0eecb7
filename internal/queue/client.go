package queue

import (
	"context"
	"time"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Processor handles one decoded message.
type Processor interface {
	ProcessSummary(ctx context.Context, applicationID string) error
}

// NewMessage builds a summary request stamped with the current time.
func NewMessage(applicationID, requestID string) Message {
	return Message{
		ApplicationID: applicationID,
		RequestID:     requestID,
		EnqueuedAt:    time.Now().UTC().Format(time.RFC3339),
		Version:       MessageVersion,
	}
}
