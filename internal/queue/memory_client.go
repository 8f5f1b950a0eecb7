package queue

import (
	"context"
	"errors"
	"sync"

	"quickapply-backend/internal/shared/metrics"
	"quickapply-backend/internal/shared/telemetry"
)

// ErrQueueFull is returned when the in-process buffer has no room.
var ErrQueueFull = errors.New("queue full")

// MemoryClient is an in-process queue drained by Run.
type MemoryClient struct {
	ch chan Message
}

// NewMemoryClient creates a queue that buffers up to size messages.
func NewMemoryClient(size int) *MemoryClient {
	if size <= 0 {
		size = 64
	}
	return &MemoryClient{ch: make(chan Message, size)}
}

// Send enqueues msg without blocking.
func (m *MemoryClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case m.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run processes messages with up to concurrency workers until ctx is done.
// In-flight messages finish before Run returns.
func (m *MemoryClient) Run(ctx context.Context, p Processor, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-m.ch:
					process(context.WithoutCancel(ctx), p, msg)
				}
			}
		}()
	}
	wg.Wait()
}

func process(ctx context.Context, p Processor, msg Message) {
	fields := map[string]any{"application_id": msg.ApplicationID}
	if msg.RequestID != "" {
		fields["request_id"] = msg.RequestID
	}
	if err := p.ProcessSummary(ctx, msg.ApplicationID); err != nil {
		fields["error"] = err
		telemetry.Error("summary.failed", fields)
		metrics.IncSummaryJob("failed")
		return
	}
	telemetry.Info("summary.completed", fields)
	metrics.IncSummaryJob("completed")
}

var _ Client = (*MemoryClient)(nil)
