package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/attrs"
	"github.com/brian-aiad/shepherds-table-cloud-sub002/pkg/requestcontext"
)

// ringBuffer is a bounded, thread-safe event buffer. When full, the oldest
// events are dropped to make room for new ones.
type ringBuffer struct {
	mu       sync.Mutex
	events   []Event
	head     int
	tail     int
	count    int
	capacity int
	dropped  int64
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &ringBuffer{
		events:   make([]Event, capacity),
		capacity: capacity,
	}
}

// enqueue adds an event, dropping the oldest if necessary.
func (b *ringBuffer) enqueue(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.count--
		b.dropped++
	}

	b.events[b.head] = event
	b.head = (b.head + 1) % b.capacity
	b.count++
}

// dequeueBatch removes up to n events from the buffer.
func (b *ringBuffer) dequeueBatch(n int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	result := make([]Event, n)
	for i := 0; i < n; i++ {
		result[i] = b.events[b.tail]
		b.events[b.tail] = Event{}
		b.tail = (b.tail + 1) % b.capacity
	}
	b.count -= n
	return result
}

func (b *ringBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func (b *ringBuffer) droppedCount() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Recorder is the fire-and-forget front of the audit trail. Record enriches
// the event from request context and buffers it; a Worker drains the buffer
// to the configured sinks in the background.
type Recorder struct {
	buffer *ringBuffer
	logger *slog.Logger
}

func NewRecorder(capacity int, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		buffer: newRingBuffer(capacity),
		logger: logger,
	}
}

// Record buffers one audit event. The kv pairs follow slog convention; the
// "source" key is lifted into Event.Source, the rest land in Metadata.
// Record never blocks and never fails.
func (r *Recorder) Record(ctx context.Context, event Event, kv ...any) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if event.Source == "" {
		event.Source = attrs.ExtractString(kv, "source")
	}
	if metadata := foldMetadata(kv); len(metadata) > 0 {
		event.Metadata = metadata
	}

	r.buffer.enqueue(event)
}

// Pending returns the number of buffered events.
func (r *Recorder) Pending() int { return r.buffer.len() }

// Dropped returns the total number of events lost to buffer overflow.
func (r *Recorder) Dropped() int64 { return r.buffer.droppedCount() }

func (r *Recorder) drain(n int) []Event { return r.buffer.dequeueBatch(n) }

// foldMetadata converts slog-style key-value pairs into a string map. The
// "source" key is skipped because Record lifts it into its own field. An
// odd trailing key is ignored.
func foldMetadata(kv []any) map[string]string {
	if len(kv) < 2 {
		return nil
	}
	metadata := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok || key == "" || key == "source" {
			continue
		}
		metadata[key] = fmt.Sprint(kv[i+1])
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}
