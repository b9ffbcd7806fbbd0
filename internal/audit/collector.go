package audit

import (
	"context"
	"log/slog"
)

type record struct {
	actorID   string
	eventType EventType
	metadata  map[string]any
}

// Collector decouples the request path from the audit sink. It implements
// Sink itself: LogEvent enqueues onto a buffered channel without blocking,
// and a dedicated goroutine forwards records to the wrapped sink. Events are
// dropped rather than stalling a call when the buffer is full.
type Collector struct {
	eventCh chan record
	sink    Sink
	logger  *slog.Logger
}

func NewCollector(bufferSize int, sink Sink, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan record, bufferSize),
		sink:    sink,
		logger:  logger,
	}
}

func (c *Collector) LogEvent(actorID string, eventType EventType, metadata map[string]any) {
	select {
	case c.eventCh <- record{actorID: actorID, eventType: eventType, metadata: metadata}:
	default:
		c.logger.Warn("audit buffer full, dropping event",
			slog.String("event", string(eventType)))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Audit collector started")
	defer c.logger.Info("Audit collector stopped")

	for {
		select {
		case rec := <-c.eventCh:
			c.sink.LogEvent(rec.actorID, rec.eventType, rec.metadata)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) drain() {
	for {
		select {
		case rec := <-c.eventCh:
			c.sink.LogEvent(rec.actorID, rec.eventType, rec.metadata)
		default:
			return
		}
	}
}
