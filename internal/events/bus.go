package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/goalcheck/goalcheck/internal/logutil"
)

// Event types published by the backend and the enricher.
const (
	TypeItemEnriched   = "item.enriched"
	TypeEnrichFailed   = "item.enrich_failed"
	TypeChecklistSaved = "checklist.saved"
)

// Event is a backend event. StreamID scopes it to one generation stream.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	StreamID  string          `json:"streamId,omitempty"`
	Origin    string          `json:"origin,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// New builds an event with data marshalled as JSON.
func New(typ, streamID string, data interface{}) (Event, error) {
	evt := Event{Type: typ, StreamID: streamID}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s data: %w", typ, err)
		}
		evt.Data = raw
	}
	return evt, nil
}

// Decode unmarshals the event data into v.
func (e Event) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("event %s has no data", e.ID)
	}
	return json.Unmarshal(e.Data, v)
}

// Bus multiplexes events to local subscribers, fanned out through Redis
// pub/sub when a client is configured.
type Bus struct {
	client redis.UniversalClient
	logger *logutil.Logger
	ch     string
	origin string

	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	stop        context.CancelFunc
}

// Options configure the bus.
type Options struct {
	Client  redis.UniversalClient
	Logger  *logutil.Logger
	Channel string
}

// NewBus creates a new event bus.
func NewBus(opts Options) *Bus {
	channel := opts.Channel
	if channel == "" {
		channel = "goalcheck-events"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logutil.Discard()
	}
	bus := &Bus{
		client:      opts.Client,
		logger:      logger,
		ch:          channel,
		origin:      uuid.NewString(),
		subscribers: make(map[chan Event]struct{}),
	}
	if bus.client != nil {
		ctx, cancel := context.WithCancel(context.Background())
		bus.stop = cancel
		ready := make(chan struct{})
		go bus.observeRedis(ctx, ready)
		<-ready
	}
	return bus
}

// Publish broadcasts an event to local subscribers and Redis.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	evt.Origin = b.origin

	if b.client != nil {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if err := b.client.Publish(ctx, b.ch, payload).Err(); err != nil {
			return fmt.Errorf("redis publish: %w", err)
		}
	}

	b.broadcast(evt)
	return nil
}

// Subscribe registers a subscriber and returns a channel plus a cancel func.
// The channel is closed when ctx ends or cancel is called.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			close(ch)
			b.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}

// Close stops the Redis subscriber.
func (b *Bus) Close() {
	if b.stop != nil {
		b.stop()
	}
}

func (b *Bus) broadcast(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- evt:
		default:
			b.logger.Warn("events_dropped", logutil.Fields{"id": evt.ID, "type": evt.Type})
		}
	}
}

func (b *Bus) observeRedis(ctx context.Context, ready chan<- struct{}) {
	pubsub := b.client.Subscribe(ctx, b.ch)
	defer pubsub.Close()
	close(ready)

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("events_redis_subscriber", err, nil)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
			continue
		}

		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			b.logger.Warn("events_invalid_payload", logutil.Fields{"error": err.Error()})
			continue
		}
		// Our own publishes were already broadcast locally.
		if evt.Origin == b.origin {
			continue
		}
		b.broadcast(evt)
	}
}
