package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/goalcheck/goalcheck/internal/checklist"
)

// ErrNotConfigured is returned when the queue has no Redis client.
var ErrNotConfigured = errors.New("queue not configured")

// EnrichJob asks the enricher to produce tips, links and a price for one item
// of a generation stream.
type EnrichJob struct {
	JobID    string         `json:"jobId"`
	StreamID string         `json:"streamId"`
	Goal     string         `json:"goal"`
	Locale   string         `json:"locale"`
	Item     checklist.Item `json:"item"`
}

// Producer publishes jobs onto a Redis Stream.
type Producer struct {
	client redis.UniversalClient
	stream string
}

// NewProducer constructs a producer for the provided stream.
func NewProducer(client redis.UniversalClient, stream string) *Producer {
	if stream == "" {
		stream = "goalcheck:enrich"
	}
	return &Producer{client: client, stream: stream}
}

// Enqueue pushes an enrichment job to the stream and returns its job id.
func (p *Producer) Enqueue(ctx context.Context, job EnrichJob) (string, error) {
	if p == nil || p.client == nil {
		return "", ErrNotConfigured
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		ID:     "*",
		Values: map[string]interface{}{
			"data": data,
		},
	}).Err()
	if err != nil {
		return "", fmt.Errorf("enqueue job %s: %w", job.JobID, err)
	}
	return job.JobID, nil
}

// Consumer pulls jobs from a Redis Stream consumer group.
type Consumer struct {
	client   redis.UniversalClient
	stream   string
	group    string
	name     string
	blockDur time.Duration
}

// NewConsumer creates a consumer bound to a stream and group.
func NewConsumer(client redis.UniversalClient, stream, group, name string) *Consumer {
	if stream == "" {
		stream = "goalcheck:enrich"
	}
	if group == "" {
		group = "enrichers"
	}
	if name == "" {
		name = uuid.NewString()
	}
	return &Consumer{
		client:   client,
		stream:   stream,
		group:    group,
		name:     name,
		blockDur: 5 * time.Second,
	}
}

// EnsureGroup ensures the consumer group exists.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrNotConfigured
	}
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// Next fetches the next job from the stream, blocking up to the block
// duration. A nil job with a nil error means nothing arrived.
func (c *Consumer) Next(ctx context.Context) (*EnrichJob, string, error) {
	if c == nil || c.client == nil {
		return nil, "", ErrNotConfigured
	}
	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{c.stream, ">"},
		Count:    1,
		Block:    c.blockDur,
	}
	res, err := c.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", err
	}
	for _, stream := range res {
		for _, msg := range stream.Messages {
			job, err := decodeMessage(msg.Values)
			if err != nil {
				return nil, msg.ID, err
			}
			if job != nil {
				return job, msg.ID, nil
			}
		}
	}
	return nil, "", nil
}

// Ack confirms processing of a message.
func (c *Consumer) Ack(ctx context.Context, id string) error {
	if c == nil || c.client == nil || id == "" {
		return nil
	}
	return c.client.XAck(ctx, c.stream, c.group, id).Err()
}

func decodeMessage(values map[string]interface{}) (*EnrichJob, error) {
	raw, ok := values["data"]
	if !ok {
		return nil, nil
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return nil, nil
	}
	var job EnrichJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
