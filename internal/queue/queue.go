// Package queue implements the notification retry queue over a Redis stream.
//
// Failed deliveries are appended to the stream and picked up by the worker
// through a consumer group, so retries survive process restarts.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"
)

const payloadField = "payload"

// Job is one pending redelivery.
type Job struct {
	// StreamID is set by Dequeue and required by Ack. It is not part of
	// the encoded payload.
	StreamID string `json:"-"`

	NotificationID uuid.UUID `json:"notification_id"`
	EnqueuedAt     time.Time `json:"enqueued_at"`
}

// Config holds connection parameters for the retry queue.
type Config struct {
	Addrs    []string
	Password string
	Stream   string
	Group    string
}

// Queue is a Redis-stream backed retry queue.
type Queue struct {
	client rueidis.Client
	stream string
	group  string
}

// New creates a retry queue via rueidis.
func New(cfg Config) (*Queue, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Stream == "" || cfg.Group == "" {
		return nil, fmt.Errorf("stream and group are required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Password:     cfg.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Queue{client: client, stream: cfg.Stream, group: cfg.Group}, nil
}

// Ping checks connectivity.
func (q *Queue) Ping(ctx context.Context) error {
	cmd := q.client.B().Ping().Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (q *Queue) Close() {
	q.client.Close()
}

// WaitForReady polls Ping until the queue responds or timeout expires.
func (q *Queue) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for queue: %w", ctx.Err())
		case <-ticker.C:
			if err := q.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// EnsureGroup creates the consumer group, creating the stream if needed.
// An already existing group is not an error.
func (q *Queue) EnsureGroup(ctx context.Context) error {
	cmd := q.client.B().XgroupCreate().
		Key(q.stream).Group(q.group).Id("0").Mkstream().Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		if re, ok := rueidis.IsRedisErr(err); ok &&
			strings.Contains(re.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("create group %s: %w", q.group, err)
	}
	return nil
}

// Enqueue appends a redelivery job to the stream.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	data, err := encodeJob(job)
	if err != nil {
		return err
	}

	cmd := q.client.B().Xadd().Key(q.stream).Id("*").
		FieldValue().FieldValue(payloadField, data).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("enqueue notification %s: %w", job.NotificationID, err)
	}
	return nil
}

// Dequeue reads up to count pending jobs for the given consumer, blocking up
// to block. A zero-length result means the wait timed out.
func (q *Queue) Dequeue(
	ctx context.Context, consumer string, count int64, block time.Duration,
) ([]Job, error) {
	cmd := q.client.B().Xreadgroup().Group(q.group, consumer).
		Count(count).Block(block.Milliseconds()).
		Streams().Key(q.stream).Id(">").Build()

	res := q.client.Do(ctx, cmd)
	if err := res.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read stream %s: %w", q.stream, err)
	}

	streams, err := res.AsXRead()
	if err != nil {
		return nil, fmt.Errorf("parse stream reply: %w", err)
	}

	var jobs []Job
	for _, entry := range streams[q.stream] {
		job, err := decodeJob(entry.FieldValues[payloadField])
		if err != nil {
			// A malformed entry would otherwise be redelivered forever.
			_ = q.Ack(ctx, entry.ID)
			continue
		}
		job.StreamID = entry.ID
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Ack removes a delivered job from the group's pending list.
func (q *Queue) Ack(ctx context.Context, streamID string) error {
	cmd := q.client.B().Xack().Key(q.stream).Group(q.group).Id(streamID).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ack %s: %w", streamID, err)
	}
	return nil
}

func encodeJob(job Job) (string, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	return string(data), nil
}

func decodeJob(data string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
