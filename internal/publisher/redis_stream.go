// Package publisher announces completed scrapes on a Redis stream so
// downstream consumers can pick up fresh rows.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StreamScrapes receives one entry per scraped subject.
const StreamScrapes = "scrapes.completed.baseball_mlb"

// ScrapeEvent describes one finished subject.
type ScrapeEvent struct {
	JobID    string         `json:"job_id,omitempty"`
	Job      string         `json:"job"`
	Subject  string         `json:"subject"`
	Tables   map[string]int `json:"tables"`
	Inserted int            `json:"inserted"`
	Failed   int            `json:"failed"`
	At       time.Time      `json:"at"`
}

// Publisher is what the batch runner announces through.
type Publisher interface {
	PublishScrape(ctx context.Context, ev ScrapeEvent) error
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	maxLen int64
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		maxLen: 10000,
	}
}

// PublishScrape appends ev to the scrapes stream, trimming it to roughly maxLen entries.
func (rsp *RedisStreamPublisher) PublishScrape(ctx context.Context, ev ScrapeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	err = rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamScrapes,
		MaxLen: rsp.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": ev.At.Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", StreamScrapes, err)
	}
	return nil
}
