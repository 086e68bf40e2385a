package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AccelByte/extend-game-escrow/pkg/escrow"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	defaultEventStream       = "game_escrow:events"
	defaultEventStreamMaxLen = 100000
)

// RedisStreamSink publishes engine events to a Redis stream. Each entry carries
// the event name and its JSON payload.
type RedisStreamSink struct {
	client redis.UniversalClient
	cfg    RedisStreamSinkConfig
}

type RedisStreamSinkConfig struct {
	Stream string
	// MaxLen approximately caps the stream length.
	MaxLen int64
	// Timeout bounds each XADD.
	Timeout time.Duration
}

func NewRedisStreamSink(client redis.UniversalClient, cfg RedisStreamSinkConfig) *RedisStreamSink {
	if cfg.Stream == "" {
		cfg.Stream = defaultEventStream
	}
	if cfg.MaxLen <= 0 {
		cfg.MaxLen = defaultEventStreamMaxLen
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	return &RedisStreamSink{client: client, cfg: cfg}
}

// Emit implements escrow.EventSink. Publishing failures are logged, never returned.
func (s *RedisStreamSink) Emit(ev escrow.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logrus.Errorf("failed to marshal event %s: %v", ev.EventName(), err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.cfg.Stream,
		MaxLen: s.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"event":   ev.EventName(),
			"payload": payload,
		},
	}).Err()
	if err != nil {
		logrus.Errorf("failed to publish event %s to %s: %v", ev.EventName(), s.cfg.Stream, err)
	}
}
