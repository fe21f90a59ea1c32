package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/coursecatalog-backend/internal/domain"
	"github.com/yungbote/coursecatalog-backend/internal/pkg/logger"
)

const DefaultChannel = "job_events"

// JobEvents fans job progress out to external observers over redis pub/sub.
type JobEvents interface {
	Publish(ctx context.Context, ev types.JobRunEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev types.JobRunEvent)) error
	Close() error
}

type jobEvents struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewJobEvents(log *logger.Logger, addr, channel string) (JobEvents, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &jobEvents{
		log:     log.With("service", "RedisJobEvents"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *jobEvents) Publish(ctx context.Context, ev types.JobRunEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis job events not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes and calls onEvent for every decoded event until ctx ends.
func (b *jobEvents) StartForwarder(ctx context.Context, onEvent func(ev types.JobRunEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis job events not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev types.JobRunEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad job event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (b *jobEvents) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
