package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
)

const (
	defaultRedisChannel = "adpack.events"
	redisDialTimeout    = 5 * time.Second
)

var errBusClosed = errors.New("redis pack event bus is not open")

type RedisConfig struct {
	Addr    string
	Channel string
}

// redisBus relays pack events between API processes over one pub/sub channel.
type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects and pings before returning, so a bad REDIS_ADDR
// fails at startup.
func NewRedisBus(log *logger.Logger, cfg RedisConfig) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = defaultRedisChannel
	}

	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: redisDialTimeout})
	pingCtx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &redisBus{log: log.With("service", "RedisPackEventBus", "channel", channel), rdb: rdb, channel: channel}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.SSEMessage) error {
	if b == nil || b.rdb == nil {
		return errBusClosed
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode pack event: %w", err)
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// StartForwarder subscribes synchronously and then relays messages to onMsg
// until ctx ends or the subscription closes.
func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error {
	if b == nil || b.rdb == nil {
		return errBusClosed
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	go b.relay(ctx, sub, onMsg)
	return nil
}

func (b *redisBus) relay(ctx context.Context, sub *goredis.PubSub, onMsg func(m realtime.SSEMessage)) {
	defer sub.Close()
	in := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			msg, err := decodePackEvent(m)
			if err != nil {
				b.log.Warn("dropping pack event", "error", err)
				continue
			}
			onMsg(msg)
		}
	}
}

func decodePackEvent(m *goredis.Message) (realtime.SSEMessage, error) {
	var msg realtime.SSEMessage
	if m == nil {
		return msg, fmt.Errorf("empty redis message")
	}
	if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
		return msg, fmt.Errorf("decode pack event: %w", err)
	}
	if strings.TrimSpace(msg.Channel) == "" {
		return msg, fmt.Errorf("pack event without channel")
	}
	return msg, nil
}

func (b *redisBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
