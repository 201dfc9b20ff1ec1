package app

import (
	"fmt"

	"github.com/Monetiqai/Monetiq-sub003/internal/clients/openai"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/gcp"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime/bus"
)

type Clients struct {
	Bus    bus.Bus
	OpenAI openai.Client
	Bucket gcp.BucketService
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Pack event bus
	var b bus.Bus
	if cfg.RedisAddr != "" {
		rb, err := bus.NewRedisBus(log, bus.RedisConfig{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis pack event bus: %w", err)
		}
		b = rb
	} else {
		log.Info("REDIS_ADDR not set; pack events stay in-process")
		b = bus.NewLocalBus()
	}

	// Shot storage
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		_ = b.Close()
		return Clients{}, err
	}

	// Media provider
	oa, err := openai.NewClient(log)
	if err != nil {
		_ = b.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	return Clients{Bus: b, OpenAI: oa, Bucket: bucket}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
