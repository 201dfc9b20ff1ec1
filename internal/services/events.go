package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/domain/adpack"
	"github.com/Monetiqai/Monetiq-sub003/internal/observability"
	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime"
	"github.com/Monetiqai/Monetiq-sub003/internal/realtime/bus"
)

// PackEventPublisher is fire-and-forget. A failed publish never fails the write that produced it.
type PackEventPublisher interface {
	Publish(ctx context.Context, event realtime.SSEEvent, ev realtime.PackEvent)
}

type busPublisher struct {
	log     *logger.Logger
	bus     bus.Bus
	metrics *observability.Metrics
}

func NewBusPublisher(log *logger.Logger, b bus.Bus, metrics *observability.Metrics) PackEventPublisher {
	return &busPublisher{log: log.With("service", "PackEventPublisher"), bus: b, metrics: metrics}
}

func (p *busPublisher) Publish(ctx context.Context, event realtime.SSEEvent, ev realtime.PackEvent) {
	if p == nil || p.bus == nil || ev.PackID == uuid.Nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.bus.Publish(pubCtx, realtime.NewPackMessage(event, ev)); err != nil {
		p.log.Warn("pack event publish failed", "event", event, "pack_id", ev.PackID, "error", err)
		p.metrics.IncEventPublished(string(event), "error")
		return
	}
	p.metrics.IncEventPublished(string(event), "ok")
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, realtime.SSEEvent, realtime.PackEvent) {}

func NopPublisher() PackEventPublisher { return nopPublisher{} }

func variantEvent(v *adpack.Variant) realtime.PackEvent {
	id := v.ID
	return realtime.PackEvent{
		PackID:    v.PackID,
		VariantID: &id,
		Status:    string(v.Status),
		Data: map[string]any{
			"variantType": v.VariantType,
			"isFinal":     v.IsFinal,
			"isWinner":    v.IsWinner,
		},
	}
}
