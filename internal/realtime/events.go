package realtime

import (
	"time"

	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventVariantStatusChanged SSEEvent = "VariantStatusChanged"
	SSEEventShotCompleted        SSEEvent = "ShotCompleted"
	SSEEventWinnerChanged        SSEEvent = "WinnerChanged"
	SSEEventPackStatusChanged    SSEEvent = "PackStatusChanged"
	SSEEventVariantPromoted      SSEEvent = "VariantPromoted"
)

// PackEvent is the payload of every message on a pack channel.
type PackEvent struct {
	PackID    uuid.UUID      `json:"packId"`
	VariantID *uuid.UUID     `json:"variantId,omitempty"`
	Status    string         `json:"status,omitempty"`
	ShotType  string         `json:"shotType,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	At        time.Time      `json:"at"`
}

type SSEMessage struct {
	Channel string    `json:"channel"`
	Event   SSEEvent  `json:"event"`
	Data    PackEvent `json:"data"`
}

func PackChannel(packID uuid.UUID) string {
	return "pack:" + packID.String()
}

// NewPackMessage addresses ev to its pack channel and stamps At when unset.
func NewPackMessage(event SSEEvent, ev PackEvent) SSEMessage {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return SSEMessage{Channel: PackChannel(ev.PackID), Event: event, Data: ev}
}
