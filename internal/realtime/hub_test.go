package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Monetiqai/Monetiq-sub003/internal/platform/logger"
)

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubDeliversInOrderAndIsolatesPacks(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	packA, packB := uuid.New(), uuid.New()

	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, PackChannel(packA))

	hub.Broadcast(NewPackMessage(SSEEventShotCompleted, PackEvent{PackID: packA, ShotType: "hook"}))
	hub.Broadcast(NewPackMessage(SSEEventShotCompleted, PackEvent{PackID: packB, ShotType: "hook"}))
	hub.Broadcast(NewPackMessage(SSEEventVariantStatusChanged, PackEvent{PackID: packA, Status: "shots_ready"}))

	first := recvMessage(t, client.Outbound, time.Second)
	second := recvMessage(t, client.Outbound, time.Second)
	if first.Event != SSEEventShotCompleted || second.Event != SSEEventVariantStatusChanged {
		t.Fatalf("unexpected order: %s then %s", first.Event, second.Event)
	}
	if first.Data.At.IsZero() {
		t.Fatalf("expected At to be stamped")
	}
	select {
	case extra := <-client.Outbound:
		t.Fatalf("unexpected message from other pack: %+v", extra)
	default:
	}
}

func TestSSEHubCloseClientUnsubscribes(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	pack := uuid.New()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, PackChannel(pack))
	if hub.Subscribers(PackChannel(pack)) != 1 {
		t.Fatalf("expected one subscriber")
	}

	hub.CloseClient(client)
	hub.CloseClient(client)
	if hub.Subscribers(PackChannel(pack)) != 0 {
		t.Fatalf("expected no subscribers after close")
	}
	if _, ok := <-client.Outbound; ok {
		t.Fatalf("outbound should be closed")
	}
	hub.Broadcast(NewPackMessage(SSEEventPackStatusChanged, PackEvent{PackID: pack}))
}

func TestSSEHubServeHTTPStreamsEvents(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	pack := uuid.New()
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, PackChannel(pack))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, client)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type=%q", ct)
	}

	hub.Broadcast(NewPackMessage(SSEEventWinnerChanged, PackEvent{PackID: pack}))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.TrimSpace(line) != "event: WinnerChanged" {
		t.Fatalf("unexpected line %q", line)
	}
	data, _ := reader.ReadString('\n')
	if !strings.Contains(data, pack.String()) {
		t.Fatalf("data line should carry pack id: %q", data)
	}
}
