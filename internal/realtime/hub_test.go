package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pathforge-backend/internal/platform/logger"
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

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	channel := uuid.New().String()

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventPathCreated, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventPathItemStatus, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventPathCreated {
		t.Fatalf("first event: want=%s got=%s", SSEEventPathCreated, got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventPathItemStatus {
		t.Fatalf("second event: want=%s got=%s", SSEEventPathItemStatus, got.Event)
	}

	hub.CloseClient(clientA)
	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventPathItemStatus, Data: map[string]any{"seq": 3}})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Data.(map[string]any)["seq"] != 3 {
		t.Fatalf("reconnect event: unexpected data %v", got.Data)
	}
}

func TestSSEHubIgnoresOtherChannelsAndFullBuffers(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "mine")
	hub.AddChannel(client, "  ")

	hub.Broadcast(SSEMessage{Channel: "theirs", Event: SSEEventPathCreated})
	hub.Broadcast(SSEMessage{Event: SSEEventPathCreated})
	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(SSEMessage{Channel: "mine", Event: SSEEventPathItemStatus})
	}
	if got := len(client.Outbound); got != outboundBuffer {
		t.Fatalf("outbound buffered=%d want=%d", got, outboundBuffer)
	}
	if len(client.Channels) != 1 {
		t.Fatalf("blank channel should not subscribe, got %v", client.Channels)
	}
}

func TestSSEHubServeHTTP(t *testing.T) {
	hub := NewSSEHub(logger.Nop())
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "u1")
	hub.Broadcast(SSEMessage{Channel: "u1", Event: SSEEventPathCreated, Data: map[string]any{"path_id": "p1"}})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/sse/stream", nil)

	done := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	hub.CloseClient(client)
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "event: PathCreated\n") || !strings.Contains(body, `"path_id":"p1"`) {
		t.Fatalf("unexpected stream body: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type=%q", ct)
	}
}
