package realtime

type SSEEvent string

const (
	SSEEventPathCreated    SSEEvent = "PathCreated"
	SSEEventPathItemStatus SSEEvent = "PathItemStatus"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
