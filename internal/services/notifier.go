package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/pathforge-backend/internal/realtime"
)

// PathItemStatusEvent is the payload of a PathItemStatus event.
type PathItemStatusEvent struct {
	PathID   uuid.UUID  `json:"path_id"`
	Idx      int        `json:"idx"`
	Status   string     `json:"status"`
	CourseID *uuid.UUID `json:"course_id,omitempty"`
	Error    string     `json:"error,omitempty"`
}

type PathNotifier interface {
	PathCreated(userID uuid.UUID, pathID uuid.UUID)
	PathItemStatus(userID uuid.UUID, ev PathItemStatusEvent)
}

type pathNotifier struct {
	emit SSEEmitter
}

func NewPathNotifier(emit SSEEmitter) PathNotifier {
	return &pathNotifier{emit: emit}
}

func (n *pathNotifier) PathCreated(userID uuid.UUID, pathID uuid.UUID) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventPathCreated,
		Data:    map[string]any{"path_id": pathID},
	})
}

func (n *pathNotifier) PathItemStatus(userID uuid.UUID, ev PathItemStatusEvent) {
	if n == nil || n.emit == nil || userID == uuid.Nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: userID.String(),
		Event:   realtime.SSEEventPathItemStatus,
		Data:    ev,
	})
}
