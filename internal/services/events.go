package services

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Routing keys of the task lifecycle events.
const (
	EventTaskCreated = "task.created"
	EventTaskUpdated = "task.updated"
	EventTaskDeleted = "task.deleted"
)

// EventPublisher sends an already encoded event. *rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// TaskEvent is the JSON envelope published after a successful mutation.
type TaskEvent struct {
	Type       string    `json:"type"`
	TaskID     string    `json:"taskId"`
	UserID     string    `json:"userId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// publishTaskEvent is best effort: a broker failure is logged and never
// fails the request that caused it.
func publishTaskEvent(p EventPublisher, logger *slog.Logger, eventType, taskID, userID string) {
	if p == nil {
		return
	}
	body, err := json.Marshal(TaskEvent{
		Type:       eventType,
		TaskID:     taskID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Error("failed to marshal task event", "type", eventType, "task_id", taskID, "error", err)
		return
	}
	if err := p.Publish(eventType, body); err != nil {
		logger.Warn("failed to publish task event", "type", eventType, "task_id", taskID, "error", err)
		return
	}
	logger.Debug("published task event", "type", eventType, "task_id", taskID)
}
