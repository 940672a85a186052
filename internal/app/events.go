package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"taskapp/internal/services"

	"github.com/streadway/amqp"
)

// auditTaskEvent logs every task event delivered to the task events queue.
func auditTaskEvent(logger *slog.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var ev services.TaskEvent
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			return fmt.Errorf("decode task event: %w", err)
		}
		logger.Info("task event",
			"type", ev.Type,
			"task_id", ev.TaskID,
			"user_id", ev.UserID,
			"occurred_at", ev.OccurredAt,
			"routing_key", msg.RoutingKey,
		)
		return nil
	}
}

// accessLogWriter forwards Fiber access log lines to slog.
type accessLogWriter struct {
	logger *slog.Logger
}

func (w accessLogWriter) Write(p []byte) (int, error) {
	w.logger.Info(strings.TrimRight(string(p), "\n"), "component", "http")
	return len(p), nil
}
