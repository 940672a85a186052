package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"taskapp/internal/logging"
	"taskapp/internal/services"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditTaskEvent(t *testing.T) {
	var buf bytes.Buffer
	handle := auditTaskEvent(logging.New(&buf, "info", "json"))

	body, err := json.Marshal(services.TaskEvent{
		Type:       services.EventTaskCreated,
		TaskID:     "t1",
		UserID:     "u1",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, handle(amqp.Delivery{Body: body, RoutingKey: services.EventTaskCreated}))
	assert.Contains(t, buf.String(), `"task_id":"t1"`)
	assert.Contains(t, buf.String(), `"type":"task.created"`)

	assert.Error(t, handle(amqp.Delivery{Body: []byte("not json")}))
}

func TestAccessLogWriter(t *testing.T) {
	var buf bytes.Buffer
	w := accessLogWriter{logger: logging.New(&buf, "info", "text")}

	n, err := w.Write([]byte("200 | GET /health\n"))
	require.NoError(t, err)
	assert.Equal(t, len("200 | GET /health\n"), n)
	assert.Contains(t, buf.String(), "component=http")
}
