package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskapp/internal/config"
	"taskapp/internal/handlers"
	"taskapp/internal/logging"
	"taskapp/internal/models"
	"taskapp/internal/repositories"
	"taskapp/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// setupApp sets up a Fiber app for testing with a private in-memory SQLite database.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := logging.Discard()

	store, err := repositories.Open(context.Background(), config.StorageConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	authService := services.NewAuthService(store.Users, bcrypt.MinCost, logger)
	taskService := services.NewTaskService(store.Tasks, nil, logger)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger)})
	api := app.Group("/api")
	handlers.NewAuthHandler(authService, logger).RegisterRoutes(api)
	handlers.NewTaskHandler(taskService, logger).RegisterRoutes(api)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		jsonBody, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app := setupApp(t)

	// Test Registration
	creds := map[string]string{"username": "testuser", "password": "password123"}
	resp := doJSON(t, app, http.MethodPost, "/api/auth/register", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	registered := decode[map[string]map[string]any](t, resp)
	assert.NotEmpty(t, registered["user"]["id"])
	assert.Equal(t, "testuser", registered["user"]["username"])
	assert.NotContains(t, registered["user"], "password")
	assert.NotContains(t, registered["user"], "passwordHash")

	// Test Duplicate Registration
	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", creds)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "User already exists", decode[handlers.ErrorResponse](t, resp).Error)

	// Test Login
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	loggedIn := decode[handlers.UserResponse](t, resp)
	assert.Equal(t, registered["user"]["id"], loggedIn.User.ID)
	assert.Equal(t, "testuser", loggedIn.User.Username)

	// Test Wrong Password
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"username": "testuser", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Test Unknown User
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"username": "ghost", "password": "password123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthValidation(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"username": "testuser"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[handlers.ErrorResponse](t, resp)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Contains(t, body.Details, "password")

	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]any{
		"username":          "pic",
		"password":          "pw",
		"profilePictureUrl": "not a url",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[handlers.ErrorResponse](t, resp).Details, "profilePictureUrl")

	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", `{"username": 42}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/auth/register", map[string]any{
		"username":          "full",
		"password":          "pw",
		"phone":             "+1 555 0100",
		"profileCompleted":  true,
		"profilePictureUrl": "https://example.com/me.png",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTaskLifecycle(t *testing.T) {
	app := setupApp(t)

	// Create with defaults
	resp := doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "Buy milk", "userId": "user-a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw := decode[map[string]any](t, resp)
	assert.Equal(t, "Buy milk", raw["title"])
	assert.Equal(t, false, raw["completed"])
	assert.NotContains(t, raw, "description")
	assert.NotContains(t, raw, "dueDate")
	taskID, _ := raw["id"].(string)
	require.NotEmpty(t, taskID)

	// Update completed and re-fetch
	resp = doJSON(t, app, http.MethodPatch, "/api/tasks/"+taskID, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[models.Task](t, resp).Completed)

	resp = doJSON(t, app, http.MethodGet, "/api/tasks?userId=user-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tasks := decode[[]models.Task](t, resp)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, "Buy milk", tasks[0].Title)

	// Delete, then delete again
	resp = doJSON(t, app, http.MethodDelete, "/api/tasks/"+taskID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[handlers.SuccessResponse](t, resp).Success)

	for i := 0; i < 2; i++ {
		resp = doJSON(t, app, http.MethodDelete, "/api/tasks/"+taskID, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Task not found", decode[handlers.ErrorResponse](t, resp).Error)
	}

	resp = doJSON(t, app, http.MethodGet, "/api/tasks?userId=user-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}

func TestTaskListIsScopedToUser(t *testing.T) {
	app := setupApp(t)

	for _, title := range []string{"first", "second", "third"} {
		resp := doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": title, "userId": "A"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp := doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "theirs", "userId": "B"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/tasks?userId=A", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tasks := decode[[]models.Task](t, resp)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.Equal(t, "A", task.UserID)
	}
	assert.Equal(t, "first", tasks[0].Title)

	resp = doJSON(t, app, http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTaskValidation(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"userId": "A"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[handlers.ErrorResponse](t, resp).Details, "title")

	resp = doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "   ", "userId": "A"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "x", "userId": "A", "dueDate": "next tuesday"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "x", "userId": "A"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task := decode[models.Task](t, resp)

	resp = doJSON(t, app, http.MethodPatch, "/api/tasks/"+task.ID, `{"completed": "yes"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/tasks/"+task.ID, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPatch, "/api/tasks/does-not-exist", map[string]bool{"completed": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTaskDueDateFormats(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "x", "userId": "A", "dueDate": "2030-03-04"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task := decode[models.Task](t, resp)
	require.NotNil(t, task.DueDate)
	assert.True(t, time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC).Equal(*task.DueDate))

	resp = doJSON(t, app, http.MethodPatch, "/api/tasks/"+task.ID, map[string]string{"dueDate": "2030-03-05T10:30:00+02:00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Task](t, resp)
	require.NotNil(t, updated.DueDate)
	assert.True(t, time.Date(2030, 3, 5, 8, 30, 0, 0, time.UTC).Equal(*updated.DueDate))
}

func TestTaskUpdateIgnoresUserID(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/tasks", map[string]string{"title": "mine", "userId": "A"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	task := decode[models.Task](t, resp)

	resp = doJSON(t, app, http.MethodPatch, "/api/tasks/"+task.ID, map[string]string{"userId": "B", "title": "still mine"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.Task](t, resp)
	assert.Equal(t, "A", updated.UserID)
	assert.Equal(t, "still mine", updated.Title)
}

func TestUnknownRouteUsesJSONErrors(t *testing.T) {
	app := setupApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decode[handlers.ErrorResponse](t, resp).Error)
}
