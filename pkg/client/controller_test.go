package client_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"taskapp/internal/app"
	"taskapp/internal/config"
	"taskapp/internal/logging"
	"taskapp/internal/repositories"
	"taskapp/pkg/client"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fiberTransport serves requests in-process through fiber.App.Test.
type fiberTransport struct {
	app       *fiber.App
	listCalls atomic.Int32
	failLists atomic.Bool
}

func (t *fiberTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet && req.URL.Path == "/api/tasks" {
		t.listCalls.Add(1)
		if t.failLists.Load() {
			return nil, errors.New("connection refused")
		}
	}
	return t.app.Test(req, -1)
}

type recorder struct {
	mu    sync.Mutex
	notes []client.Notification
}

func (r *recorder) notify(n client.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) errors() []client.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []client.Notification
	for _, n := range r.notes {
		if n.Level == client.NotifyError {
			out = append(out, n)
		}
	}
	return out
}

func newServer(t *testing.T) *fiberTransport {
	t.Helper()
	cfg := config.Config{
		AppPort:         ":0",
		BcryptCost:      4,
		ShutdownTimeout: time.Second,
		Storage:         config.StorageConfig{Driver: config.DriverMemory},
	}
	a := app.NewWithStore(cfg, repositories.NewMemoryStore(), logging.Discard())
	return &fiberTransport{app: a.Fiber}
}

func newController(t *testing.T, transport *fiberTransport, dir string) (*client.Controller, *recorder, *client.IdentityStore) {
	t.Helper()
	store, err := client.OpenIdentityStore(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &recorder{}
	api := client.New("http://taskapp.test", &http.Client{Transport: transport})
	ctrl, err := client.NewController(api, store, rec.notify, logging.Discard())
	require.NoError(t, err)
	return ctrl, rec, store
}

func TestController_RegisterLoadsTasks(t *testing.T) {
	ctx := context.Background()
	ctrl, rec, store := newController(t, newServer(t), "")
	assert.Equal(t, client.StateLoggedOut, ctrl.State())

	id, err := ctrl.Register(ctx, client.Registration{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, id.ID)
	assert.Equal(t, client.StateReady, ctrl.State())
	assert.Empty(t, rec.errors())

	stored, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, id, *stored)

	tasks, err := ctrl.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestController_LoginFailures(t *testing.T) {
	ctx := context.Background()
	server := newServer(t)
	ctrl, rec, _ := newController(t, server, "")

	_, err := ctrl.Register(ctx, client.Registration{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, ctrl.Logout())

	_, err = ctrl.Login(ctx, "alice", "wrong")
	assert.True(t, client.IsUnauthorized(err))
	assert.Equal(t, client.StateLoggedOut, ctrl.State())

	_, err = ctrl.Register(ctx, client.Registration{Username: "alice", Password: "other"})
	assert.True(t, client.IsConflict(err))

	errs := rec.errors()
	require.Len(t, errs, 2)
	assert.Equal(t, "Login failed", errs[0].Title)
	assert.Equal(t, "Registration failed", errs[1].Title)

	id, err := ctrl.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, client.StateReady, ctrl.State())
}

func TestController_IdentitySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	server := newServer(t)
	dir := t.TempDir()

	first, _, firstStore := newController(t, server, dir)
	id, err := first.Register(ctx, client.Registration{Username: "bob", Password: "secret"})
	require.NoError(t, err)
	_, err = first.CreateTask(ctx, client.NewTask{Title: "Buy milk"})
	require.NoError(t, err)
	require.NoError(t, firstStore.Close())

	second, _, _ := newController(t, server, dir)
	restored, ok := second.Identity()
	require.True(t, ok)
	assert.Equal(t, id, restored)
	assert.Equal(t, client.StateLoading, second.State())

	tasks, err := second.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, client.StateReady, second.State())
}

func TestController_MutationsReconcileAndInvalidate(t *testing.T) {
	ctx := context.Background()
	server := newServer(t)
	ctrl, _, _ := newController(t, server, "")

	id, err := ctrl.Register(ctx, client.Registration{Username: "carol", Password: "secret"})
	require.NoError(t, err)
	require.EqualValues(t, 1, server.listCalls.Load())

	// Fresh cache is served without a request.
	_, err = ctrl.Tasks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, server.listCalls.Load())

	created, err := ctrl.CreateTask(ctx, client.NewTask{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, id.ID, created.UserID)
	assert.False(t, created.Completed)

	// Stale after the mutation: the next read refetches.
	tasks, err := ctrl.Tasks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, server.listCalls.Load())
	require.Len(t, tasks, 1)

	toggled, err := ctrl.ToggleTask(ctx, tasks[0])
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	tasks, err = ctrl.Tasks(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, server.listCalls.Load())
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)

	require.NoError(t, ctrl.DeleteTask(ctx, created.ID))
	tasks, err = ctrl.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	err = ctrl.DeleteTask(ctx, created.ID)
	assert.True(t, client.IsNotFound(err))
}

func TestController_FetchFailureIsTerminalUntilRefresh(t *testing.T) {
	ctx := context.Background()
	server := newServer(t)
	ctrl, rec, _ := newController(t, server, "")

	server.failLists.Store(true)
	_, err := ctrl.Register(ctx, client.Registration{Username: "dave", Password: "secret"})
	require.NoError(t, err, "the session is established even when the list fetch fails")
	assert.Equal(t, client.StateFailed, ctrl.State())
	assert.Error(t, ctrl.Err())
	require.Len(t, rec.errors(), 1)
	assert.Equal(t, "Could not load tasks", rec.errors()[0].Title)

	// No automatic retry.
	calls := server.listCalls.Load()
	_, err = ctrl.Tasks(ctx)
	assert.Error(t, err)
	assert.Equal(t, calls, server.listCalls.Load())
	assert.Equal(t, client.StateFailed, ctrl.State())

	server.failLists.Store(false)
	tasks, err := ctrl.Refresh(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, client.StateReady, ctrl.State())
	assert.NoError(t, ctrl.Err())
}

func TestController_LogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	server := newServer(t)
	ctrl, _, store := newController(t, server, "")

	_, err := ctrl.Register(ctx, client.Registration{Username: "erin", Password: "secret"})
	require.NoError(t, err)
	_, err = ctrl.CreateTask(ctx, client.NewTask{Title: "Buy milk"})
	require.NoError(t, err)

	require.NoError(t, ctrl.Logout())
	assert.Equal(t, client.StateLoggedOut, ctrl.State())
	_, ok := ctrl.Identity()
	assert.False(t, ok)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, err = ctrl.Tasks(ctx)
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
	_, err = ctrl.CreateTask(ctx, client.NewTask{Title: "x"})
	assert.ErrorIs(t, err, client.ErrNotLoggedIn)
}

func TestController_ValidationErrorIsNotified(t *testing.T) {
	ctx := context.Background()
	ctrl, rec, _ := newController(t, newServer(t), "")

	_, err := ctrl.Register(ctx, client.Registration{Username: "frank", Password: "secret"})
	require.NoError(t, err)

	_, err = ctrl.CreateTask(ctx, client.NewTask{Title: "   "})
	assert.True(t, client.IsValidation(err))
	errs := rec.errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "Could not create task", errs[0].Title)
	assert.Equal(t, client.StateReady, ctrl.State())
}
