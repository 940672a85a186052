package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// State is the client session state.
type State int

const (
	// StateLoggedOut means no identity is held.
	StateLoggedOut State = iota
	// StateLoading means an identity is held but its tasks have not been
	// fetched yet, or are being fetched.
	StateLoading
	// StateReady means the task list was fetched successfully.
	StateReady
	// StateFailed means the last fetch failed. Only Refresh leaves it.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged-out"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Notification levels.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
)

// Notification is a user-facing message about an operation's outcome.
type Notification struct {
	Level   string
	Title   string
	Message string
	Err     error
}

// Notifier receives notifications. It is called synchronously.
type Notifier func(Notification)

// Controller drives the client session: identity, task cache and state.
// Nothing is retried automatically; every failure is reported through the
// Notifier and returned to the caller.
type Controller struct {
	api        *Client
	identities *IdentityStore
	cache      *TaskCache
	notify     Notifier
	logger     *slog.Logger

	mu       sync.Mutex
	state    State
	identity *Identity
	lastErr  error
}

// NewController restores any persisted identity. A restored session starts
// in StateLoading; the first Tasks call fetches its list.
func NewController(api *Client, identities *IdentityStore, notify Notifier, logger *slog.Logger) (*Controller, error) {
	if notify == nil {
		notify = func(Notification) {}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		api:        api,
		identities: identities,
		cache:      NewTaskCache(),
		notify:     notify,
		logger:     logger,
		state:      StateLoggedOut,
	}

	id, err := identities.Load()
	if err != nil {
		return nil, err
	}
	if id != nil {
		c.identity = id
		c.state = StateLoading
		logger.Debug("restored identity", "user_id", id.ID)
	}
	return c, nil
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Identity returns the logged-in identity.
func (c *Controller) Identity() (Identity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return Identity{}, false
	}
	return *c.identity, true
}

// Err returns the error that moved the controller to StateFailed.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Login authenticates, persists the identity and loads the task list.
// A failed list fetch leaves the session logged in but in StateFailed.
func (c *Controller) Login(ctx context.Context, username, password string) (Identity, error) {
	id, err := c.api.Login(ctx, username, password)
	if err != nil {
		c.fail("Login failed", err)
		return Identity{}, err
	}
	if err := c.startSession(ctx, id); err != nil {
		return Identity{}, err
	}
	c.notify(Notification{Level: NotifySuccess, Title: "Logged in", Message: "Welcome back, " + id.Username})
	return id, nil
}

// Register creates an account and logs it in.
func (c *Controller) Register(ctx context.Context, reg Registration) (Identity, error) {
	id, err := c.api.Register(ctx, reg)
	if err != nil {
		c.fail("Registration failed", err)
		return Identity{}, err
	}
	if err := c.startSession(ctx, id); err != nil {
		return Identity{}, err
	}
	c.notify(Notification{Level: NotifySuccess, Title: "Account created", Message: "Welcome, " + id.Username})
	return id, nil
}

func (c *Controller) startSession(ctx context.Context, id Identity) error {
	if err := c.identities.Save(id); err != nil {
		c.fail("Could not save session", err)
		return err
	}
	c.mu.Lock()
	c.identity = &id
	c.state = StateLoading
	c.lastErr = nil
	c.mu.Unlock()

	// The session is established even if this fetch fails.
	_, _ = c.fetch(ctx, id.ID)
	return nil
}

// Logout forgets the identity and every cached list.
func (c *Controller) Logout() error {
	c.mu.Lock()
	c.identity = nil
	c.state = StateLoggedOut
	c.lastErr = nil
	c.mu.Unlock()

	c.cache.Clear()
	if err := c.identities.Clear(); err != nil {
		c.fail("Logout failed", err)
		return err
	}
	return nil
}

// Tasks returns the current user's tasks, from cache when the entry is fresh.
// In StateFailed it returns the failure without contacting the server.
func (c *Controller) Tasks(ctx context.Context) ([]Task, error) {
	c.mu.Lock()
	id, state, lastErr := c.identity, c.state, c.lastErr
	c.mu.Unlock()

	if id == nil {
		return nil, ErrNotLoggedIn
	}
	if state == StateFailed {
		tasks, _, _ := c.cache.Get(id.ID)
		return tasks, lastErr
	}
	if tasks, fresh, ok := c.cache.Get(id.ID); ok && fresh {
		return tasks, nil
	}
	return c.fetch(ctx, id.ID)
}

// Refresh refetches the current user's tasks regardless of cache state.
func (c *Controller) Refresh(ctx context.Context) ([]Task, error) {
	id, ok := c.Identity()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return c.fetch(ctx, id.ID)
}

func (c *Controller) fetch(ctx context.Context, userID string) ([]Task, error) {
	c.setState(userID, StateLoading, nil)

	tasks, err := c.api.ListTasks(ctx, userID)
	if err != nil {
		c.setState(userID, StateFailed, err)
		c.fail("Could not load tasks", err)
		return nil, err
	}
	c.cache.Put(userID, tasks)
	c.setState(userID, StateReady, nil)
	return tasks, nil
}

// setState ignores transitions for a user who is no longer logged in.
func (c *Controller) setState(userID string, s State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil || c.identity.ID != userID {
		return
	}
	c.state = s
	c.lastErr = err
}

// CreateTask creates a task owned by the current user.
func (c *Controller) CreateTask(ctx context.Context, task NewTask) (Task, error) {
	id, ok := c.Identity()
	if !ok {
		return Task{}, ErrNotLoggedIn
	}
	task.UserID = id.ID

	created, err := c.api.CreateTask(ctx, task)
	if err != nil {
		c.fail("Could not create task", err)
		return Task{}, err
	}
	c.cache.Upsert(id.ID, created)
	c.notify(Notification{Level: NotifySuccess, Title: "Task created", Message: created.Title})
	return created, nil
}

// UpdateTask applies a partial update to one of the current user's tasks.
func (c *Controller) UpdateTask(ctx context.Context, taskID string, update TaskUpdate) (Task, error) {
	id, ok := c.Identity()
	if !ok {
		return Task{}, ErrNotLoggedIn
	}

	updated, err := c.api.UpdateTask(ctx, taskID, update)
	if err != nil {
		c.fail("Could not update task", err)
		return Task{}, err
	}
	c.cache.Upsert(id.ID, updated)
	c.notify(Notification{Level: NotifySuccess, Title: "Task updated", Message: updated.Title})
	return updated, nil
}

// ToggleTask flips the completed flag of a task.
func (c *Controller) ToggleTask(ctx context.Context, task Task) (Task, error) {
	completed := !task.Completed
	return c.UpdateTask(ctx, task.ID, TaskUpdate{Completed: &completed})
}

// DeleteTask removes one of the current user's tasks.
func (c *Controller) DeleteTask(ctx context.Context, taskID string) error {
	id, ok := c.Identity()
	if !ok {
		return ErrNotLoggedIn
	}

	if err := c.api.DeleteTask(ctx, taskID); err != nil {
		c.fail("Could not delete task", err)
		return err
	}
	c.cache.Remove(id.ID, taskID)
	c.notify(Notification{Level: NotifySuccess, Title: "Task deleted"})
	return nil
}

func (c *Controller) fail(title string, err error) {
	c.logger.Debug(title, "error", err)
	c.notify(Notification{Level: NotifyError, Title: title, Message: err.Error(), Err: err})
}
