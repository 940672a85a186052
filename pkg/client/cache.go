package client

import "sync"

type cacheEntry struct {
	tasks []Task
	stale bool
}

// TaskCache holds the last known task list per user id. Entries are marked
// stale after local mutations so the next read goes back to the server.
type TaskCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewTaskCache returns an empty cache.
func NewTaskCache() *TaskCache {
	return &TaskCache{entries: make(map[string]*cacheEntry)}
}

// Get returns a copy of the cached list and whether it can be served without
// a refetch. ok is false when nothing is cached for userID.
func (c *TaskCache) Get(userID string) (tasks []Task, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return nil, false, false
	}
	return cloneTasks(e.tasks), !e.stale, true
}

// Put stores a freshly fetched list.
func (c *TaskCache) Put(userID string, tasks []Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = &cacheEntry{tasks: cloneTasks(tasks)}
}

// Upsert replaces the task with the same id or appends it, then marks the
// entry stale.
func (c *TaskCache) Upsert(userID string, task Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(userID)
	for i := range e.tasks {
		if e.tasks[i].ID == task.ID {
			e.tasks[i] = task
			e.stale = true
			return
		}
	}
	e.tasks = append(e.tasks, task)
	e.stale = true
}

// Remove drops a task from the entry and marks it stale.
func (c *TaskCache) Remove(userID, taskID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(userID)
	for i := range e.tasks {
		if e.tasks[i].ID == taskID {
			e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
			break
		}
	}
	e.stale = true
}

// Invalidate marks the user's entry stale without touching its contents.
func (c *TaskCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[userID]; ok {
		e.stale = true
	}
}

// Clear forgets every user.
func (c *TaskCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// entry must be called with mu held.
func (c *TaskCache) entry(userID string) *cacheEntry {
	e, ok := c.entries[userID]
	if !ok {
		e = &cacheEntry{stale: true}
		c.entries[userID] = e
	}
	return e
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
