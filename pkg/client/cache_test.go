package client_test

import (
	"testing"

	"taskapp/pkg/client"

	"github.com/stretchr/testify/assert"
)

func TestTaskCache(t *testing.T) {
	cache := client.NewTaskCache()

	_, _, ok := cache.Get("u1")
	assert.False(t, ok)

	cache.Put("u1", []client.Task{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}})
	tasks, fresh, ok := cache.Get("u1")
	assert.True(t, ok)
	assert.True(t, fresh)
	assert.Len(t, tasks, 2)

	// Callers get a copy.
	tasks[0].Title = "mutated"
	tasks, _, _ = cache.Get("u1")
	assert.Equal(t, "A", tasks[0].Title)

	cache.Upsert("u1", client.Task{ID: "a", Title: "A2", Completed: true})
	tasks, fresh, _ = cache.Get("u1")
	assert.False(t, fresh)
	assert.Equal(t, "A2", tasks[0].Title)
	assert.True(t, tasks[0].Completed)

	cache.Upsert("u1", client.Task{ID: "c", Title: "C"})
	cache.Remove("u1", "b")
	tasks, _, _ = cache.Get("u1")
	assert.Equal(t, []string{"a", "c"}, ids(tasks))

	// Entries are keyed per user.
	cache.Put("u2", []client.Task{{ID: "z"}})
	_, fresh, _ = cache.Get("u2")
	assert.True(t, fresh)
	cache.Invalidate("u2")
	_, fresh, _ = cache.Get("u2")
	assert.False(t, fresh)

	cache.Clear()
	_, _, ok = cache.Get("u1")
	assert.False(t, ok)
	_, _, ok = cache.Get("u2")
	assert.False(t, ok)
}

func ids(tasks []client.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
