package dashboard

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/nadmax/feedme/internal/registry"
	"github.com/nadmax/feedme/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)

func setupTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.New(task.DefaultConfig())
	add := func(name string, deadline time.Duration, p task.Priority) {
		tsk, err := task.NewTask(name, t0.Add(deadline), task.DefaultMinSpan,
			task.WithCreationTime(t0),
			task.WithStart(t0),
			task.WithPriority(p),
		)
		require.NoError(t, err)
		r.Add(tsk)
	}

	add("overdue", time.Hour, task.PriorityLow)
	add("soon", 3*time.Hour, task.PriorityHigh)
	add("later", 5*time.Hour, task.PriorityMedium)
	add("done", time.Hour, task.PriorityUrgent)

	_, err := r.Complete(3)
	require.NoError(t, err)

	return r
}

func TestSummarize_Empty(t *testing.T) {
	stats := Summarize(registry.New(task.DefaultConfig()), t0)

	assert.Equal(t, 0, stats.TotalTasks)
	assert.Equal(t, 0, stats.TodoTasks)
	assert.Equal(t, 0, stats.CompletedTasks)
	assert.Equal(t, 0, stats.OverdueTasks)
	assert.Nil(t, stats.TopTaskIndex)
	assert.Equal(t, "", stats.NextDeadline)
	assert.Equal(t, "N/A", stats.AverageTimeToDue)
	assert.Equal(t, t0, stats.LastUpdated)
}

func TestSummarize(t *testing.T) {
	r := setupTestRegistry(t)
	at := t0.Add(2 * time.Hour)

	stats := Summarize(r, at)

	assert.Equal(t, 4, stats.TotalTasks)
	assert.Equal(t, 3, stats.TodoTasks)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 1, stats.OverdueTasks)
	assert.Equal(t, map[string]int{"LOW": 1, "MEDIUM": 1, "HIGH": 1, "URGENT": 1}, stats.TasksByPriority)
	assert.Equal(t, map[string]int{"LOW": 1, "MEDIUM": 1, "HIGH": 1}, stats.TodoByPriority)
	assert.Equal(t, task.FormatLocal(t0.Add(3*time.Hour)), stats.NextDeadline)
	assert.Equal(t, "2h0m0s", stats.AverageTimeToDue)

	// LOW one hour overdue scores 2, HIGH two thirds through its window scores 2.
	require.NotNil(t, stats.TopTaskIndex)
	assert.Equal(t, 0, *stats.TopTaskIndex)
	assert.InDelta(t, 2.0, stats.TopScore, 1e-9)
}

func TestSummarize_ConcurrentAdds(t *testing.T) {
	r := registry.New(task.DefaultConfig())
	at := t0.Add(time.Hour)

	// Each added task is due sooner than the last, so the newest one is
	// always the most urgent.
	pending := make([]task.Task, 50)
	for i := range pending {
		tsk, err := task.NewTask("t", t0.Add(time.Duration(100-i)*time.Hour), task.DefaultMinSpan,
			task.WithCreationTime(t0),
			task.WithStart(t0),
		)
		require.NoError(t, err)
		pending[i] = tsk
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, tsk := range pending {
			r.Add(tsk)
		}
	}()

	var summaries []Stats
	for {
		summaries = append(summaries, Summarize(r, at))
		select {
		case <-done:
			summaries = append(summaries, Summarize(r, at))
			for _, stats := range summaries {
				if stats.TotalTasks == 0 {
					assert.Nil(t, stats.TopTaskIndex)
					continue
				}
				require.NotNil(t, stats.TopTaskIndex)
				assert.Equal(t, stats.TotalTasks-1, *stats.TopTaskIndex)
				assert.Equal(t, stats.TotalTasks, stats.TodoTasks)
			}
			assert.Equal(t, 50, summaries[len(summaries)-1].TotalTasks)
			return
		default:
		}
	}
}

func TestStats_WriteJSON(t *testing.T) {
	stats := Summarize(setupTestRegistry(t), t0.Add(2*time.Hour))

	var buf bytes.Buffer
	require.NoError(t, stats.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 4.0, decoded["total_tasks"])
	assert.Equal(t, 1.0, decoded["overdue_tasks"])
	assert.Contains(t, buf.String(), "\n    \"todo_tasks\": 3,")
}
