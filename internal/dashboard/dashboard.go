// Package dashboard summarizes a registry for the stats command and the
// metrics gauges.
package dashboard

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nadmax/feedme/internal/registry"
	"github.com/nadmax/feedme/internal/task"
)

type Stats struct {
	TotalTasks       int            `json:"total_tasks"`
	TodoTasks        int            `json:"todo_tasks"`
	CompletedTasks   int            `json:"completed_tasks"`
	OverdueTasks     int            `json:"overdue_tasks"`
	TasksByPriority  map[string]int `json:"tasks_by_priority"`
	TodoByPriority   map[string]int `json:"todo_by_priority"`
	TopScore         float64        `json:"top_score"`
	TopTaskIndex     *int           `json:"top_task_index,omitempty"`
	NextDeadline     string         `json:"next_deadline,omitempty"`
	AverageTimeToDue string         `json:"average_time_to_due"`
	LastUpdated      time.Time      `json:"last_updated"`
}

// Summarize computes stats for r at the given instant. Overdue and deadline
// figures only consider tasks that are still TODO.
func Summarize(r *registry.Registry, at time.Time) Stats {
	entries := r.Scored(at)

	stats := Stats{
		TotalTasks:      len(entries),
		TasksByPriority: make(map[string]int),
		TodoByPriority:  make(map[string]int),
		LastUpdated:     at,
	}

	var (
		totalToDue time.Duration
		dueCount   int
		next       time.Time
	)

	for _, e := range entries {
		t := e.Task
		stats.TasksByPriority[t.Priority().String()]++

		if t.IsComplete() {
			stats.CompletedTasks++
			continue
		}

		stats.TodoTasks++
		stats.TodoByPriority[t.Priority().String()]++

		if t.IsOverdue(at) {
			stats.OverdueTasks++
		} else {
			totalToDue += t.Deadline().Sub(at)
			dueCount++
			if next.IsZero() || t.Deadline().Before(next) {
				next = t.Deadline()
			}
		}

		if stats.TopTaskIndex == nil || e.Score > stats.TopScore {
			idx := e.Index
			stats.TopTaskIndex = &idx
			stats.TopScore = e.Score
		}
	}

	if !next.IsZero() {
		stats.NextDeadline = task.FormatLocal(next)
	}

	if dueCount > 0 {
		avg := totalToDue / time.Duration(dueCount)
		stats.AverageTimeToDue = avg.Round(time.Second).String()
	} else {
		stats.AverageTimeToDue = "N/A"
	}

	return stats
}

func (s Stats) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(s)
}
