// Package metrics provides Prometheus metrics for feedme commands and the
// state of the task registry.
package metrics

import (
	"time"

	"github.com/nadmax/feedme/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedme_tasks_added_total",
			Help: "Total number of tasks added",
		},
		[]string{"priority"},
	)
	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedme_tasks_completed_total",
			Help: "Total number of tasks marked complete",
		},
		[]string{"priority"},
	)
	TasksServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedme_tasks_served_total",
			Help: "Total number of tasks presented by serve",
		},
	)
	ServedScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedme_served_score",
			Help:    "Urgency score of served tasks",
			Buckets: []float64{.1, .25, .5, 1, 2, 3, 4, 8, 16, 64, 256, 1000},
		},
		[]string{"priority"},
	)
	Tasks = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedme_tasks",
			Help: "Current number of tasks by status and priority",
		},
		[]string{"status", "priority"},
	)
	TasksOverdue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedme_tasks_overdue",
			Help: "Current number of incomplete tasks past their deadline",
		},
	)
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedme_command_duration_seconds",
			Help:    "Command execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command", "result"},
	)
)

func RecordTaskAdded(priority task.Priority) {
	TasksAdded.WithLabelValues(priority.String()).Inc()
}

func RecordTaskCompleted(priority task.Priority) {
	TasksCompleted.WithLabelValues(priority.String()).Inc()
}

func RecordTaskServed(priority task.Priority, score float64) {
	TasksServed.Inc()
	ServedScore.WithLabelValues(priority.String()).Observe(score)
}

func RecordCommand(command, result string, duration time.Duration) {
	CommandDuration.WithLabelValues(command, result).Observe(duration.Seconds())
}

func UpdateTaskGauges(tasksByStatus map[task.Status]map[task.Priority]int) {
	Tasks.Reset()
	for status, byPriority := range tasksByStatus {
		for priority, count := range byPriority {
			Tasks.WithLabelValues(string(status), priority.String()).Set(float64(count))
		}
	}
}

func UpdateOverdue(count int) {
	TasksOverdue.Set(float64(count))
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
