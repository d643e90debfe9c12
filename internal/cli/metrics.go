package cli

import (
	"log"
	"time"

	"github.com/nadmax/feedme/internal/dashboard"
	"github.com/nadmax/feedme/internal/metrics"
	"github.com/nadmax/feedme/internal/task"
)

func (a *App) recordMetrics(command string, s *Session, err error, duration time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.RecordCommand(command, result, duration)

	if s != nil {
		updateRegistryMetrics(s)
	}

	if a.metricsFile == "" {
		return
	}

	if err := metrics.WriteTextfile(a.metricsFile); err != nil {
		log.Printf("failed to write metrics to %s: %v", a.metricsFile, err)
	}
}

func updateRegistryMetrics(s *Session) {
	tasksByStatus := make(map[task.Status]map[task.Priority]int)
	for _, t := range s.Registry.Tasks() {
		if tasksByStatus[t.Status()] == nil {
			tasksByStatus[t.Status()] = make(map[task.Priority]int)
		}
		tasksByStatus[t.Status()][t.Priority()]++
	}

	metrics.UpdateTaskGauges(tasksByStatus)
	metrics.UpdateOverdue(dashboard.Summarize(s.Registry, s.Now).OverdueTasks)
}
