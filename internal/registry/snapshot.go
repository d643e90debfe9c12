package registry

import (
	"encoding/json"
	"fmt"

	"github.com/nadmax/feedme/internal/task"
)

// Snapshot is the persisted form of a registry.
type Snapshot struct {
	Tasks []task.Record `json:"task_list"`
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]task.Record, len(r.tasks))
	for i, t := range r.tasks {
		records[i] = t.Record()
	}

	return Snapshot{Tasks: records}
}

// FromSnapshot rebuilds a registry, validating every record.
func FromSnapshot(s Snapshot, cfg task.Config) (*Registry, error) {
	tasks := make([]task.Task, 0, len(s.Tasks))
	for i, rec := range s.Tasks {
		t, err := task.FromRecord(rec, cfg.MinSpan)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}

	return New(cfg, tasks...), nil
}

// MarshalSnapshot renders s as indented JSON terminated by a newline.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	if s.Tasks == nil {
		s.Tasks = []task.Record{}
	}

	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}

func (r *Registry) Marshal() ([]byte, error) {
	return MarshalSnapshot(r.Snapshot())
}

func Unmarshal(data []byte, cfg task.Config) (*Registry, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	return FromSnapshot(s, cfg)
}
