// Package registry holds the ordered task collection and the selection
// engine that ranks tasks by urgency. Tasks are addressed by their original
// insertion index; every state change goes through an indexed operation.
package registry

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nadmax/feedme/internal/task"
)

var ErrIndexOutOfRange = errors.New("task index out of range")

type Outcome int

const (
	Completed Outcome = iota
	AlreadyComplete
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case AlreadyComplete:
		return "already complete"
	default:
		return "unknown"
	}
}

// Ranked is one entry of a ranking: the task's original index, a copy of the
// task and its score at the ranking instant.
type Ranked struct {
	Index int
	Task  task.Task
	Score float64
}

type Registry struct {
	mu    sync.RWMutex
	cfg   task.Config
	tasks []task.Task
}

func New(cfg task.Config, tasks ...task.Task) *Registry {
	return &Registry{
		cfg:   cfg,
		tasks: append([]task.Task(nil), tasks...),
	}
}

// Add appends t and returns its index.
func (r *Registry) Add(t task.Task) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = append(r.tasks, t)
	return len(r.tasks) - 1
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tasks)
}

func (r *Registry) Task(index int) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.checkIndex(index); err != nil {
		return task.Task{}, err
	}

	return r.tasks[index], nil
}

// Tasks returns a copy of the collection in insertion order.
func (r *Registry) Tasks() []task.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]task.Task(nil), r.tasks...)
}

// Scores returns the score of every task at the given instant, aligned with
// the collection order.
func (r *Registry) Scores(at time.Time) []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.scores(at)
}

// Scored returns every task with its score at the given instant, in
// collection order, read under one lock.
func (r *Registry) Scored(at time.Time) []Ranked {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Ranked, len(r.tasks))
	for i, t := range r.tasks {
		entries[i] = Ranked{Index: i, Task: t, Score: t.Score(at, r.cfg)}
	}

	return entries
}

func (r *Registry) scores(at time.Time) []float64 {
	scores := make([]float64, len(r.tasks))
	for i, t := range r.tasks {
		scores[i] = t.Score(at, r.cfg)
	}

	return scores
}

// Rank returns the min(n, Len()) highest scoring tasks at the given instant,
// by descending score. Equal scores keep ascending index order.
func (r *Registry) Rank(n int, at time.Time) []Ranked {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n <= 0 || len(r.tasks) == 0 {
		return []Ranked{}
	}

	scores := r.scores(at)
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	n = min(n, len(order))
	ranked := make([]Ranked, n)
	for i, idx := range order[:n] {
		ranked[i] = Ranked{
			Index: idx,
			Task:  r.tasks[idx],
			Score: scores[idx],
		}
	}

	return ranked
}

// SelectTop returns the top n tasks keyed by original index. Values are
// copies; completing one must go through Complete with its key.
func (r *Registry) SelectTop(n int, at time.Time) map[int]task.Task {
	ranked := r.Rank(n, at)

	selected := make(map[int]task.Task, len(ranked))
	for _, entry := range ranked {
		selected[entry.Index] = entry.Task
	}

	return selected
}

// Complete marks the task at index COMPLETE. Completing a task twice is
// reported as AlreadyComplete and leaves the registry unchanged.
func (r *Registry) Complete(index int) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return 0, err
	}

	if r.tasks[index].IsComplete() {
		return AlreadyComplete, nil
	}

	r.tasks[index] = r.tasks[index].Completed()
	return Completed, nil
}

func (r *Registry) checkIndex(index int) error {
	if index < 0 || index >= len(r.tasks) {
		return fmt.Errorf("%w: index %d, registry holds %d tasks", ErrIndexOutOfRange, index, len(r.tasks))
	}
	return nil
}

// Equal reports whether both registries hold equal tasks in the same order.
func (r *Registry) Equal(o *Registry) bool {
	a, b := r.Tasks(), o.Tasks()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}

// Render writes a header with the task count followed by every task.
func (r *Registry) Render(w io.Writer, at time.Time, depth int) error {
	tasks := r.Tasks()

	header := fmt.Sprintf("%sTaskRegistry:\n%s# of Tasks: %d\n",
		strings.Repeat(r.cfg.Indent, depth),
		strings.Repeat(r.cfg.Indent, depth+1),
		len(tasks))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	for _, t := range tasks {
		if err := t.Render(w, at, depth+1, r.cfg); err != nil {
			return err
		}
	}

	return nil
}
