// Package task defines the task entity of the prioritization engine.
// A task knows its priority tier, its accrual window and its completion
// status, and computes its own urgency score at a given instant.
package task

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	Status   string
	Priority int
)

const (
	StatusTodo     Status = "TODO"
	StatusComplete Status = "COMPLETE"
)

const (
	PriorityLow Priority = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

const (
	DefaultMaxScore = 1e3
	DefaultMinSpan  = 100 * time.Millisecond
	DefaultIndent   = "\t"
)

var (
	ErrInvalidTask      = errors.New("invalid task")
	ErrEmptyName        = errors.New("name must not be empty")
	ErrDeadlineTooEarly = errors.New("deadline must be after the start time")
)

// Config carries the engine constants used by scoring, validation and
// rendering. It is bound once at startup and passed by value.
type Config struct {
	MaxScore float64
	MinSpan  time.Duration
	Indent   string
}

func DefaultConfig() Config {
	return Config{
		MaxScore: DefaultMaxScore,
		MinSpan:  DefaultMinSpan,
		Indent:   DefaultIndent,
	}
}

// Task is an immutable value. The only state transition, TODO to COMPLETE,
// produces a new value through Completed.
type Task struct {
	id           string
	name         string
	description  string
	creationTime time.Time
	start        time.Time
	deadline     time.Time
	priority     Priority
	status       Status
}

type Option func(*Task)

func WithDescription(description string) Option {
	return func(t *Task) { t.description = description }
}

func WithPriority(p Priority) Option {
	return func(t *Task) { t.priority = p }
}

func WithStart(start time.Time) Option {
	return func(t *Task) { t.start = start }
}

func WithCreationTime(created time.Time) Option {
	return func(t *Task) { t.creationTime = created }
}

// NewTask builds a TODO task. Creation and start time default to now.
func NewTask(name string, deadline time.Time, minSpan time.Duration, opts ...Option) (Task, error) {
	now := time.Now()
	t := Task{
		id:           uuid.New().String(),
		name:         name,
		creationTime: now,
		start:        now,
		deadline:     deadline,
		priority:     PriorityMedium,
		status:       StatusTodo,
	}

	for _, opt := range opts {
		opt(&t)
	}

	t.creationTime = truncate(t.creationTime)
	t.start = truncate(t.start)
	t.deadline = truncate(t.deadline)

	if err := t.validate(minSpan); err != nil {
		return Task{}, err
	}

	return t, nil
}

func (t Task) validate(minSpan time.Duration) error {
	if strings.TrimSpace(t.name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyName)
	}
	if !t.priority.Valid() {
		return fmt.Errorf("%w: unknown priority %d", ErrInvalidTask, int(t.priority))
	}
	if !t.status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, string(t.status))
	}
	if !t.deadline.After(t.start.Add(minSpan)) {
		return fmt.Errorf("%w: %w (start %s, deadline %s)",
			ErrInvalidTask, ErrDeadlineTooEarly, FormatLocal(t.start), FormatLocal(t.deadline))
	}

	return nil
}

func (t Task) ID() string              { return t.id }
func (t Task) Name() string            { return t.name }
func (t Task) Description() string     { return t.description }
func (t Task) CreationTime() time.Time { return t.creationTime }
func (t Task) Start() time.Time        { return t.start }
func (t Task) Deadline() time.Time     { return t.deadline }
func (t Task) Priority() Priority      { return t.priority }
func (t Task) Status() Status          { return t.status }

func (t Task) IsComplete() bool {
	return t.status == StatusComplete
}

// Completed returns a copy of t marked COMPLETE.
func (t Task) Completed() Task {
	t.status = StatusComplete
	return t
}

// IsOverdue reports whether at is at or past the deadline.
func (t Task) IsOverdue(at time.Time) bool {
	return !at.Before(t.deadline)
}

// Score returns the urgency of t at the given instant, clamped to
// [0, cfg.MaxScore]. Before the deadline the score grows linearly from 0 at
// start to the priority weight at the deadline; past it, the weight is raised
// by (1 + overdue hours) to the power of the weight.
func (t Task) Score(at time.Time, cfg Config) float64 {
	if t.IsComplete() {
		return 0
	}

	weight := t.priority.Weight()

	var score float64
	if t.IsOverdue(at) {
		overdueHours := at.Sub(t.deadline).Hours()
		score = weight * math.Pow(1+overdueHours, weight)
	} else {
		elapsed := float64(at.Sub(t.start))
		window := float64(t.deadline.Sub(t.start))
		score = weight * elapsed / window
	}

	return clamp(score, 0, cfg.MaxScore)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(v, hi))
}

// Equal reports whether both tasks hold the same fields, comparing
// timestamps as instants.
func (t Task) Equal(o Task) bool {
	return t.id == o.id &&
		t.name == o.name &&
		t.description == o.description &&
		t.creationTime.Equal(o.creationTime) &&
		t.start.Equal(o.start) &&
		t.deadline.Equal(o.deadline) &&
		t.priority == o.priority &&
		t.status == o.status
}

// truncate drops the monotonic reading and anything below TimePrecision.
func truncate(t time.Time) time.Time {
	return t.Truncate(TimePrecision)
}
