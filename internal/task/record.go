package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NaiveLayout is the timezone-free ISO-8601 form snapshots are written in.
// Stored times are always UTC so the text is unambiguous across DST changes.
const NaiveLayout = "2006-01-02T15:04:05.999999999"

// TimePrecision is the resolution task timestamps are kept at. It matches
// what PostgreSQL TIMESTAMPTZ stores.
const TimePrecision = time.Microsecond

var parseLayouts = []string{
	time.RFC3339Nano,
	NaiveLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// FormatTime renders t in UTC in NaiveLayout, the snapshot form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(NaiveLayout)
}

// FormatLocal renders t in the local zone for display.
func FormatLocal(t time.Time) string {
	return t.Local().Format(NaiveLayout)
}

// ParseTime reads a snapshot timestamp: RFC 3339 with an offset, or a naive
// date/time taken as UTC.
func ParseTime(s string) (time.Time, error) {
	return parseIn(s, time.UTC)
}

// ParseLocalTime reads user input: RFC 3339 with an offset, or a naive
// date/time taken in the local zone.
func ParseLocalTime(s string) (time.Time, error) {
	return parseIn(s, time.Local)
}

func parseIn(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range parseLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid timestamp %q: expected ISO-8601 such as 2006-01-02T15:04:05", s)
}

// Timestamp is a time.Time that marshals in NaiveLayout.
type Timestamp time.Time

func (ts Timestamp) MarshalText() ([]byte, error) {
	return []byte(FormatTime(time.Time(ts))), nil
}

func (ts *Timestamp) UnmarshalText(text []byte) error {
	t, err := ParseTime(string(text))
	if err != nil {
		return err
	}
	*ts = Timestamp(t)
	return nil
}

// Record is the persisted shape of a task.
type Record struct {
	ID           string    `json:"id,omitempty"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreationTime Timestamp `json:"creation_time"`
	Start        Timestamp `json:"start"`
	Deadline     Timestamp `json:"deadline"`
	Priority     Priority  `json:"priority"`
	Status       Status    `json:"status"`
}

func (t Task) Record() Record {
	return Record{
		ID:           t.id,
		Name:         t.name,
		Description:  t.description,
		CreationTime: Timestamp(t.creationTime),
		Start:        Timestamp(t.start),
		Deadline:     Timestamp(t.deadline),
		Priority:     t.priority,
		Status:       t.status,
	}
}

// FromRecord rebuilds a task from its persisted form, enforcing the same
// invariants as NewTask. Records written before tasks carried an id are
// given a fresh one. A zero start falls back to the creation time.
func FromRecord(rec Record, minSpan time.Duration) (Task, error) {
	t := Task{
		id:           rec.ID,
		name:         rec.Name,
		description:  rec.Description,
		creationTime: truncate(time.Time(rec.CreationTime)),
		start:        truncate(time.Time(rec.Start)),
		deadline:     truncate(time.Time(rec.Deadline)),
		priority:     rec.Priority,
		status:       rec.Status,
	}

	if t.id == "" {
		t.id = uuid.New().String()
	}
	if t.start.IsZero() {
		t.start = t.creationTime
	}
	if t.priority == 0 {
		t.priority = PriorityMedium
	}
	if t.status == "" {
		t.status = StatusTodo
	}

	if err := t.validate(minSpan); err != nil {
		return Task{}, err
	}

	return t, nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Record())
}
