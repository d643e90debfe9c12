package task

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Render writes a human-readable block for t, with the header at depth and
// each field one level deeper.
func (t Task) Render(w io.Writer, at time.Time, depth int, cfg Config) error {
	head := strings.Repeat(cfg.Indent, depth)
	body := strings.Repeat(cfg.Indent, depth+1)

	lines := []string{
		head + "Task:",
		body + "ID: " + t.id,
		body + "Name: " + t.name,
		body + "Description: " + t.description,
		body + "Creation Time: " + FormatLocal(t.creationTime),
		body + "Start: " + FormatLocal(t.start),
		body + "Deadline: " + FormatLocal(t.deadline),
		body + "Priority: " + t.priority.String(),
		body + "Status: " + string(t.status),
		body + fmt.Sprintf("Score: %.4f", t.Score(at, cfg)),
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
