package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nadmax/feedme/internal/dashboard"
	"github.com/nadmax/feedme/internal/metrics"
	"github.com/nadmax/feedme/internal/registry"
	"github.com/nadmax/feedme/internal/task"
)

func addCommand() Command {
	return Command{
		Name:    "add",
		Usage:   "add [--name N] [--description D] [--priority P] [--start T] [--deadline T]",
		Summary: "Add a task, prompting for anything not given",
		Mutates: true,
		Handler: handleAdd,
	}
}

func serveCommand() Command {
	return Command{
		Name:    "serve",
		Usage:   "serve [N]",
		Summary: "Show the N most urgent tasks (default 1)",
		Handler: handleServe,
	}
}

func completeCommand() Command {
	return Command{
		Name:    "complete",
		Usage:   "complete INDEX",
		Summary: "Mark the task at INDEX complete",
		Mutates: true,
		Handler: handleComplete,
	}
}

func listCommand() Command {
	return Command{
		Name:    "list",
		Usage:   "list",
		Summary: "Show every task with its current score",
		Handler: handleList,
	}
}

func statsCommand() Command {
	return Command{
		Name:    "stats",
		Usage:   "stats",
		Summary: "Print registry statistics as JSON",
		Handler: handleStats,
	}
}

func handleAdd(_ context.Context, s *Session, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	name := fs.String("name", "", "The name of the task.")
	description := fs.String("description", "", "The description of the task.")
	priority := fs.String("priority", "", "The task priority level: low|medium|high|urgent.")
	start := fs.String("start", "", "When urgency starts accruing, ISO-8601 (default now).")
	deadline := fs.String("deadline", "", "The deadline of the task, ISO-8601.")

	if err := fs.Parse(args); err != nil {
		return invalidInvocationf("add: %v", err)
	}
	if fs.NArg() != 0 {
		return invalidInvocationf("add: unexpected arguments: %q", strings.Join(fs.Args(), " "))
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	p := prompter{in: s.In, out: s.Out}
	var err error
	if !set["name"] {
		if *name, err = p.ask("Name", ""); err != nil {
			return err
		}
	}
	if !set["description"] {
		if *description, err = p.ask("Description", ""); err != nil {
			return err
		}
	}
	if !set["priority"] {
		if *priority, err = p.ask("Priority Level (low, medium, high, urgent)", "medium"); err != nil {
			return err
		}
	}
	if !set["deadline"] {
		if *deadline, err = p.ask("Deadline [YYYY-MM-DD]", ""); err != nil {
			return err
		}
	}

	prio, err := task.ParsePriority(*priority)
	if err != nil {
		return invalidInvocationf("add: %v", err)
	}

	deadlineAt, err := task.ParseLocalTime(*deadline)
	if err != nil {
		return fmt.Errorf("%w: %w", task.ErrInvalidTask, err)
	}

	startAt := s.Now
	if *start != "" {
		if startAt, err = task.ParseLocalTime(*start); err != nil {
			return fmt.Errorf("%w: %w", task.ErrInvalidTask, err)
		}
	}

	t, err := task.NewTask(*name, deadlineAt, s.Config.MinSpan,
		task.WithDescription(*description),
		task.WithPriority(prio),
		task.WithCreationTime(s.Now),
		task.WithStart(startAt),
	)
	if err != nil {
		return err
	}

	index := s.Registry.Add(t)
	metrics.RecordTaskAdded(t.Priority())

	_, err = fmt.Fprintf(s.Out, "Added task %d: %s (%s, due %s)\n",
		index, t.Name(), t.Priority(), task.FormatLocal(t.Deadline()))
	return err
}

func handleServe(_ context.Context, s *Session, args []string) error {
	n := 1
	switch len(args) {
	case 0:
	case 1:
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 0 {
			return invalidInvocationf("serve: N must be a non-negative integer, got %q", args[0])
		}
		n = parsed
	default:
		return invalidInvocationf("serve: expected at most one argument, got %d", len(args))
	}

	if total := s.Registry.Len(); total < n {
		fmt.Fprintf(s.Out, "The registry does not have enough tasks to serve %d. Has %d tasks.\n", n, total)
	}

	for _, entry := range s.Registry.Rank(n, s.Now) {
		if _, err := fmt.Fprintf(s.Out, "[%d]\n", entry.Index); err != nil {
			return err
		}
		if err := entry.Task.Render(s.Out, s.Now, 0, s.Config); err != nil {
			return err
		}
		metrics.RecordTaskServed(entry.Task.Priority(), entry.Score)
	}

	return nil
}

func handleComplete(_ context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return invalidInvocationf("complete: expected exactly one INDEX argument")
	}

	index, err := strconv.Atoi(args[0])
	if err != nil {
		return invalidInvocationf("complete: INDEX must be an integer, got %q", args[0])
	}

	outcome, err := s.Registry.Complete(index)
	if err != nil {
		return err
	}

	t, err := s.Registry.Task(index)
	if err != nil {
		return err
	}

	if outcome == registry.AlreadyComplete {
		_, err = fmt.Fprintf(s.Out, "Task %d (%s) is already complete.\n", index, t.Name())
		return err
	}

	metrics.RecordTaskCompleted(t.Priority())
	_, err = fmt.Fprintf(s.Out, "Task %d (%s) marked complete.\n", index, t.Name())
	return err
}

func handleList(_ context.Context, s *Session, args []string) error {
	if len(args) != 0 {
		return invalidInvocationf("list: unexpected arguments: %q", strings.Join(args, " "))
	}

	return s.Registry.Render(s.Out, s.Now, 0)
}

func handleStats(_ context.Context, s *Session, args []string) error {
	if len(args) != 0 {
		return invalidInvocationf("stats: unexpected arguments: %q", strings.Join(args, " "))
	}

	return dashboard.Summarize(s.Registry, s.Now).WriteJSON(s.Out)
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// ask prints a prompt and reads one line. An empty answer yields def.
func (p prompter) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}

	return line, nil
}
