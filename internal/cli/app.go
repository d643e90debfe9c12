// Package cli is the command adapter: it loads the registry from a
// repository, runs one command against it and persists the result.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/nadmax/feedme/internal/registry"
	"github.com/nadmax/feedme/internal/repository"
	"github.com/nadmax/feedme/internal/task"
)

const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitInvalidInvocation = 2
)

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.ExitCode
	}

	return ExitFailure
}

// Handler runs one command against the loaded registry.
type Handler func(ctx context.Context, s *Session, args []string) error

type Command struct {
	Name    string
	Usage   string
	Summary string
	// Mutates marks commands whose registry changes must be persisted.
	Mutates bool
	Handler Handler
}

// Session is what a handler sees: the loaded registry, the engine config,
// the I/O streams and the instant the command runs at.
type Session struct {
	Registry *registry.Registry
	Config   task.Config
	Now      time.Time
	In       *bufio.Reader
	Out      io.Writer
}

type App struct {
	repo        repository.SnapshotRepository
	cfg         task.Config
	in          *bufio.Reader
	out         io.Writer
	errOut      io.Writer
	now         func() time.Time
	metricsFile string
	commands    map[string]Command
}

type Option func(*App)

func WithInput(r io.Reader) Option {
	return func(a *App) { a.in = bufio.NewReader(r) }
}

func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) {
		a.out = out
		a.errOut = errOut
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

func WithMetricsFile(path string) Option {
	return func(a *App) { a.metricsFile = path }
}

// NewApp returns an App with the built-in commands registered.
func NewApp(repo repository.SnapshotRepository, cfg task.Config, opts ...Option) *App {
	a := &App{
		repo:     repo,
		cfg:      cfg,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		errOut:   os.Stderr,
		now:      time.Now,
		commands: make(map[string]Command),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.RegisterCommand(addCommand())
	a.RegisterCommand(serveCommand())
	a.RegisterCommand(completeCommand())
	a.RegisterCommand(listCommand())
	a.RegisterCommand(statsCommand())

	return a
}

func (a *App) RegisterCommand(c Command) {
	a.commands[c.Name] = c
}

// Run executes the command named by args[0] and returns the exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 || isHelp(args[0]) {
		a.printUsage(a.out)
		return ExitSuccess
	}

	cmd, ok := a.commands[args[0]]
	if !ok {
		err := invalidInvocationf("unknown command %q", args[0])
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
		a.printUsage(a.errOut)
		return ExitCode(err)
	}

	started := time.Now()
	session, err := a.execute(ctx, cmd, args[1:])
	a.recordMetrics(cmd.Name, session, err, time.Since(started))

	if err != nil {
		fmt.Fprintf(a.errOut, "Error: %v\n", err)
	}

	return ExitCode(err)
}

func (a *App) execute(ctx context.Context, cmd Command, args []string) (*Session, error) {
	reg, err := a.startup(ctx)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Registry: reg,
		Config:   a.cfg,
		Now:      a.now(),
		In:       a.in,
		Out:      a.out,
	}

	if err := cmd.Handler(ctx, s, args); err != nil {
		return s, err
	}

	if !cmd.Mutates {
		return s, nil
	}

	return s, a.shutdown(ctx, reg)
}

// startup loads the registry. On first boot an empty registry is persisted
// so later commands find a snapshot.
func (a *App) startup(ctx context.Context) (*registry.Registry, error) {
	s, err := a.repo.Load(ctx)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		fmt.Fprintln(a.out, "First boot detected. Creating empty task registry.")
		reg := registry.New(a.cfg)
		if err := a.shutdown(ctx, reg); err != nil {
			return nil, err
		}
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	reg, err := registry.FromSnapshot(s, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	return reg, nil
}

func (a *App) shutdown(ctx context.Context, reg *registry.Registry) error {
	if err := a.repo.Save(ctx, reg.Snapshot()); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}

func (a *App) printUsage(w io.Writer) {
	names := make([]string, 0, len(a.commands))
	for name := range a.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("feedme serves the few tasks worth doing next.\n\nUsage:\n")
	for _, name := range names {
		cmd := a.commands[name]
		fmt.Fprintf(&b, "  feedme %-40s %s\n", cmd.Usage, cmd.Summary)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		log.Printf("failed to write usage: %v", err)
	}
}

func isHelp(arg string) bool {
	switch arg {
	case "help", "-h", "-help", "--help":
		return true
	default:
		return false
	}
}
