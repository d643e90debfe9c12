package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/nadmax/feedme/internal/registry"
	"github.com/nadmax/feedme/internal/task"
)

// MockRepository is an in-memory SnapshotRepository that records calls and
// returns injected errors.
type MockRepository struct {
	mu         sync.Mutex
	LoadCalls  int
	SaveCalls  []registry.Snapshot
	CloseCalls int
	Stored     *registry.Snapshot
	LoadError  error
	SaveError  error
	CloseError error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// NewMockRepositoryWith returns a mock already holding s.
func NewMockRepositoryWith(s registry.Snapshot) *MockRepository {
	m := NewMockRepository()
	stored := copySnapshot(s)
	m.Stored = &stored
	return m
}

func (m *MockRepository) Load(ctx context.Context) (registry.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LoadCalls++

	if m.LoadError != nil {
		return registry.Snapshot{}, m.LoadError
	}

	if m.Stored == nil {
		return registry.Snapshot{}, fmt.Errorf("%w: mock", ErrSnapshotNotFound)
	}

	return copySnapshot(*m.Stored), nil
}

func (m *MockRepository) Save(ctx context.Context, s registry.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, copySnapshot(s))

	if m.SaveError != nil {
		return m.SaveError
	}

	stored := copySnapshot(s)
	m.Stored = &stored
	return nil
}

func (m *MockRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CloseCalls++
	return m.CloseError
}

func (m *MockRepository) GetSaveCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.SaveCalls)
}

// Snapshot returns the last successfully saved snapshot.
func (m *MockRepository) Snapshot() (registry.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Stored == nil {
		return registry.Snapshot{}, false
	}
	return copySnapshot(*m.Stored), true
}

func copySnapshot(s registry.Snapshot) registry.Snapshot {
	return registry.Snapshot{Tasks: append([]task.Record{}, s.Tasks...)}
}
