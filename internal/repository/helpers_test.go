package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/nadmax/feedme/internal/registry"
	"github.com/nadmax/feedme/internal/task"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 123456789, time.Local)

// sampleRegistry holds one task per tier; the HIGH task is complete.
func sampleRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	r := registry.New(task.DefaultConfig())
	for i, p := range task.Priorities() {
		tsk, err := task.NewTask(fmt.Sprintf("task_%d", i), t0.Add(time.Duration(i+1)*time.Hour), task.DefaultMinSpan,
			task.WithDescription("priority "+p.String()),
			task.WithCreationTime(t0),
			task.WithStart(t0.Add(time.Minute)),
			task.WithPriority(p),
		)
		require.NoError(t, err)
		r.Add(tsk)
	}

	_, err := r.Complete(2)
	require.NoError(t, err)

	return r
}

func requireSameRegistry(t *testing.T, expected *registry.Registry, s registry.Snapshot) {
	t.Helper()

	restored, err := registry.FromSnapshot(s, task.DefaultConfig())
	require.NoError(t, err)
	require.True(t, expected.Equal(restored), "restored registry differs from the saved one")
}
