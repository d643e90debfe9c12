package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nadmax/feedme/internal/registry"
)

// FileRepository keeps the snapshot as a pretty-printed JSON document.
// Writes go through a temp file and rename so a crash never leaves a
// truncated snapshot behind.
type FileRepository struct {
	path string
}

func NewFileRepository(path string) (*FileRepository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("snapshot path is required")
	}
	return &FileRepository{path: path}, nil
}

func (r *FileRepository) Path() string {
	return r.path
}

func (r *FileRepository) Load(ctx context.Context) (registry.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return registry.Snapshot{}, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return registry.Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, r.path)
		}
		return registry.Snapshot{}, err
	}
	defer f.Close()

	var s registry.Snapshot
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return registry.Snapshot{}, fmt.Errorf("%w: %s: %w", ErrSnapshotMalformed, r.path, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return registry.Snapshot{}, fmt.Errorf("%w: %s: trailing content", ErrSnapshotMalformed, r.path)
	}

	return s, nil
}

func (r *FileRepository) Save(ctx context.Context, s registry.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := registry.MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := writeFileAtomic(r.path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}

func (r *FileRepository) Close() error {
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true

	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Sync()
}
