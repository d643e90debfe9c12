package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/nadmax/feedme/internal/registry"
	"github.com/nadmax/feedme/internal/task"
)

const schema = `
	CREATE TABLE IF NOT EXISTS feedme_tasks (
		position      INTEGER PRIMARY KEY,
		task_id       TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		creation_time TIMESTAMPTZ NOT NULL,
		start_time    TIMESTAMPTZ NOT NULL,
		deadline      TIMESTAMPTZ NOT NULL,
		priority      TEXT NOT NULL,
		status        TEXT NOT NULL
	)
`

// PostgresRepository stores one row per task, ordered by position.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(connectionString string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *PostgresRepository) Load(ctx context.Context) (registry.Snapshot, error) {
	query := `
		SELECT
			task_id, name, description, creation_time,
			start_time, deadline, priority, status
		FROM feedme_tasks
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return registry.Snapshot{}, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	records := []task.Record{}
	for rows.Next() {
		var rec task.Record
		var created, start, deadline time.Time
		var priority, status string

		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Description,
			&created,
			&start,
			&deadline,
			&priority,
			&status,
		); err != nil {
			return registry.Snapshot{}, err
		}

		if rec.Priority, err = task.ParsePriority(priority); err != nil {
			return registry.Snapshot{}, fmt.Errorf("%w: task %s: %w", ErrSnapshotMalformed, rec.ID, err)
		}
		if rec.Status, err = task.ParseStatus(status); err != nil {
			return registry.Snapshot{}, fmt.Errorf("%w: task %s: %w", ErrSnapshotMalformed, rec.ID, err)
		}
		rec.CreationTime = task.Timestamp(created.Local())
		rec.Start = task.Timestamp(start.Local())
		rec.Deadline = task.Timestamp(deadline.Local())

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return registry.Snapshot{}, err
	}

	return registry.Snapshot{Tasks: records}, nil
}

// Save replaces every stored row with the snapshot inside one transaction.
func (r *PostgresRepository) Save(ctx context.Context, s registry.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("failed to rollback transaction: %v", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feedme_tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}

	query := `
		INSERT INTO feedme_tasks (
			position, task_id, name, description,
			creation_time, start_time, deadline, priority, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for i, rec := range s.Tasks {
		if _, err := tx.ExecContext(
			ctx,
			query,
			i,
			rec.ID,
			rec.Name,
			rec.Description,
			time.Time(rec.CreationTime),
			time.Time(rec.Start),
			time.Time(rec.Deadline),
			rec.Priority.String(),
			string(rec.Status),
		); err != nil {
			return fmt.Errorf("failed to insert task %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
