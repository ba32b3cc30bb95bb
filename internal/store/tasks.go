package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"kyri56xcaesar/pms-tracker/internal/progress"
	"kyri56xcaesar/pms-tracker/internal/status"
)

const taskColumns = `
	t.id, t.project_id, t.user_id, t.name, t.description,
	COALESCE(CAST(t.start_date AS TEXT), ''), COALESCE(CAST(t.end_date AS TEXT), ''),
	t.status, t.as400_status, t.progress, t.created_at`

type TaskFilter struct {
	ProjectID int64
	UserID    int64
}

type TaskUpdate struct {
	ProjectID   *int64
	UserID      *int64
	ClearUser   bool
	Name        *string
	Description *string
	StartDate   *string
	EndDate     *string
	Status      *status.Status
	AS400Status *status.Status
}

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var (
		t      Task
		userID sql.NullInt64
	)
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&userID,
		&t.Name,
		&t.Description,
		&t.StartDate,
		&t.EndDate,
		&t.Status,
		&t.AS400Status,
		&t.Progress,
		&t.CreatedAt,
	)
	if err != nil {
		return t, err
	}
	if userID.Valid {
		id := userID.Int64
		t.UserID = &id
	}
	if t.Progress == nil {
		t.Progress = progress.Periods{}
	}
	return t, nil
}

func collectTasks(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id int64) (Task, error) {
	return s.getTask(ctx, s.db, id)
}

func (s *Store) getTask(ctx context.Context, q querier, id int64) (Task, error) {
	t, err := scanTask(q.QueryRowContext(ctx, s.rebind(`SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`), id))
	return t, translate(err)
}

func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]Task, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if f.ProjectID > 0 {
		where = append(where, "t.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.UserID > 0 {
		where = append(where, "t.user_id = ?")
		args = append(args, f.UserID)
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+taskColumns+` FROM tasks t WHERE `+strings.Join(where, " AND ")+` ORDER BY t.id`),
		args...,
	)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// CreateTask inserts a task and recomputes the parent project's statuses.
func (s *Store) CreateTask(ctx context.Context, t Task) (Task, error) {
	if t.Status == "" {
		t.Status = status.Pending
	}
	if t.AS400Status == "" {
		t.AS400Status = status.Pending
	}
	prog, err := t.Progress.MarshalJSON()
	if err != nil {
		return Task{}, err
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockProject(ctx, tx, t.ProjectID); err != nil {
			return fmt.Errorf("project %d: %w", t.ProjectID, err)
		}
		err := tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO tasks (project_id, user_id, name, description, start_date, end_date, status, as400_status, progress)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`),
			t.ProjectID, nullInt64(t.UserID), strings.TrimSpace(t.Name), t.Description,
			nullString(t.StartDate), nullString(t.EndDate),
			string(t.Status), string(t.AS400Status), string(prog),
		).Scan(&id)
		if err != nil {
			return translate(err)
		}
		_, _, err = s.recompute(ctx, tx, t.ProjectID)
		return err
	})
	if err != nil {
		return Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UpdateTask applies a partial update. The owning project is recomputed, and
// when the task moves between projects both sides are.
func (s *Store) UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (Task, error) {
	var b setBuilder
	if upd.ProjectID != nil {
		b.add("project_id", *upd.ProjectID)
	}
	if upd.ClearUser {
		b.add("user_id", nil)
	} else if upd.UserID != nil {
		b.add("user_id", *upd.UserID)
	}
	if upd.Name != nil {
		b.add("name", strings.TrimSpace(*upd.Name))
	}
	if upd.Description != nil {
		b.add("description", *upd.Description)
	}
	if upd.StartDate != nil {
		b.add("start_date", nullString(*upd.StartDate))
	}
	if upd.EndDate != nil {
		b.add("end_date", nullString(*upd.EndDate))
	}
	if upd.Status != nil {
		b.add("status", string(*upd.Status))
	}
	if upd.AS400Status != nil {
		b.add("as400_status", string(*upd.AS400Status))
	}
	if b.empty() {
		return Task{}, ErrNoFields
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, err := s.taskProject(ctx, tx, id)
		if err != nil {
			return err
		}

		affected := []int64{projectID}
		if upd.ProjectID != nil && *upd.ProjectID != projectID {
			affected = append(affected, *upd.ProjectID)
			if *upd.ProjectID < projectID {
				affected[0], affected[1] = affected[1], affected[0]
			}
		}
		for _, pid := range affected {
			if err := s.lockProject(ctx, tx, pid); err != nil {
				return fmt.Errorf("project %d: %w", pid, err)
			}
		}

		args := append(b.args, id)
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE tasks SET `+b.clause()+` WHERE id = ?`), args...); err != nil {
			return translate(err)
		}

		for _, pid := range affected {
			if _, _, err := s.recompute(ctx, tx, pid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	return s.GetTask(ctx, id)
}

// SetTrackStatus updates one track status of a task and returns the task and
// the recomputed status of its project on that track.
func (s *Store) SetTrackStatus(ctx context.Context, id int64, tr status.Track, st status.Status) (Task, status.Status, error) {
	if !tr.Valid() {
		return Task{}, "", fmt.Errorf("%w: unknown track %q", ErrInvalid, tr)
	}
	if !st.Valid() {
		return Task{}, "", fmt.Errorf("%w: unknown status %q", ErrInvalid, st)
	}

	var projectStatus status.Status
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, err := s.taskProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.lockProject(ctx, tx, projectID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.rebind(`UPDATE tasks SET `+tr.Column()+` = ? WHERE id = ?`),
			string(st), id,
		); err != nil {
			return translate(err)
		}

		web, as400, err := s.recompute(ctx, tx, projectID)
		if err != nil {
			return err
		}
		projectStatus = web
		if tr == status.AS400 {
			projectStatus = as400
		}
		return nil
	})
	if err != nil {
		return Task{}, "", err
	}

	t, err := s.GetTask(ctx, id)
	return t, projectStatus, err
}

// DeleteTask removes the task and recomputes what remains of its project.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		projectID, err := s.taskProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.lockProject(ctx, tx, projectID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM tasks WHERE id = ?`), id); err != nil {
			return translate(err)
		}
		_, _, err = s.recompute(ctx, tx, projectID)
		return err
	})
}

// SetPeriodValue merges one period value into the task's progress and writes
// the whole mapping back. The task row is locked for the read-modify-write.
func (s *Store) SetPeriodValue(ctx context.Context, taskID int64, index int, value float64) (progress.Periods, error) {
	var merged progress.Periods
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current progress.Periods
		err := tx.QueryRowContext(ctx,
			s.rebind(`SELECT progress FROM tasks WHERE id = ?`+s.forUpdate()), taskID,
		).Scan(&current)
		if err != nil {
			return translate(err)
		}

		merged = current.Set(index, value)
		raw, err := merged.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, s.rebind(`UPDATE tasks SET progress = ? WHERE id = ?`), string(raw), taskID)
		return translate(err)
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Store) taskProject(ctx context.Context, q querier, taskID int64) (int64, error) {
	var projectID int64
	err := q.QueryRowContext(ctx, s.rebind(`SELECT project_id FROM tasks WHERE id = ?`), taskID).Scan(&projectID)
	return projectID, translate(err)
}
