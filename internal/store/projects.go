package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"kyri56xcaesar/pms-tracker/internal/status"
)

const projectColumns = `
	p.id, p.name, p.description, p.techno,
	COALESCE(CAST(p.start_date AS TEXT), ''), COALESCE(CAST(p.end_date AS TEXT), ''),
	p.status, p.as400_status, p.user_id, p.created_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)`

type ProjectUpdate struct {
	Name        *string
	Description *string
	Techno      *string
	StartDate   *string
	EndDate     *string
	UserID      *int64
}

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var p Project
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Techno,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.AS400Status,
		&p.UserID,
		&p.CreatedAt,
		&p.TaskCount,
	)
	return p, err
}

// CreateProject inserts a project; both derived statuses start as pending.
func (s *Store) CreateProject(ctx context.Context, p Project) (Project, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO projects (name, description, techno, start_date, end_date, status, as400_status, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		strings.TrimSpace(p.Name), p.Description, p.Techno,
		nullString(p.StartDate), nullString(p.EndDate),
		string(status.Pending), string(status.Pending), p.UserID,
	).Scan(&id)
	if err != nil {
		return Project{}, translate(err)
	}
	return s.GetProject(ctx, id)
}

func (s *Store) GetProject(ctx context.Context, id int64) (Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`), id))
	return p, translate(err)
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects p ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProject applies the given fields and recomputes the derived statuses
// in the same transaction.
func (s *Store) UpdateProject(ctx context.Context, id int64, upd ProjectUpdate) (Project, error) {
	var b setBuilder
	if upd.Name != nil {
		b.add("name", strings.TrimSpace(*upd.Name))
	}
	if upd.Description != nil {
		b.add("description", *upd.Description)
	}
	if upd.Techno != nil {
		b.add("techno", *upd.Techno)
	}
	if upd.StartDate != nil {
		b.add("start_date", nullString(*upd.StartDate))
	}
	if upd.EndDate != nil {
		b.add("end_date", nullString(*upd.EndDate))
	}
	if upd.UserID != nil {
		b.add("user_id", *upd.UserID)
	}
	if b.empty() {
		return Project{}, ErrNoFields
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockProject(ctx, tx, id); err != nil {
			return err
		}
		args := append(b.args, id)
		if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE projects SET `+b.clause()+` WHERE id = ?`), args...); err != nil {
			return translate(err)
		}
		_, _, err := s.recompute(ctx, tx, id)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes the project together with its tasks and questions.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecomputeProject re-derives both track statuses of a project from its tasks
// and persists them.
func (s *Store) RecomputeProject(ctx context.Context, id int64) (web, as400 status.Status, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.lockProject(ctx, tx, id); err != nil {
			return err
		}
		web, as400, err = s.recompute(ctx, tx, id)
		return err
	})
	return web, as400, err
}

// lockProject takes the row lock that serialises every status recompute of a project.
func (s *Store) lockProject(ctx context.Context, q querier, id int64) error {
	var got int64
	err := q.QueryRowContext(ctx, s.rebind(`SELECT id FROM projects WHERE id = ?`+s.forUpdate()), id).Scan(&got)
	return translate(err)
}

// recompute must run with the project row locked.
func (s *Store) recompute(ctx context.Context, q querier, projectID int64) (status.Status, status.Status, error) {
	rows, err := q.QueryContext(ctx, s.rebind(`SELECT status, as400_status FROM tasks WHERE project_id = ?`), projectID)
	if err != nil {
		return "", "", err
	}

	var webStatuses, as400Statuses []status.Status
	for rows.Next() {
		var w, a status.Status
		if err := rows.Scan(&w, &a); err != nil {
			rows.Close()
			return "", "", err
		}
		webStatuses = append(webStatuses, w)
		as400Statuses = append(as400Statuses, a)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return "", "", err
	}
	rows.Close()

	web := status.Aggregate(webStatuses)
	as400 := status.Aggregate(as400Statuses)

	res, err := q.ExecContext(ctx,
		s.rebind(`UPDATE projects SET status = ?, as400_status = ? WHERE id = ?`),
		string(web), string(as400), projectID,
	)
	if err != nil {
		return "", "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", "", fmt.Errorf("recompute project %d: %w", projectID, ErrNotFound)
	}
	return web, as400, nil
}
