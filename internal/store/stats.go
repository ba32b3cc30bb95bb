package store

import (
	"context"
	"fmt"

	"kyri56xcaesar/pms-tracker/internal/status"
)

// TrackTask is one task as seen from a single track.
type TrackTask struct {
	TaskID   int64         `json:"task_id"`
	TaskName string        `json:"task_name"`
	Status   status.Status `json:"status"`
}

// UserTrackTasks groups the tasks of one user on one track.
type UserTrackTasks struct {
	UserID   int64       `json:"user_id"`
	UserName string      `json:"user_name"`
	Tasks    []TrackTask `json:"tasks"`
}

type CollaboratorStat struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	UserType     string `json:"user_type"`
	TaskCount    int    `json:"task_count"`
	ProjectCount int    `json:"project_count"`
}

type CollaboratorTasks struct {
	UserID   int64       `json:"user_id"`
	UserName string      `json:"user_name"`
	UserType string      `json:"user_type"`
	Tasks    []TrackTask `json:"tasks"`
}

type ProjectStats struct {
	TotalProjects int `json:"totalProjects"`
	TotalTasks    int `json:"totalTasks"`
	TotalUsers    int `json:"totalUsers"`
	TotalWeb      int `json:"totalWeb"`
}

type UserStats struct {
	UserID         int64 `json:"user_id"`
	TotalTasks     int   `json:"totalTasks"`
	TotalQuestions int   `json:"totalQuestions"`
	TotalResponses int   `json:"totalResponses"`
}

// assignedTo matches tasks where the user holds either assignment slot.
const assignedTo = `t.id IN (
	SELECT a.task_id FROM task_assignments a
	WHERE a.as400_user_id = ? OR a.web_user_id = ?)`

// TasksForUser lists every task the user is assigned to through either slot,
// each task once.
func (s *Store) TasksForUser(ctx context.Context, userID int64) ([]Task, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+taskColumns+` FROM tasks t WHERE `+assignedTo+` ORDER BY t.id`),
		userID, userID,
	)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// TrackBreakdown groups every (user, task) assignment pair by user for the
// given track, reporting the task status of that track.
func (s *Store) TrackBreakdown(ctx context.Context, tr status.Track) ([]UserTrackTasks, error) {
	if !tr.Valid() {
		return nil, fmt.Errorf("%w: unknown track %q", ErrInvalid, tr)
	}
	slot := "a.web_user_id"
	if tr == status.AS400 {
		slot = "a.as400_user_id"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT u.id, u.name, t.id, t.name, t.`+tr.Column()+`
		FROM task_assignments a
		JOIN users u ON u.id = `+slot+`
		JOIN tasks t ON t.id = a.task_id
		ORDER BY u.id, t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []UserTrackTasks{}
	for rows.Next() {
		var (
			uid  int64
			name string
			tt   TrackTask
		)
		if err := rows.Scan(&uid, &name, &tt.TaskID, &tt.TaskName, &tt.Status); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].UserID != uid {
			out = append(out, UserTrackTasks{UserID: uid, UserName: name, Tasks: []TrackTask{}})
		}
		last := &out[len(out)-1]
		last.Tasks = append(last.Tasks, tt)
	}
	return out, rows.Err()
}

// CollaboratorStats counts, per collaborator, the distinct tasks they are
// assigned to (either slot) and the distinct projects holding a task they own
// directly through tasks.user_id.
func (s *Store) CollaboratorStats(ctx context.Context) ([]CollaboratorStat, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT u.id, u.name, u.email, u.user_type,
			(SELECT COUNT(DISTINCT a.task_id) FROM task_assignments a
				WHERE a.as400_user_id = u.id OR a.web_user_id = u.id),
			(SELECT COUNT(DISTINCT t.project_id) FROM tasks t
				WHERE t.user_id = u.id)
		FROM users u
		WHERE u.role = ?
		ORDER BY u.id`), RoleCollaborator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CollaboratorStat{}
	for rows.Next() {
		var c CollaboratorStat
		if err := rows.Scan(&c.UserID, &c.Name, &c.Email, &c.UserType, &c.TaskCount, &c.ProjectCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CollaboratorTasks lists each collaborator with the tasks assigned to them.
// Collaborators without assignments are included with an empty list.
func (s *Store) CollaboratorTasks(ctx context.Context) ([]CollaboratorTasks, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT DISTINCT u.id, u.name, u.user_type, t.id, t.name, t.status, t.as400_status
		FROM users u
		LEFT JOIN task_assignments a ON a.as400_user_id = u.id OR a.web_user_id = u.id
		LEFT JOIN tasks t ON t.id = a.task_id
		WHERE u.role = ?
		ORDER BY u.id, t.id`), RoleCollaborator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CollaboratorTasks{}
	for rows.Next() {
		var (
			uid                int64
			name, userType     string
			taskID             *int64
			taskName           *string
			webStat, as400Stat *string
		)
		if err := rows.Scan(&uid, &name, &userType, &taskID, &taskName, &webStat, &as400Stat); err != nil {
			return nil, err
		}
		if n := len(out); n == 0 || out[n-1].UserID != uid {
			out = append(out, CollaboratorTasks{UserID: uid, UserName: name, UserType: userType, Tasks: []TrackTask{}})
		}
		if taskID == nil {
			continue
		}

		// the track a collaborator works on follows their user type
		st := *webStat
		if userType == UserTypeAS400 {
			st = *as400Stat
		}
		last := &out[len(out)-1]
		last.Tasks = append(last.Tasks, TrackTask{TaskID: *taskID, TaskName: *taskName, Status: status.Status(st)})
	}
	return out, rows.Err()
}

func (s *Store) ProjectStats(ctx context.Context) (ProjectStats, error) {
	var ps ProjectStats
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT
			(SELECT COUNT(*) FROM projects),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM users WHERE user_type = ?),
			(SELECT COUNT(*) FROM users WHERE user_type = ? AND role = ?)`),
		UserTypeAS400, UserTypeWeb, RoleCollaborator,
	).Scan(&ps.TotalProjects, &ps.TotalTasks, &ps.TotalUsers, &ps.TotalWeb)
	return ps, err
}

// UserStats summarises one user's activity: assigned tasks and authored
// questions and responses.
func (s *Store) UserStats(ctx context.Context, userID int64) (UserStats, error) {
	us := UserStats{UserID: userID}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT
			(SELECT COUNT(*) FROM tasks t WHERE `+assignedTo+`),
			(SELECT COUNT(*) FROM questions WHERE user_id = ?),
			(SELECT COUNT(*) FROM responses WHERE user_id = ?)`),
		userID, userID, userID, userID,
	).Scan(&us.TotalTasks, &us.TotalQuestions, &us.TotalResponses)
	return us, err
}
