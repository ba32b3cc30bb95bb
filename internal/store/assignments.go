package store

import "context"

// UpsertAssignment records that webUserID pairs with as400UserID on the task.
// An existing row for the same (task, AS400 user) has its web user replaced;
// pairings of other AS400 users on the task are left alone.
func (s *Store) UpsertAssignment(ctx context.Context, taskID, as400UserID, webUserID int64) (Assignment, error) {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO task_assignments (task_id, as400_user_id, web_user_id, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (task_id, as400_user_id)
		DO UPDATE SET web_user_id = excluded.web_user_id, updated_at = CURRENT_TIMESTAMP`),
		taskID, as400UserID, webUserID,
	)
	if err != nil {
		return Assignment{}, translate(err)
	}
	return s.GetAssignment(ctx, taskID, as400UserID)
}

func (s *Store) GetAssignment(ctx context.Context, taskID, as400UserID int64) (Assignment, error) {
	var a Assignment
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT task_id, as400_user_id, web_user_id, updated_at
		FROM task_assignments
		WHERE task_id = ? AND as400_user_id = ?`),
		taskID, as400UserID,
	).Scan(&a.TaskID, &a.AS400UserID, &a.WebUserID, &a.UpdatedAt)
	return a, translate(err)
}

func (s *Store) ListAssignments(ctx context.Context, taskID int64) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT task_id, as400_user_id, web_user_id, updated_at
		FROM task_assignments
		WHERE task_id = ?
		ORDER BY as400_user_id`),
		taskID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.TaskID, &a.AS400UserID, &a.WebUserID, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
