package store

import (
	"context"
	"strings"
)

const questionColumns = `q.id, q.project_id, q.user_id, COALESCE(u.name, ''), q.question, q.created_at`

const responseColumns = `r.id, r.question_id, r.user_id, COALESCE(u.name, ''), r.response, r.created_at`

type QuestionFilter struct {
	ProjectID int64
}

func scanQuestion(row interface{ Scan(...any) error }) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.ProjectID, &q.UserID, &q.UserName, &q.Question, &q.CreatedAt)
	return q, err
}

func scanResponse(row interface{ Scan(...any) error }) (Response, error) {
	var r Response
	err := row.Scan(&r.ID, &r.QuestionID, &r.UserID, &r.UserName, &r.Response, &r.CreatedAt)
	return r, err
}

func (s *Store) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO questions (project_id, user_id, question)
		VALUES (?, ?, ?)
		RETURNING id`),
		q.ProjectID, q.UserID, strings.TrimSpace(q.Question),
	).Scan(&id)
	if err != nil {
		return Question{}, translate(err)
	}
	return s.GetQuestion(ctx, id)
}

// GetQuestion returns the question together with its responses, oldest first.
func (s *Store) GetQuestion(ctx context.Context, id int64) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+questionColumns+`
		FROM questions q LEFT JOIN users u ON u.id = q.user_id
		WHERE q.id = ?`), id))
	if err != nil {
		return Question{}, translate(err)
	}

	q.Responses, err = s.ListResponses(ctx, id)
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, f QuestionFilter) ([]Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions q LEFT JOIN users u ON u.id = q.user_id`
	args := []any{}
	if f.ProjectID > 0 {
		query += ` WHERE q.project_id = ?`
		args = append(args, f.ProjectID)
	}
	query += ` ORDER BY q.created_at DESC, q.id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) UpdateQuestion(ctx context.Context, id int64, text string) (Question, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE questions SET question = ? WHERE id = ?`), strings.TrimSpace(text), id)
	if err != nil {
		return Question{}, translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Question{}, ErrNotFound
	}
	return s.GetQuestion(ctx, id)
}

// DeleteQuestion removes the question and, by cascade, its responses.
func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM questions WHERE id = ?`), id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CreateResponse(ctx context.Context, r Response) (Response, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO responses (question_id, user_id, response)
		VALUES (?, ?, ?)
		RETURNING id`),
		r.QuestionID, r.UserID, strings.TrimSpace(r.Response),
	).Scan(&id)
	if err != nil {
		return Response{}, translate(err)
	}
	return s.GetResponse(ctx, id)
}

func (s *Store) GetResponse(ctx context.Context, id int64) (Response, error) {
	r, err := scanResponse(s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+responseColumns+`
		FROM responses r LEFT JOIN users u ON u.id = r.user_id
		WHERE r.id = ?`), id))
	return r, translate(err)
}

func (s *Store) ListResponses(ctx context.Context, questionID int64) ([]Response, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+responseColumns+`
		FROM responses r LEFT JOIN users u ON u.id = r.user_id
		WHERE r.question_id = ?
		ORDER BY r.created_at, r.id`), questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Response{}
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateResponse(ctx context.Context, id int64, text string) (Response, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE responses SET response = ? WHERE id = ?`), strings.TrimSpace(text), id)
	if err != nil {
		return Response{}, translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Response{}, ErrNotFound
	}
	return s.GetResponse(ctx, id)
}

func (s *Store) DeleteResponse(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM responses WHERE id = ?`), id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
