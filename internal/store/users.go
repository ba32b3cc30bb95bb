package store

import (
	"context"
	"strings"
)

const userColumns = `id, name, email, user_type, role, created_at`

type UserFilter struct {
	UserType string
	Role     string
}

type UserUpdate struct {
	Name     *string
	Email    *string
	UserType *string
	Role     *string
}

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.UserType, &u.Role, &u.CreatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	if u.Role == "" {
		u.Role = RoleCollaborator
	}
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO users (name, email, user_type, role)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		strings.TrimSpace(u.Name), strings.ToLower(strings.TrimSpace(u.Email)), u.UserType, u.Role,
	).Scan(&id)
	if err != nil {
		return User{}, translate(err)
	}
	return s.GetUser(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	return s.getUser(ctx, s.db, id)
}

func (s *Store) getUser(ctx context.Context, q querier, id int64) (User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id))
	return u, translate(err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+userColumns+` FROM users WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email)),
	))
	return u, translate(err)
}

func (s *Store) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	where := []string{"1 = 1"}
	args := []any{}
	if f.UserType != "" {
		where = append(where, "user_type = ?")
		args = append(args, strings.ToUpper(f.UserType))
	}
	if f.Role != "" {
		where = append(where, "role = ?")
		args = append(args, strings.ToLower(f.Role))
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT `+userColumns+` FROM users WHERE `+strings.Join(where, " AND ")+` ORDER BY id`),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (User, error) {
	var b setBuilder
	if upd.Name != nil {
		b.add("name", strings.TrimSpace(*upd.Name))
	}
	if upd.Email != nil {
		b.add("email", strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.UserType != nil {
		b.add("user_type", *upd.UserType)
	}
	if upd.Role != nil {
		b.add("role", *upd.Role)
	}
	if b.empty() {
		return User{}, ErrNoFields
	}

	args := append(b.args, id)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET `+b.clause()+` WHERE id = ?`), args...)
	if err != nil {
		return User{}, translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, ErrNotFound
	}
	return s.GetUser(ctx, id)
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
