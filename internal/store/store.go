// Package store is the relational entity store for users, projects, tasks,
// task assignments and the community board.
//
// Queries are written once with '?' placeholders and rebound to '$n' when the
// backend is PostgreSQL. Every task mutation recomputes the parent project's
// derived statuses inside the same transaction, with the project row locked.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	_ "modernc.org/sqlite"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflicting record")
	ErrInvalid  = errors.New("constraint violated")
	ErrNoFields = errors.New("no fields to update")
)

type Options struct {
	Driver string // postgres | sqlite

	// postgres
	Address  string
	User     string
	Password string
	Name     string
	SSLMode  string

	// sqlite
	Path string
}

type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool
	dialect Dialect
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func Open(ctx context.Context, opts Options) (*Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "postgres", "pg":
		return openPostgres(ctx, opts)
	case "sqlite", "sqlite3":
		return OpenSQLite(ctx, opts.Path)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", opts.Driver)
	}
}

func openPostgres(ctx context.Context, opts Options) (*Store, error) {
	sslmode := opts.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	pool, err := pgxpool.New(
		ctx,
		fmt.Sprintf(
			"postgres://%s:%s@%s/%s?sslmode=%s",
			opts.User,
			opts.Password,
			opts.Address,
			opts.Name,
			sslmode,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping the db: %w", err)
	}

	return &Store{
		db:      stdlib.OpenDBFromPool(pool),
		pool:    pool,
		dialect: Postgres,
	}, nil
}

// OpenSQLite opens (creating if needed) a sqlite database file. A single
// connection is kept so that writers never contend.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "tracker.db"
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(on)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping the db: %w", err)
	}

	return &Store{db: db, dialect: SQLite}, nil
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// rebind turns '?' placeholders into '$1..$n' for PostgreSQL.
func (s *Store) rebind(q string) string {
	if s.dialect != Postgres {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 1
	for _, r := range q {
		if r == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// forUpdate is the row-lock suffix; sqlite serialises writers on its own.
func (s *Store) forUpdate() string {
	if s.dialect == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
		case "23514", "22007", "22008":
			return fmt.Errorf("%w: %s", ErrInvalid, pgErr.Message)
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: %s", ErrInvalid, msg)
	}
	return err
}

// setBuilder accumulates "col = ?" fragments for partial updates.
type setBuilder struct {
	sets []string
	args []any
}

func (b *setBuilder) add(col string, v any) {
	b.sets = append(b.sets, col+" = ?")
	b.args = append(b.args, v)
}

func (b *setBuilder) empty() bool {
	return len(b.sets) == 0
}

func (b *setBuilder) clause() string {
	return strings.Join(b.sets, ", ")
}

func nullString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
