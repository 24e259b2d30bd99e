package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"communeo.org/internal/account"
	"communeo.org/internal/commune"
	"communeo.org/internal/content"
	"communeo.org/internal/report"
)

// Store bundles the Postgres-backed adapters over one connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres with tuned pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle (used by tests with sqlmock).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Content() content.Store     { return &contentStore{db: s.db} }
func (s *Store) Communes() commune.Registry { return &communeStore{db: s.db} }
func (s *Store) Accounts() account.Store    { return &accountStore{db: s.db} }
func (s *Store) Reports() report.Store      { return &reportStore{db: s.db} }

// isUniqueViolation reports a Postgres unique-constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
