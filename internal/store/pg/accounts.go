package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"communeo.org/internal/account"
	"communeo.org/internal/ids"
	"communeo.org/internal/scope"
)

type accountStore struct {
	db *sql.DB
}

var _ account.Store = (*accountStore)(nil)

const accountCols = `id, email, password_hash, role, commune_id, commune_name, is_active, session_version, created_at, updated_at`

func (s *accountStore) Create(ctx context.Context, a *account.Account) error {
	if a == nil || account.NormalizeEmail(a.Email) == "" || a.PasswordHash == "" {
		return account.ErrInvalidInput
	}
	if a.ID == "" {
		a.ID = ids.New()
	}
	a.Email = account.NormalizeEmail(a.Email)
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, `
		insert into accounts(id, email, password_hash, role, commune_id, commune_name, is_active, session_version, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, a.ID, a.Email, a.PasswordHash, a.Role.String(), a.CommuneID, a.CommuneName, a.Active, a.SessionVersion, a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return account.ErrAlreadyExists
	}
	return err
}

func (s *accountStore) Find(ctx context.Context, id string) (*account.Account, error) {
	a, err := s.findIn(ctx, "accounts", "id", id, false)
	if errors.Is(err, account.ErrNotFound) {
		return s.findIn(ctx, "legacy_admins", "id", id, true)
	}
	return a, err
}

func (s *accountStore) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	email = account.NormalizeEmail(email)
	a, err := s.findIn(ctx, "accounts", "email", email, false)
	if errors.Is(err, account.ErrNotFound) {
		return s.findIn(ctx, "legacy_admins", "email", email, true)
	}
	return a, err
}

func (s *accountStore) SetActive(ctx context.Context, id string, active bool) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`update accounts set is_active = $2, updated_at = $3 where id = $1`, id, active, now)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	res, err = s.db.ExecContext(ctx,
		`update legacy_admins set is_active = $2, updated_at = $3 where id = $1`, id, active, now)
	if err != nil {
		return err
	}
	return mustAffect(res, account.ErrNotFound)
}

func (s *accountStore) BumpSessionVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx, `
		update accounts set session_version = session_version + 1, updated_at = $2
		where id = $1 returning session_version
	`, id, time.Now().UTC()).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.QueryRowContext(ctx, `
			update legacy_admins set session_version = session_version + 1, updated_at = $2
			where id = $1 returning session_version
		`, id, time.Now().UTC()).Scan(&version)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, account.ErrNotFound
		}
	}
	return version, err
}

func (s *accountStore) findIn(ctx context.Context, table, col, value string, legacy bool) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountCols+` from `+table+` where `+col+` = $1`, value)
	var (
		a    account.Account
		role string
	)
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &role, &a.CommuneID, &a.CommuneName,
		&a.Active, &a.SessionVersion, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	parsed, err := scope.ParseRole(role)
	if err != nil {
		return nil, err
	}
	a.Role = parsed
	a.Legacy = legacy
	return &a, nil
}
