package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"communeo.org/internal/commune"
	"communeo.org/internal/ids"
)

type communeStore struct {
	db *sql.DB
}

var _ commune.Registry = (*communeStore)(nil)

const communeCols = `id, name, slug, code, region, alt_names, is_active, created_at, updated_at`

func (s *communeStore) Create(ctx context.Context, c *commune.Commune) error {
	if c == nil || strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Slug) == "" {
		return commune.ErrInvalidInput
	}
	if c.ID == "" {
		c.ID = ids.New()
	}
	c.Slug = commune.Normalize(c.Slug)
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	altNames, err := json.Marshal(append([]string{}, c.AltNames...))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into communes(id, name, slug, code, region, alt_names, is_active, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, c.ID, c.Name, c.Slug, c.Code, c.Region, altNames, c.Active, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return commune.ErrAlreadyExists
	}
	return err
}

func (s *communeStore) FindByID(ctx context.Context, id string) (*commune.Commune, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+communeCols+` from communes where id = $1`, id)
	return scanCommune(row)
}

// FindByReference resolves a normalized human reference with the fixed
// priority slug > code > name > alternate names.
func (s *communeStore) FindByReference(ctx context.Context, ref string) (*commune.Commune, error) {
	ref = commune.Normalize(ref)
	if ref == "" {
		return nil, commune.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx, `
		select `+communeCols+` from communes
		where slug = $1
		   or lower(code) = $1
		   or lower(name) = $1
		   or exists (select 1 from jsonb_array_elements_text(alt_names) alt where lower(alt) = $1)
		order by (slug = $1) desc, (lower(code) = $1) desc, (lower(name) = $1) desc
		limit 1
	`, ref)
	return scanCommune(row)
}

func (s *communeStore) List(ctx context.Context) ([]*commune.Commune, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+communeCols+` from communes order by name asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*commune.Commune
	for rows.Next() {
		c, err := scanCommune(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (s *communeStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from communes where id = $1`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, commune.ErrNotFound)
}

func scanCommune(row rowScanner) (*commune.Commune, error) {
	var (
		c        commune.Commune
		altNames []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Code, &c.Region, &altNames, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, commune.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(altNames) > 0 {
		var names []string
		if err := json.Unmarshal(altNames, &names); err != nil {
			return nil, err
		}
		if len(names) > 0 {
			c.AltNames = names
		}
	}
	return &c, nil
}
