package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	"communeo.org/internal/content"
	"communeo.org/internal/scope"
)

type contentStore struct {
	db *sql.DB
}

var _ content.Store = (*contentStore)(nil)

const contentCols = `id, kind, title, body, media_url, visibility, commune_id, audience_communes, priority, start_at, end_at, author_id, author_email, created_at, updated_at`

func (s *contentStore) Insert(ctx context.Context, it *content.Item) error {
	audience, err := json.Marshal(audienceOrEmpty(it.Audience))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into content_items(id, kind, title, body, media_url, visibility, commune_id, audience_communes, priority, start_at, end_at, author_id, author_email, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, it.ID, string(it.Kind), it.Title, it.Body, it.MediaURL, string(it.Visibility), it.CommuneID,
		audience, string(it.Priority), it.StartAt, it.EndAt, it.AuthorID, it.AuthorEmail, it.CreatedAt, it.UpdatedAt)
	return err
}

func (s *contentStore) Find(ctx context.Context, kind content.Kind, id string) (*content.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+contentCols+` from content_items where kind = $1 and id = $2`,
		string(kind), id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, content.ErrNotFound
	}
	return it, err
}

func (s *contentStore) Update(ctx context.Context, it *content.Item) error {
	audience, err := json.Marshal(audienceOrEmpty(it.Audience))
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		update content_items
		set title=$3, body=$4, media_url=$5, visibility=$6, commune_id=$7, audience_communes=$8,
		    priority=$9, start_at=$10, end_at=$11, updated_at=$12
		where kind=$1 and id=$2
	`, string(it.Kind), it.ID, it.Title, it.Body, it.MediaURL, string(it.Visibility), it.CommuneID,
		audience, string(it.Priority), it.StartAt, it.EndAt, it.UpdatedAt)
	if err != nil {
		return err
	}
	return mustAffect(res, content.ErrNotFound)
}

func (s *contentStore) Delete(ctx context.Context, kind content.Kind, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from content_items where kind = $1 and id = $2`, string(kind), id)
	if err != nil {
		return err
	}
	return mustAffect(res, content.ErrNotFound)
}

func (s *contentStore) Select(ctx context.Context, kind content.Kind, p scope.Pred, limit int) ([]*content.Item, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	expr, args := renderPred(p, contentColumns, 1)
	query := `select ` + contentCols + ` from content_items where kind = $1 and ` + expr + `
		order by case priority when 'urgent' then 0 when 'pinned' then 1 else 2 end, created_at desc
		limit $` + strconv.Itoa(len(args)+2)
	queryArgs := append([]any{string(kind)}, args...)
	queryArgs = append(queryArgs, limit)

	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*content.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*content.Item, error) {
	var (
		it       content.Item
		kind     string
		vis      string
		priority string
		audience []byte
		startAt  sql.NullTime
		endAt    sql.NullTime
	)
	if err := row.Scan(&it.ID, &kind, &it.Title, &it.Body, &it.MediaURL, &vis, &it.CommuneID,
		&audience, &priority, &startAt, &endAt, &it.AuthorID, &it.AuthorEmail, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Kind = content.Kind(kind)
	it.Visibility = scope.Visibility(vis)
	it.Priority = content.Priority(priority)
	if len(audience) > 0 {
		var members []string
		if err := json.Unmarshal(audience, &members); err != nil {
			return nil, err
		}
		if len(members) > 0 {
			it.Audience = members
		}
	}
	if startAt.Valid {
		t := startAt.Time
		it.StartAt = &t
	}
	if endAt.Valid {
		t := endAt.Time
		it.EndAt = &t
	}
	return &it, nil
}

func audienceOrEmpty(members []string) []string {
	if members == nil {
		return []string{}
	}
	return members
}

func mustAffect(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}
