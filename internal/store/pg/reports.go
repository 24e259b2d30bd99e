package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"communeo.org/internal/report"
)

type reportStore struct {
	db *sql.DB
}

var _ report.Store = (*reportStore)(nil)

const reportCols = `id, commune_id, category, description, media_url, status, reporter_id, reporter_email, created_at, updated_at`

func (s *reportStore) Insert(ctx context.Context, r *report.Report) error {
	_, err := s.db.ExecContext(ctx, `
		insert into incident_reports(id, commune_id, category, description, media_url, status, reporter_id, reporter_email, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, r.ID, r.CommuneID, r.Category, r.Description, r.MediaURL, string(r.Status),
		r.ReporterID, r.ReporterEmail, r.CreatedAt, r.UpdatedAt)
	return err
}

func (s *reportStore) Find(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+reportCols+` from incident_reports where id = $1`, id)
	return scanReport(row)
}

func (s *reportStore) SetStatus(ctx context.Context, id string, status report.Status, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update incident_reports set status = $2, updated_at = $3 where id = $1`,
		id, string(status), at)
	if err != nil {
		return err
	}
	return mustAffect(res, report.ErrNotFound)
}

func (s *reportStore) List(ctx context.Context, keys []string, limit int) ([]*report.Report, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := `select ` + reportCols + ` from incident_reports`
	args := []any{}
	if keys != nil {
		if len(keys) == 0 {
			return nil, nil
		}
		ph := make([]string, 0, len(keys))
		for _, k := range keys {
			args = append(args, k)
			ph = append(ph, "$"+strconv.Itoa(len(args)))
		}
		query += ` where commune_id in (` + strings.Join(ph, ", ") + `)`
	}
	args = append(args, limit)
	query += ` order by created_at desc limit $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*report.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func scanReport(row rowScanner) (*report.Report, error) {
	var (
		r      report.Report
		status string
	)
	err := row.Scan(&r.ID, &r.CommuneID, &r.Category, &r.Description, &r.MediaURL, &status,
		&r.ReporterID, &r.ReporterEmail, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Status = report.Status(status)
	return &r, nil
}
