package aireport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/counsel/counsel/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const aiReportCols = `id, client_id, session_id, type, content, created_by, generated_at, created_at`

func scanAIReport(row pgx.Row) (*AIReport, error) {
	var rep AIReport
	err := row.Scan(&rep.ID, &rep.ClientID, &rep.SessionID, &rep.Type, &rep.Content,
		&rep.CreatedBy, &rep.GeneratedAt, &rep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	return &rep, err
}

func (r *repoPG) Create(ctx context.Context, rep *AIReport) error {
	rep.ID = uuid.New()
	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = time.Now().UTC()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO ai_report (id, client_id, session_id, type, content, created_by, generated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rep.ID, rep.ClientID, rep.SessionID, rep.Type, rep.Content, rep.CreatedBy, rep.GeneratedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*AIReport, error) {
	return scanAIReport(r.conn(ctx).QueryRow(ctx, `SELECT `+aiReportCols+` FROM ai_report WHERE id = $1`, id))
}

func (r *repoPG) ListByClientAndTypes(ctx context.Context, clientID uuid.UUID, types []string, from, to *time.Time) ([]*AIReport, error) {
	query := `SELECT ` + aiReportCols + ` FROM ai_report WHERE client_id = $1 AND type = ANY($2)`
	args := []interface{}{clientID, types}
	idx := 3

	if from != nil {
		query += fmt.Sprintf(` AND generated_at >= $%d`, idx)
		args = append(args, *from)
		idx++
	}
	if to != nil {
		query += fmt.Sprintf(` AND generated_at <= $%d`, idx)
		args = append(args, *to)
		idx++
	}
	query += ` ORDER BY generated_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAIReports(rows)
}

func (r *repoPG) Latest(ctx context.Context, clientID uuid.UUID, reportType string, n int) ([]*AIReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+aiReportCols+` FROM ai_report
		WHERE client_id = $1 AND type = $2
		ORDER BY generated_at DESC LIMIT $3`, clientID, reportType, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAIReports(rows)
}

func collectAIReports(rows pgx.Rows) ([]*AIReport, error) {
	var items []*AIReport
	for rows.Next() {
		rep, err := scanAIReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	return items, rows.Err()
}
