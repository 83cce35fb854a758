package session

import (
	"context"
	"errors"
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

const sessionCols = `id, client_id, counselor_id, scheduled_at, duration_minutes,
	session_type, location, status, mood_rating, notes, ai_content, created_at, updated_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.ClientID, &s.CounselorID, &s.ScheduledAt, &s.DurationMinutes,
		&s.SessionType, &s.Location, &s.Status, &s.MoodRating, &s.Notes, &s.AIContent, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO counseling_session (id, client_id, counselor_id, scheduled_at, duration_minutes,
			session_type, location, status, mood_rating, notes, ai_content)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		s.ID, s.ClientID, s.CounselorID, s.ScheduledAt, s.DurationMinutes,
		s.SessionType, s.Location, s.Status, s.MoodRating, s.Notes, s.AIContent)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	return scanSession(r.conn(ctx).QueryRow(ctx, `SELECT `+sessionCols+` FROM counseling_session WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *Session) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE counseling_session SET scheduled_at=$2, duration_minutes=$3, session_type=$4,
			location=$5, status=$6, mood_rating=$7, notes=$8, ai_content=$9, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.ScheduledAt, s.DurationMinutes, s.SessionType,
		s.Location, s.Status, s.MoodRating, s.Notes, s.AIContent)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM counseling_session WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *repoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Session, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM counseling_session WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+sessionCols+` FROM counseling_session WHERE client_id = $1 ORDER BY scheduled_at DESC LIMIT $2 OFFSET $3`, clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByCounselor(ctx context.Context, counselorID uuid.UUID, from, to time.Time) ([]*Session, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sessionCols+` FROM counseling_session
		WHERE counselor_id = $1 AND scheduled_at >= $2 AND scheduled_at <= $3
		ORDER BY scheduled_at`, counselorID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *repoPG) ListByClientInWindow(ctx context.Context, clientID uuid.UUID, from, to time.Time) ([]*Session, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sessionCols+` FROM counseling_session
		WHERE client_id = $1 AND scheduled_at >= $2 AND scheduled_at <= $3
		ORDER BY scheduled_at`, clientID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]*Session, error) {
	var items []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
