package client

import (
	"context"
	"errors"
	"fmt"

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

const clientCols = `id, counselor_id, first_name, last_name, email, phone, date_of_birth,
	status, pronouns, risk_level, emergency_contact_name, emergency_contact_phone,
	referral_source, intake_notes, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.CounselorID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.DateOfBirth,
		&c.Status, &c.Pronouns, &c.RiskLevel, &c.EmergencyContactName, &c.EmergencyContactPhone,
		&c.ReferralSource, &c.IntakeNotes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	return &c, err
}

func (r *repoPG) Create(ctx context.Context, c *Client) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO client (id, counselor_id, first_name, last_name, email, phone, date_of_birth,
			status, pronouns, risk_level, emergency_contact_name, emergency_contact_phone,
			referral_source, intake_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		c.ID, c.CounselorID, c.FirstName, c.LastName, c.Email, c.Phone, c.DateOfBirth,
		c.Status, c.Pronouns, c.RiskLevel, c.EmergencyContactName, c.EmergencyContactPhone,
		c.ReferralSource, c.IntakeNotes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	return scanClient(r.conn(ctx).QueryRow(ctx, `SELECT `+clientCols+` FROM client WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Client) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE client SET counselor_id=$2, first_name=$3, last_name=$4, email=$5, phone=$6,
			date_of_birth=$7, status=$8, pronouns=$9, risk_level=$10, emergency_contact_name=$11,
			emergency_contact_phone=$12, referral_source=$13, intake_notes=$14, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.CounselorID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.DateOfBirth, c.Status, c.Pronouns, c.RiskLevel, c.EmergencyContactName,
		c.EmergencyContactPhone, c.ReferralSource, c.IntakeNotes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM client WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Client, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM client`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+clientCols+` FROM client ORDER BY last_name, first_name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectClients(rows, total)
}

func (r *repoPG) ListByCounselor(ctx context.Context, counselorID uuid.UUID, limit, offset int) ([]*Client, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM client WHERE counselor_id = $1`, counselorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+clientCols+` FROM client WHERE counselor_id = $1 ORDER BY last_name, first_name LIMIT $2 OFFSET $3`, counselorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectClients(rows, total)
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Client, int, error) {
	query := `SELECT ` + clientCols + ` FROM client WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM client WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["counselor"]; ok {
		query += fmt.Sprintf(` AND counselor_id = $%d`, idx)
		countQuery += fmt.Sprintf(` AND counselor_id = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["name"]; ok {
		query += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d)`, idx, idx)
		countQuery += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d)`, idx, idx)
		args = append(args, "%"+p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectClients(rows, total)
}

func collectClients(rows pgx.Rows, total int) ([]*Client, int, error) {
	var items []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}
