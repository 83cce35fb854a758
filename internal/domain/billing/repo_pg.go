package billing

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

const invoiceCols = `id, client_id, number, description, amount_cents, currency, status,
	pdf_blob_id, payment_link_id, payment_link_url, issued_at, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.Number, &inv.Description, &inv.AmountCents,
		&inv.Currency, &inv.Status, &inv.PDFBlobID, &inv.PaymentLinkID, &inv.PaymentLinkURL,
		&inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	return &inv, err
}

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice (id, client_id, number, description, amount_cents, currency, status,
			pdf_blob_id, payment_link_id, payment_link_url, issued_at, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		inv.ID, inv.ClientID, inv.Number, inv.Description, inv.AmountCents, inv.Currency,
		inv.Status, inv.PDFBlobID, inv.PaymentLinkID, inv.PaymentLinkURL, inv.IssuedAt, inv.PaidAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoice WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, inv *Invoice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET description=$2, amount_cents=$3, currency=$4, status=$5,
			pdf_blob_id=$6, payment_link_id=$7, payment_link_url=$8, issued_at=$9,
			paid_at=$10, updated_at=NOW()
		WHERE id = $1`,
		inv.ID, inv.Description, inv.AmountCents, inv.Currency, inv.Status,
		inv.PDFBlobID, inv.PaymentLinkID, inv.PaymentLinkURL, inv.IssuedAt, inv.PaidAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *repoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoice WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+invoiceCols+` FROM invoice
		WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectInvoices(rows, total)
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*Invoice, int, error) {
	query := `SELECT ` + invoiceCols + ` FROM invoice WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM invoice WHERE 1=1`
	var args []interface{}
	idx := 1

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectInvoices(rows, total)
}

func (r *repoPG) NextNumber(ctx context.Context, year int) (string, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoice WHERE number LIKE $1`, fmt.Sprintf("INV-%d-%%", year)).Scan(&count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%06d", year, count+1), nil
}

func collectInvoices(rows pgx.Rows, total int) ([]*Invoice, int, error) {
	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
	}
	return items, total, rows.Err()
}
