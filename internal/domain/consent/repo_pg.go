package consent

import (
	"context"
	"errors"

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

const formCols = `id, client_id, template_name, title, body, status, signature_token,
	token_expires_at, signed_at, signer_name, signer_ip, snapshot_blob_id,
	created_by, created_at, updated_at`

func scanForm(row pgx.Row) (*Form, error) {
	var f Form
	err := row.Scan(&f.ID, &f.ClientID, &f.TemplateName, &f.Title, &f.Body, &f.Status,
		&f.SignatureToken, &f.TokenExpiresAt, &f.SignedAt, &f.SignerName, &f.SignerIP,
		&f.SnapshotBlobID, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConsentNotFound
	}
	return &f, err
}

func (r *repoPG) Create(ctx context.Context, f *Form) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consent_form (id, client_id, template_name, title, body, status,
			signature_token, token_expires_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		f.ID, f.ClientID, f.TemplateName, f.Title, f.Body, f.Status,
		f.SignatureToken, f.TokenExpiresAt, f.CreatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Form, error) {
	return scanForm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+formCols+` FROM consent_form WHERE id = $1`, id))
}

func (r *repoPG) GetByToken(ctx context.Context, token string) (*Form, error) {
	return scanForm(r.conn(ctx).QueryRow(ctx,
		`SELECT `+formCols+` FROM consent_form WHERE signature_token = $1`, token))
}

func (r *repoPG) Update(ctx context.Context, f *Form) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE consent_form SET status=$2, signed_at=$3, signer_name=$4, signer_ip=$5,
			snapshot_blob_id=$6, updated_at=NOW()
		WHERE id = $1`,
		f.ID, f.Status, f.SignedAt, f.SignerName, f.SignerIP, f.SnapshotBlobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConsentNotFound
	}
	return nil
}

func (r *repoPG) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*Form, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+formCols+` FROM consent_form WHERE client_id = $1 ORDER BY created_at DESC`,
		clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []*Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}
