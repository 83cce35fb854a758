package audit

import (
	"context"
	"fmt"
	"strings"

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

const entryCols = `id, actor, actor_roles, action, resource_type, client_id, ip_address,
	path, method, status_code, request_id, at, detail`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Actor, &e.ActorRoles, &e.Action, &e.ResourceType,
		&e.ClientID, &e.IPAddress, &e.Path, &e.Method, &e.StatusCode,
		&e.RequestID, &e.At, &e.Detail)
	return &e, err
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, actor, actor_roles, action, resource_type, client_id,
			ip_address, path, method, status_code, request_id, at, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, e.Actor, e.ActorRoles, e.Action, e.ResourceType, e.ClientID,
		e.IPAddress, e.Path, e.Method, e.StatusCode, e.RequestID, e.At, e.Detail)
	return err
}

func (r *repoPG) Search(ctx context.Context, params SearchParams) ([]*Entry, int, error) {
	var conds []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(clause, len(args)))
	}
	if params.Actor != "" {
		add("actor = $%d", params.Actor)
	}
	if params.ClientID != "" {
		add("client_id = $%d", params.ClientID)
	}
	if params.ResourceType != "" {
		add("resource_type = $%d", params.ResourceType)
	}
	if params.Action != "" {
		add("action = $%d", params.Action)
	}
	if params.From != nil {
		add("at >= $%d", *params.From)
	}
	if params.To != nil {
		add("at <= $%d", *params.To)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM audit_log%s ORDER BY at DESC LIMIT $%d OFFSET $%d`,
		entryCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
