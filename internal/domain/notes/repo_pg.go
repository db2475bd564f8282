package notes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/db"
)

type noteRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &noteRepoPG{pool: pool}
}

const noteCols = `id, kind, profile_id, account_id, author_id, author_name, body, created_at, updated_at`

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	var kind string
	err := row.Scan(&n.ID, &kind, &n.ProfileID, &n.AccountID, &n.AuthorID, &n.AuthorName, &n.Body, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.Kind = Kind(kind)
	return &n, nil
}

func (r *noteRepoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO note (id, kind, profile_id, account_id, author_id, author_name, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		n.ID, string(n.Kind), n.ProfileID, n.AccountID, n.AuthorID, n.AuthorName, n.Body).Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *noteRepoPG) GetByID(ctx context.Context, kind Kind, id uuid.UUID) (*Note, error) {
	n, err := scanNote(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+noteCols+` FROM note WHERE id = $1 AND kind = $2`, id, string(kind)))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound(notFound(kind))
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (r *noteRepoPG) Update(ctx context.Context, n *Note) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE note SET body = $3, updated_at = NOW()
		WHERE id = $1 AND kind = $2
		RETURNING updated_at`,
		n.ID, string(n.Kind), n.Body).Scan(&n.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return apperr.NotFound(notFound(n.Kind))
		}
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

func (r *noteRepoPG) Delete(ctx context.Context, kind Kind, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM note WHERE id = $1 AND kind = $2`, id, string(kind))
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(notFound(kind))
	}
	return nil
}

func (r *noteRepoPG) ListByProfile(ctx context.Context, kind Kind, profileID uuid.UUID) ([]*Note, error) {
	return r.list(ctx, `SELECT `+noteCols+` FROM note WHERE profile_id = $1 AND kind = $2 ORDER BY created_at`, profileID, kind)
}

func (r *noteRepoPG) ListByAccount(ctx context.Context, kind Kind, accountID uuid.UUID) ([]*Note, error) {
	return r.list(ctx, `SELECT `+noteCols+` FROM note WHERE account_id = $1 AND kind = $2 ORDER BY created_at`, accountID, kind)
}

func (r *noteRepoPG) list(ctx context.Context, query string, owner uuid.UUID, kind Kind) ([]*Note, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, owner, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	items := []*Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
