package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/db"
)

type documentRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &documentRepoPG{pool: pool}
}

const documentCols = `id, profile_id, kind, file_name, content_type, size, sha256, storage_key, uploaded_by, created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var kind string
	if err := row.Scan(&d.ID, &d.ProfileID, &kind, &d.FileName, &d.ContentType, &d.Size, &d.SHA256, &d.StorageKey, &d.UploadedBy, &d.CreatedAt); err != nil {
		return nil, err
	}
	d.Kind = Kind(kind)
	return &d, nil
}

func (r *documentRepoPG) Create(ctx context.Context, d *Document) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO case_document (id, profile_id, kind, file_name, content_type, size, sha256, storage_key, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`,
		d.ID, d.ProfileID, string(d.Kind), d.FileName, d.ContentType, d.Size, d.SHA256, d.StorageKey, d.UploadedBy).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert case document: %w", err)
	}
	return nil
}

func (r *documentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Document, error) {
	d, err := scanDocument(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+documentCols+` FROM case_document WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound(msgNotFound)
		}
		return nil, fmt.Errorf("get case document: %w", err)
	}
	return d, nil
}

func (r *documentRepoPG) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*Document, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+documentCols+` FROM case_document WHERE profile_id = $1 ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list case documents: %w", err)
	}
	defer rows.Close()

	items := []*Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case document: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *documentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM case_document WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgNotFound)
	}
	return nil
}
