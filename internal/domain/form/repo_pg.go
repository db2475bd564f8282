package form

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/db"
)

type formRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &formRepoPG{pool: pool}
}

const documentCols = `profile_id, fields, version, editable, last_step, submitted_at, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	var raw []byte
	err := row.Scan(&d.ProfileID, &raw, &d.Version, &d.Editable, &d.LastStep, &d.SubmittedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound(MsgNotFound)
		}
		return nil, fmt.Errorf("scan form document: %w", err)
	}
	d.Fields = map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.Fields); err != nil {
			return nil, fmt.Errorf("decode form fields: %w", err)
		}
	}
	return &d, nil
}

func (r *formRepoPG) GetOrCreate(ctx context.Context, profileID uuid.UUID) (*Document, error) {
	var doc *Document
	err := db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		if _, err := q.Exec(ctx, `
			INSERT INTO form_document (profile_id) VALUES ($1)
			ON CONFLICT (profile_id) DO NOTHING`, profileID); err != nil {
			return fmt.Errorf("create form document: %w", err)
		}
		var err error
		doc, err = scanDocument(q.QueryRow(ctx, `SELECT `+documentCols+` FROM form_document WHERE profile_id = $1`, profileID))
		return err
	})
	return doc, err
}

func (r *formRepoPG) Save(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode form fields: %w", err)
	}
	err = db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE form_document
		SET fields = $2, editable = $3, last_step = $4, submitted_at = $5,
			version = version + 1, updated_at = NOW()
		WHERE profile_id = $1 AND version = $6
		RETURNING version, updated_at`,
		doc.ProfileID, raw, doc.Editable, doc.LastStep, doc.SubmittedAt, doc.Version,
	).Scan(&doc.Version, &doc.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return apperr.Conflict(msgStale)
		}
		return fmt.Errorf("save form document: %w", err)
	}
	return nil
}

func (r *formRepoPG) SetEditable(ctx context.Context, profileID uuid.UUID, editable bool) (*Document, error) {
	return scanDocument(db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE form_document SET editable = $2, version = version + 1, updated_at = NOW()
		WHERE profile_id = $1
		RETURNING `+documentCols, profileID, editable))
}
