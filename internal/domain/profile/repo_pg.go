package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/db"
)

type profileRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &profileRepoPG{pool: pool}
}

const profileCols = `id, account_id, name, category, status,
	ds_status, visa_status, payment_status, eta_status, interview_date,
	version, created_at, updated_at`

// workflowColumns whitelists the columns SetWorkflow may touch.
var workflowColumns = map[WorkflowField]string{
	WorkflowDS:      "ds_status",
	WorkflowVisa:    "visa_status",
	WorkflowPayment: "payment_status",
	WorkflowETA:     "eta_status",
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.AccountID, &p.Name, &p.Category, &p.Status,
		&p.DSStatus, &p.VisaStatus, &p.PaymentStatus, &p.ETAStatus, &p.InterviewDate,
		&p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound(MsgNotFound)
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepoPG) Create(ctx context.Context, p *Profile) error {
	p.ID = uuid.New()
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO profile (id, account_id, name, category, status, interview_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+profileCols,
		p.ID, p.AccountID, p.Name, p.Category, p.Status, p.InterviewDate)
	created, err := scanProfile(row)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	*p = *created
	return nil
}

func (r *profileRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return scanProfile(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+profileCols+` FROM profile WHERE id = $1`, id))
}

// explainMiss turns an UPDATE that matched no row into NOT_FOUND or the
// supplied conflict.
func (r *profileRepoPG) explainMiss(ctx context.Context, id uuid.UUID, conflict string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.Conflict(conflict)
}

func (r *profileRepoPG) Update(ctx context.Context, p *Profile) error {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE profile SET name = $2, category = $3, interview_date = $4,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND ($5 = 0 OR version = $5)
		RETURNING `+profileCols,
		p.ID, p.Name, p.Category, p.InterviewDate, p.Version)
	updated, err := scanProfile(row)
	if apperr.Is(err, apperr.CodeNotFound) {
		return r.explainMiss(ctx, p.ID, msgStale)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	*p = *updated
	return nil
}

func (r *profileRepoPG) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Profile, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM profile WHERE status = $1`, status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+profileCols+` FROM profile WHERE status = $1
		ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	items, err := collect(rows)
	return items, total, err
}

func (r *profileRepoPG) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Profile, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+profileCols+` FROM profile WHERE account_id = $1
		ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list account profiles: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*Profile, error) {
	defer rows.Close()
	var items []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *profileRepoPG) SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Profile, error) {
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE profile SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+profileCols, id, from, to)
	p, err := scanProfile(row)
	if apperr.Is(err, apperr.CodeNotFound) {
		return nil, r.explainMiss(ctx, id, msgStatusMoved)
	}
	return p, err
}

func (r *profileRepoPG) SetWorkflow(ctx context.Context, id uuid.UUID, field WorkflowField, value string) (*Profile, error) {
	col, ok := workflowColumns[field]
	if !ok {
		return nil, fmt.Errorf("unknown workflow field %q", field)
	}
	row := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE profile SET `+col+` = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileCols, id, value)
	return scanProfile(row)
}
