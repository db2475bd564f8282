package account

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casedesk/casedesk/internal/platform/apperr"
	"github.com/casedesk/casedesk/internal/platform/db"
)

const emailConstraint = "account_email_key"

type accountRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &accountRepoPG{pool: pool}
}

const accountCols = `id, name, email, phone, cpf, COALESCE(password_hash, ''), created_at, updated_at`

func (r *accountRepoPG) scanRow(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.CPF, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, apperr.NotFound(msgNotFound)
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (r *accountRepoPG) Create(ctx context.Context, a *Account) error {
	a.ID = uuid.New()
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO account (id, name, email, phone, cpf, password_hash)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING created_at, updated_at`,
		a.ID, a.Name, a.Email, a.Phone, a.CPF, a.PasswordHash).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, emailConstraint) {
			return apperr.Conflict(msgEmailTaken)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *accountRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.scanRow(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+accountCols+` FROM account WHERE id = $1`, id))
}

func (r *accountRepoPG) Update(ctx context.Context, a *Account) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE account SET name = $2, email = $3, phone = $4, cpf = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.Name, a.Email, a.Phone, a.CPF).Scan(&a.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return apperr.NotFound(msgNotFound)
		}
		if db.IsUniqueViolation(err, emailConstraint) {
			return apperr.Conflict(msgEmailTaken)
		}
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (r *accountRepoPG) List(ctx context.Context, search string, limit, offset int) ([]*Account, int, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		where = ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM account`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM account%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		accountCols, where, n+1, n+2)
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var items []*Account
	for rows.Next() {
		a, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}
