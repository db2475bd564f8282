package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("get account: %w", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to match")
	}
	if IsNoRows(fmt.Errorf("other")) {
		t.Error("unexpected match")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "account_email_key"})
	if !IsUniqueViolation(err, "") {
		t.Error("expected unique violation")
	}
	if !IsUniqueViolation(err, "account_email_key") {
		t.Error("expected named constraint to match")
	}
	if IsUniqueViolation(err, "other_key") {
		t.Error("expected other constraint not to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "") {
		t.Error("foreign key violation must not match")
	}
}

func TestTxFromContext_Nil(t *testing.T) {
	if tx := TxFromContext(context.Background()); tx != nil {
		t.Error("expected nil tx from empty context")
	}
}

func TestTxFromContext_WithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), txKey{}, "not a tx")
	if tx := TxFromContext(ctx); tx != nil {
		t.Error("expected nil tx for wrong value type")
	}
}

func TestWithTx_NoPool(t *testing.T) {
	called := false
	err := WithTx(context.Background(), nil, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected error without a pool")
	}
	if called {
		t.Error("fn must not run without a transaction")
	}
}
