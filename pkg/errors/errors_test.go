package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeMethodNotAllowed, status: http.StatusMethodNotAllowed, publicMsg: "method not allowed"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "operation not allowed in the current cart state", detailsOK: true},
		{code: CodeIdempotency, status: http.StatusConflict, publicMsg: "idempotency key reused", detailsOK: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "quantity must be positive")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "quantity must be positive" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"quantity": 0})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "persist cart")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if Wrap(CodeInternal, nil, "no cause").Unwrap() != nil {
		t.Fatalf("Wrap(nil) should not carry a cause")
	}
}

func TestAsAndIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeStateConflict, "cart is empty"))
	if got := As(err); got == nil || got.Code() != CodeStateConflict {
		t.Fatalf("As failed to return typed error")
	}
	if !Is(err, CodeStateConflict) {
		t.Fatalf("Is should match wrapped code")
	}
	if Is(err, CodeValidation) {
		t.Fatalf("Is should not match other codes")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpWalksChain(t *testing.T) {
	err := fmt.Errorf("save: %w", Wrap(CodeDependency, stdErrors.New("dial tcp"), "persist cart"))
	dump := Dump(err)
	if dump.Postgres != nil {
		t.Fatalf("expected no postgres detail, got %+v", dump.Postgres)
	}
	fields := dump.Fields()
	if fields["error_code"] != string(CodeDependency) {
		t.Fatalf("expected error_code field, got %v", fields["error_code"])
	}
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("pg fields should be omitted without a postgres error")
	}
	if dump.Code != CodeDependency {
		t.Fatalf("expected dependency code, got %s", dump.Code)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected three chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
	if Dump(nil).TopMessage != "" {
		t.Fatalf("expected empty dump for nil")
	}
}

func TestDumpExtractsPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "cart_snapshots_pkey", TableName: "cart_snapshots", Message: "duplicate key"}
	dump := Dump(fmt.Errorf("upsert: %w", pgErr))
	if dump.Postgres == nil || dump.Postgres.Code != "23505" {
		t.Fatalf("expected pgx detail, got %+v", dump.Postgres)
	}
	if dump.Fields()["pg_constraint"] != "cart_snapshots_pkey" {
		t.Fatalf("expected constraint field")
	}

	pqErr := &pq.Error{Code: "40001", Table: "cart_snapshots"}
	if got := Dump(pqErr).Postgres; got == nil || got.Code != "40001" || got.Table != "cart_snapshots" {
		t.Fatalf("expected pq detail, got %+v", got)
	}
}

func TestPublicMessage(t *testing.T) {
	if got := New(CodeValidation, "quantity must be positive").PublicMessage(); got != "quantity must be positive" {
		t.Fatalf("validation message should be exposed, got %q", got)
	}
	if got := Wrap(CodeInternal, stdErrors.New("nil map"), "encode cart").PublicMessage(); got != "internal server error" {
		t.Fatalf("internal message should be hidden, got %q", got)
	}
	if got := New(CodeNotFound, "").PublicMessage(); got != "resource not found" {
		t.Fatalf("empty message should fall back, got %q", got)
	}
	if got := Newf(CodeStateConflict, "cart %s is empty", "abc").Message(); got != "cart abc is empty" {
		t.Fatalf("unexpected formatted message %q", got)
	}
}
