package dberr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperr "github.com/yungbote/coursecatalog-backend/internal/pkg/errors"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperr.Code
	}{
		{"record not found", gorm.ErrRecordNotFound, apperr.CodeNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), apperr.CodeNotFound},
		{"pg unique", &pgconn.PgError{Code: "23505"}, apperr.CodeAlreadyExists},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, apperr.CodeRetryable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: requisite.requisite_type"), apperr.CodeAlreadyExists},
		{"deadline", context.DeadlineExceeded, apperr.CodeRetryable},
		{"other", errors.New("boom"), apperr.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapError("op", tc.err)
			if apperr.CodeOf(got) != tc.want {
				t.Fatalf("MapError(%v) code=%q want %q", tc.err, apperr.CodeOf(got), tc.want)
			}
			if !errors.Is(got, tc.err) {
				t.Fatalf("MapError must keep the cause reachable")
			}
		})
	}

	if MapError("op", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	typed := apperr.NotFound("x", "missing")
	if MapError("op", typed) != typed {
		t.Fatalf("typed errors must pass through unchanged")
	}
}
