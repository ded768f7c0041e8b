package repository

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"
)

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgres"); got != "ILIKE" {
		t.Fatalf("postgres like operator want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite like operator want LIKE got %s", got)
	}
	if got := likeCondition(nil, "unique_code"); got != "unique_code LIKE ?" {
		t.Fatalf("nil db should fall back to sqlite, got %s", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{errors.New("constraint failed: UNIQUE constraint failed: cards.unique_code (2067)"), true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_cards_unique_code" (SQLSTATE 23505)`), true},
		{errors.New("record not found"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("IsUniqueViolation(%v) want %v got %v", tc.err, tc.want, got)
		}
	}
}
