package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var inviteColumns = []string{"id", "code", "is_active", "expires_at", "max_uses", "current_uses", "created_at", "updated_at"}

func TestPostgresInviteCodeRepo_FindByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInviteCodeRepo(db)
	now := time.Now()
	expires := now.Add(24 * time.Hour)

	mock.ExpectQuery("FROM invite_codes\\s+WHERE code = \\$1").
		WithArgs("WELCOME").
		WillReturnRows(sqlmock.NewRows(inviteColumns).
			AddRow("code-1", "WELCOME", true, expires, int64(5), 2, now, now))

	c, err := repo.FindByCode(context.Background(), "WELCOME")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxUses == nil || *c.MaxUses != 5 {
		t.Errorf("MaxUses = %v, want 5", c.MaxUses)
	}
	if c.ExpiresAt == nil || !c.ExpiresAt.Equal(expires) {
		t.Errorf("ExpiresAt = %v, want %v", c.ExpiresAt, expires)
	}
	if c.CurrentUses != 2 {
		t.Errorf("CurrentUses = %d, want 2", c.CurrentUses)
	}
}

func TestPostgresInviteCodeRepo_FindByCode_Unlimited(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInviteCodeRepo(db)
	now := time.Now()

	mock.ExpectQuery("FROM invite_codes").
		WithArgs("OPEN").
		WillReturnRows(sqlmock.NewRows(inviteColumns).
			AddRow("code-2", "OPEN", true, nil, nil, 100, now, now))

	c, err := repo.FindByCode(context.Background(), "OPEN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.MaxUses != nil || c.ExpiresAt != nil {
		t.Errorf("expected unlimited, non-expiring code, got %+v", c)
	}
}

func TestPostgresInviteCodeRepo_FindByCode_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInviteCodeRepo(db)

	mock.ExpectQuery("FROM invite_codes").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows(inviteColumns))

	c, err := repo.FindByCode(context.Background(), "NOPE")
	if err != nil || c != nil {
		t.Errorf("FindByCode = (%v, %v), want (nil, nil)", c, err)
	}
}

func TestPostgresInviteCodeRepo_Redeem(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"加算できた場合はtrue", 1, true},
		{"条件を満たさない場合はfalse", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresInviteCodeRepo(db)

			mock.ExpectExec("WITH consumed AS \\(\\s+UPDATE invite_codes").
				WithArgs("WELCOME", "red-1", "user-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.Redeem(context.Background(), "WELCOME", "red-1", "user-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.want {
				t.Errorf("Redeem = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestPostgresInviteCodeRepo_Redeem_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInviteCodeRepo(db)

	mock.ExpectExec("WITH consumed AS").
		WillReturnError(errors.New("deadline exceeded"))

	if _, err := repo.Redeem(context.Background(), "WELCOME", "red-1", "user-1"); err == nil {
		t.Error("expected error")
	}
}
