package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/lifelog/internal/model"
	"github.com/lib/pq"
)

func TestPostgresProfileRepo_FindByID_DecodesPreferences(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProfileRepo(db)
	now := time.Now()

	mock.ExpectQuery("FROM profiles p\\s+JOIN users u").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "is_anonymous", "preferences", "created_at", "updated_at"}).
			AddRow("user-1", "a@example.com", "alice", false, []byte(`{"theme":"dark","reminderEnabled":true,"reminderTime":"21:00"}`), now, now))

	p, err := repo.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username == nil || *p.Username != "alice" {
		t.Errorf("Username = %v, want alice", p.Username)
	}
	want := model.Preferences{Theme: model.ThemeDark, ReminderEnabled: true, ReminderTime: "21:00"}
	if p.Preferences != want {
		t.Errorf("Preferences = %+v, want %+v", p.Preferences, want)
	}
}

func TestPostgresProfileRepo_FindByID_NullUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProfileRepo(db)
	now := time.Now()

	mock.ExpectQuery("FROM profiles p").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "is_anonymous", "preferences", "created_at", "updated_at"}).
			AddRow("user-1", "", nil, true, []byte(`{}`), now, now))

	p, err := repo.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username != nil {
		t.Errorf("Username = %q, want nil", *p.Username)
	}
	if !p.IsAnonymous {
		t.Error("expected anonymous profile")
	}
	if p.Preferences.Theme != model.ThemeSystem {
		t.Errorf("Theme = %q, want default %q", p.Preferences.Theme, model.ThemeSystem)
	}
}

func TestPostgresProfileRepo_IsUsernameTaken_ExcludesSelf(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProfileRepo(db)

	mock.ExpectQuery("lower\\(username\\) = lower\\(\\$1\\) AND id <> \\$2").
		WithArgs("alice", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	taken, err := repo.IsUsernameTaken(context.Background(), "user-1", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken {
		t.Error("expected username to be available")
	}
}

func TestPostgresProfileRepo_UpdateUsername_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProfileRepo(db)

	mock.ExpectExec("UPDATE profiles SET username").
		WithArgs("user-1", "alice").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.UpdateUsername(context.Background(), "user-1", "alice")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestPostgresProfileRepo_UpdateUsername_OtherError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProfileRepo(db)

	mock.ExpectExec("UPDATE profiles SET username").
		WillReturnError(errors.New("connection reset"))

	err := repo.UpdateUsername(context.Background(), "user-1", "alice")
	if err == nil || errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected generic error, got %v", err)
	}
}

func TestPostgresProfileRepo_UpdateUsername_MissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresProfileRepo(db)

	mock.ExpectExec("UPDATE profiles SET username").
		WithArgs("ghost", "alice").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateUsername(context.Background(), "ghost", "alice")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestPostgresProfileRepo_UpdatePreferences(t *testing.T) {
	tests := []struct {
		name    string
		rows    int64
		wantErr error
	}{
		{"updated", 1, nil},
		{"missing row", 0, ErrProfileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresProfileRepo(db)

			mock.ExpectExec("UPDATE profiles SET preferences").
				WithArgs("user-1", sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))

			err := repo.UpdatePreferences(context.Background(), "user-1", model.DefaultPreferences())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdatePreferences() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
