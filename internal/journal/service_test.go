package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/lifelog/internal/model"
	"github.com/hitoshi/lifelog/internal/repository"
	"github.com/hitoshi/lifelog/internal/security"
	"github.com/hitoshi/lifelog/internal/validation"
)

const (
	ownerID = "user-1"
	entryID = "3c9a5d7e-2f1b-4e6a-8c0d-1b2a3c4d5e6f"
	phaseID = "0b7e4f44-98a0-4e43-bf0b-2a7a2c6f2f10"
)

type mockJournalRepo struct {
	findByIDFn func(ctx context.Context, userID, id string) (*model.JournalEntry, error)
	createFn   func(ctx context.Context, e *model.JournalEntry) error
	updateFn   func(ctx context.Context, e *model.JournalEntry) (bool, error)
	deleteFn   func(ctx context.Context, userID, id string) (bool, error)
}

func (m *mockJournalRepo) ListByUserID(context.Context, string) ([]*model.JournalEntry, error) {
	return nil, nil
}
func (m *mockJournalRepo) FindByID(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, userID, id)
	}
	return nil, nil
}
func (m *mockJournalRepo) Create(ctx context.Context, e *model.JournalEntry) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	return nil
}
func (m *mockJournalRepo) Update(ctx context.Context, e *model.JournalEntry) (bool, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, e)
	}
	return true, nil
}
func (m *mockJournalRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return true, nil
}

type mockPhases struct{}

func (mockPhases) FindByID(_ context.Context, userID, id string) (*model.LifePhase, error) {
	if userID == ownerID && id == phaseID {
		return &model.LifePhase{ID: id, UserID: userID}, nil
	}
	return nil, nil
}

var _ repository.JournalRepository = (*mockJournalRepo)(nil)

func newTestService(repo *mockJournalRepo) *Service {
	svc := NewService(repo, mockPhases{}, validation.New(), security.NewContentSanitizer())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

func mood(m model.Mood) *model.Mood { return &m }
func strPtr(s string) *string      { return &s }

func apiErrorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func TestService_Create(t *testing.T) {
	var stored *model.JournalEntry
	repo := &mockJournalRepo{
		createFn: func(ctx context.Context, e *model.JournalEntry) error {
			stored = e
			return nil
		},
	}

	e, err := newTestService(repo).Create(context.Background(), ownerID, model.JournalInput{
		Title:       strPtr("<h1>Monday</h1>"),
		Content:     "Felt <em>good</em> today",
		Mood:        mood(model.MoodHopeful),
		LifePhaseID: strPtr(phaseID),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if stored != e || e.UserID != ownerID {
		t.Fatalf("stored = %+v", stored)
	}
	if e.Title == nil || *e.Title != "Monday" || e.Content != "Felt good today" {
		t.Errorf("text not sanitized: %+v", e)
	}
	if e.Mood == nil || *e.Mood != model.MoodHopeful {
		t.Errorf("Mood = %v", e.Mood)
	}
}

func TestService_Create_EmptyMoodStoredAsNone(t *testing.T) {
	repo := &mockJournalRepo{}
	e, err := newTestService(repo).Create(context.Background(), ownerID, model.JournalInput{
		Content: "x",
		Mood:    mood(""),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.Mood != nil {
		t.Errorf("Mood = %v, want nil", *e.Mood)
	}
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input model.JournalInput
	}{
		{"empty content", model.JournalInput{}},
		{"markup only content", model.JournalInput{Content: "<p> </p>"}},
		{"unknown mood", model.JournalInput{Content: "x", Mood: mood("furious")}},
		{"foreign phase", model.JournalInput{Content: "x", LifePhaseID: strPtr("9d4b0f0e-7a51-4c8e-b1b5-3f0f8f1e7a22")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockJournalRepo{
				createFn: func(ctx context.Context, e *model.JournalEntry) error {
					t.Error("Create should not be called")
					return nil
				},
			}
			_, err := newTestService(repo).Create(context.Background(), ownerID, tt.input)
			if code := apiErrorCode(err); code != model.ErrCodeValidationFailed {
				t.Errorf("error = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestService_Update_ClearsMood(t *testing.T) {
	repo := &mockJournalRepo{
		findByIDFn: func(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
			return &model.JournalEntry{ID: id, UserID: userID, Content: "c", Mood: mood(model.MoodAnxious)}, nil
		},
	}

	e, err := newTestService(repo).Update(context.Background(), ownerID, entryID, model.JournalPatch{Mood: mood("")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if e.Mood != nil {
		t.Errorf("Mood = %v, want nil", *e.Mood)
	}
	if e.Content != "c" {
		t.Errorf("Content = %q, want unchanged", e.Content)
	}
}

func TestService_CrossUserAccess_IsNotFound(t *testing.T) {
	repo := &mockJournalRepo{
		findByIDFn: func(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
			if userID != ownerID {
				return nil, nil
			}
			return &model.JournalEntry{ID: id, UserID: userID, Content: "secret"}, nil
		},
		deleteFn: func(ctx context.Context, userID, id string) (bool, error) {
			return userID == ownerID, nil
		},
	}
	svc := newTestService(repo)

	if _, err := svc.Get(context.Background(), "intruder", entryID); apiErrorCode(err) != model.ErrCodeJournalNotFound {
		t.Errorf("Get: %v", err)
	}
	if _, err := svc.Update(context.Background(), "intruder", entryID, model.JournalPatch{Content: strPtr("x")}); apiErrorCode(err) != model.ErrCodeJournalNotFound {
		t.Errorf("Update: %v", err)
	}
	if err := svc.Delete(context.Background(), "intruder", entryID); apiErrorCode(err) != model.ErrCodeJournalNotFound {
		t.Errorf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), ownerID, entryID); err != nil {
		t.Errorf("owner Delete: %v", err)
	}
}

func TestService_Get_MalformedID(t *testing.T) {
	_, err := newTestService(&mockJournalRepo{}).Get(context.Background(), ownerID, "../etc")
	if apiErrorCode(err) != model.ErrCodeJournalNotFound {
		t.Errorf("error = %v, want JOURNAL_ENTRY_NOT_FOUND", err)
	}
}
