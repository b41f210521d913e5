package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/lifelog/internal/model"
)

type mockJournalService struct {
	listFn   func(ctx context.Context, userID string) ([]*model.JournalEntry, error)
	getFn    func(ctx context.Context, userID, id string) (*model.JournalEntry, error)
	createFn func(ctx context.Context, userID string, in model.JournalInput) (*model.JournalEntry, error)
	updateFn func(ctx context.Context, userID, id string, patch model.JournalPatch) (*model.JournalEntry, error)
	deleteFn func(ctx context.Context, userID, id string) error
}

func (m *mockJournalService) List(ctx context.Context, userID string) ([]*model.JournalEntry, error) {
	return m.listFn(ctx, userID)
}

func (m *mockJournalService) Get(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	return m.getFn(ctx, userID, id)
}

func (m *mockJournalService) Create(ctx context.Context, userID string, in model.JournalInput) (*model.JournalEntry, error) {
	return m.createFn(ctx, userID, in)
}

func (m *mockJournalService) Update(ctx context.Context, userID, id string, patch model.JournalPatch) (*model.JournalEntry, error) {
	return m.updateFn(ctx, userID, id, patch)
}

func (m *mockJournalService) Delete(ctx context.Context, userID, id string) error {
	return m.deleteFn(ctx, userID, id)
}

var _ JournalServiceInterface = (*mockJournalService)(nil)

func TestJournalHandler_Create_Returns201WithMood(t *testing.T) {
	svc := &mockJournalService{
		createFn: func(ctx context.Context, userID string, in model.JournalInput) (*model.JournalEntry, error) {
			if in.Mood == nil || *in.Mood != model.MoodHopeful {
				t.Errorf("mood = %v, want hopeful", in.Mood)
			}
			return &model.JournalEntry{ID: "j1", Content: in.Content, Mood: in.Mood, CreatedAt: testCreatedAt, UpdatedAt: testCreatedAt}, nil
		},
	}
	h := NewJournalHandler(svc)

	w := httptest.NewRecorder()
	h.Create(w, newAuthedRequest(http.MethodPost, "/api/journal", `{"content":"A good day","mood":"hopeful"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	var got journalResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.ID != "j1" || got.Mood == nil || *got.Mood != model.MoodHopeful {
		t.Errorf("response = %+v", got)
	}
}

func TestJournalHandler_Get_OtherUsersEntry_Returns404(t *testing.T) {
	svc := &mockJournalService{
		getFn: func(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
			return nil, model.NewJournalNotFoundError(id)
		},
	}
	h := NewJournalHandler(svc)

	w := httptest.NewRecorder()
	h.Get(w, newAuthedRequest(http.MethodGet, "/api/journal/j9", "", "id", "j9"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if code := decodeErrorCode(t, w); code != model.ErrCodeJournalNotFound {
		t.Errorf("code = %q, want %q", code, model.ErrCodeJournalNotFound)
	}
}

func TestJournalHandler_Update_MalformedBody_Returns400(t *testing.T) {
	h := NewJournalHandler(&mockJournalService{})

	w := httptest.NewRecorder()
	h.Update(w, newAuthedRequest(http.MethodPatch, "/api/journal/j1", `{"content":`, "id", "j1"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestJournalHandler_ListAndDelete(t *testing.T) {
	svc := &mockJournalService{
		listFn: func(ctx context.Context, userID string) ([]*model.JournalEntry, error) {
			return []*model.JournalEntry{{ID: "j1", Content: "x", CreatedAt: testCreatedAt, UpdatedAt: testCreatedAt}}, nil
		},
		deleteFn: func(ctx context.Context, userID, id string) error { return nil },
	}
	h := NewJournalHandler(svc)

	w := httptest.NewRecorder()
	h.List(w, newAuthedRequest(http.MethodGet, "/api/journal", ""))
	var list []journalResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len = %d, want 1", len(list))
	}

	w = httptest.NewRecorder()
	h.Delete(w, newAuthedRequest(http.MethodDelete, "/api/journal/j1", "", "id", "j1"))
	if w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
}
