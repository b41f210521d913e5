package export

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/lifelog/internal/metrics"
	"github.com/hitoshi/lifelog/internal/model"
)

// --- モック定義 ---

type mockDecisionRepo struct {
	listFn func(ctx context.Context, userID string) ([]*model.Decision, error)
}

func (m *mockDecisionRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Decision, error) {
	return m.listFn(ctx, userID)
}
func (m *mockDecisionRepo) FindByID(context.Context, string, string) (*model.Decision, error) {
	return nil, nil
}
func (m *mockDecisionRepo) Create(context.Context, *model.Decision) error          { return nil }
func (m *mockDecisionRepo) Update(context.Context, *model.Decision) (bool, error) { return false, nil }
func (m *mockDecisionRepo) Delete(context.Context, string, string) (bool, error)  { return false, nil }
func (m *mockDecisionRepo) AddReflection(context.Context, string, *model.Reflection) (bool, error) {
	return false, nil
}

type mockJournalRepo struct {
	listFn func(ctx context.Context, userID string) ([]*model.JournalEntry, error)
}

func (m *mockJournalRepo) ListByUserID(ctx context.Context, userID string) ([]*model.JournalEntry, error) {
	return m.listFn(ctx, userID)
}
func (m *mockJournalRepo) FindByID(context.Context, string, string) (*model.JournalEntry, error) {
	return nil, nil
}
func (m *mockJournalRepo) Create(context.Context, *model.JournalEntry) error         { return nil }
func (m *mockJournalRepo) Update(context.Context, *model.JournalEntry) (bool, error) { return false, nil }
func (m *mockJournalRepo) Delete(context.Context, string, string) (bool, error)      { return false, nil }

type mockPhaseRepo struct {
	listFn func(ctx context.Context, userID string) ([]*model.LifePhase, error)
}

func (m *mockPhaseRepo) ListByUserID(ctx context.Context, userID string) ([]*model.LifePhase, error) {
	return m.listFn(ctx, userID)
}
func (m *mockPhaseRepo) FindByID(context.Context, string, string) (*model.LifePhase, error) {
	return nil, nil
}
func (m *mockPhaseRepo) FindActive(context.Context, string) (*model.LifePhase, error) {
	return nil, nil
}
func (m *mockPhaseRepo) Create(context.Context, *model.LifePhase) error         { return nil }
func (m *mockPhaseRepo) Update(context.Context, *model.LifePhase) (bool, error) { return false, nil }
func (m *mockPhaseRepo) Delete(context.Context, string, string) (bool, error)   { return false, nil }
func (m *mockPhaseRepo) AddGoal(context.Context, string, *model.Goal) (bool, error) {
	return false, nil
}
func (m *mockPhaseRepo) FindGoalByID(context.Context, string, string) (*model.Goal, error) {
	return nil, nil
}
func (m *mockPhaseRepo) UpdateGoal(context.Context, string, *model.Goal) (bool, error) {
	return false, nil
}

type mockPrivateRepo struct {
	findFn func(ctx context.Context, userID string) (*model.PrivateProfile, error)
}

func (m *mockPrivateRepo) FindByUserID(ctx context.Context, userID string) (*model.PrivateProfile, error) {
	return m.findFn(ctx, userID)
}
func (m *mockPrivateRepo) Upsert(_ context.Context, p *model.PrivateProfile) (*model.PrivateProfile, error) {
	return p, nil
}

type latencyRecorder struct {
	metrics.Nop
	mu    sync.Mutex
	calls int
}

func (r *latencyRecorder) RecordExportLatency(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

// fixtures はすべての読み取りが成功するモック一式を返す。
func fixtures() (*mockDecisionRepo, *mockJournalRepo, *mockPhaseRepo, *mockPrivateRepo) {
	return &mockDecisionRepo{listFn: func(_ context.Context, userID string) ([]*model.Decision, error) {
			return []*model.Decision{{ID: "d1", UserID: userID}}, nil
		}},
		&mockJournalRepo{listFn: func(_ context.Context, userID string) ([]*model.JournalEntry, error) {
			return []*model.JournalEntry{{ID: "j1", UserID: userID}}, nil
		}},
		&mockPhaseRepo{listFn: func(_ context.Context, userID string) ([]*model.LifePhase, error) {
			return []*model.LifePhase{{ID: "p1", UserID: userID}}, nil
		}},
		&mockPrivateRepo{findFn: func(_ context.Context, userID string) (*model.PrivateProfile, error) {
			return &model.PrivateProfile{ID: "pp1", UserID: userID}, nil
		}}
}

// --- テスト ---

func TestService_Export_CollectsEverything(t *testing.T) {
	d, j, p, pp := fixtures()
	rec := &latencyRecorder{}
	svc := NewService(d, j, p, pp, rec)
	fixed := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	snap, err := svc.Export(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(snap.Decisions) != 1 || len(snap.JournalEntries) != 1 || len(snap.LifePhases) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.PrivateProfile == nil || snap.PrivateProfile.UserID != "user-1" {
		t.Errorf("PrivateProfile = %+v", snap.PrivateProfile)
	}
	if !snap.ExportedAt.Equal(fixed) {
		t.Errorf("ExportedAt = %v, want %v", snap.ExportedAt, fixed)
	}
	if rec.calls != 1 {
		t.Errorf("latency recorded %d times, want 1", rec.calls)
	}
}

func TestService_Export_MissingPrivateProfile_IsNil(t *testing.T) {
	d, j, p, _ := fixtures()
	pp := &mockPrivateRepo{findFn: func(context.Context, string) (*model.PrivateProfile, error) {
		return nil, nil
	}}
	svc := NewService(d, j, p, pp, nil)

	snap, err := svc.Export(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if snap.PrivateProfile != nil {
		t.Errorf("PrivateProfile = %+v, want nil", snap.PrivateProfile)
	}
}

func TestService_Export_EmptyListsAreNonNil(t *testing.T) {
	d := &mockDecisionRepo{listFn: func(context.Context, string) ([]*model.Decision, error) { return nil, nil }}
	j := &mockJournalRepo{listFn: func(context.Context, string) ([]*model.JournalEntry, error) { return nil, nil }}
	p := &mockPhaseRepo{listFn: func(context.Context, string) ([]*model.LifePhase, error) { return nil, nil }}
	pp := &mockPrivateRepo{findFn: func(context.Context, string) (*model.PrivateProfile, error) { return nil, nil }}

	snap, err := NewService(d, j, p, pp, nil).Export(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if snap.Decisions == nil || snap.JournalEntries == nil || snap.LifePhases == nil {
		t.Errorf("lists must be non-nil: %+v", snap)
	}
}

func TestService_Export_AnyFailureAborts(t *testing.T) {
	d, _, p, pp := fixtures()
	j := &mockJournalRepo{listFn: func(context.Context, string) ([]*model.JournalEntry, error) {
		return nil, errors.New("connection reset")
	}}

	snap, err := NewService(d, j, p, pp, nil).Export(context.Background(), "user-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if snap != nil {
		t.Errorf("snapshot = %+v, want nil", snap)
	}
	if !strings.Contains(err.Error(), "journal") {
		t.Errorf("error %q should name the failed read", err)
	}
}

func TestService_Export_FailureCancelsSiblings(t *testing.T) {
	_, j, p, pp := fixtures()
	d := &mockDecisionRepo{listFn: func(context.Context, string) ([]*model.Decision, error) {
		return nil, errors.New("boom")
	}}
	cancelled := make(chan struct{})
	pp = &mockPrivateRepo{findFn: func(ctx context.Context, _ string) (*model.PrivateProfile, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}}

	if _, err := NewService(d, j, p, pp, nil).Export(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error, got nil")
	}
	select {
	case <-cancelled:
	default:
		t.Error("sibling read should observe cancellation")
	}
}

func TestFilename(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	got := Filename(time.Date(2024, 1, 31, 8, 0, 0, 0, jst))
	if got != "life-export-2024-01-30.json" {
		t.Errorf("Filename() = %q", got)
	}
}
