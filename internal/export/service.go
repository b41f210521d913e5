// Package export はユーザーデータの一括エクスポートを提供する。
package export

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/lifelog/internal/metrics"
	"github.com/hitoshi/lifelog/internal/model"
	"github.com/hitoshi/lifelog/internal/repository"
)

// Service はエクスポートのサービス層。
type Service struct {
	decisions repository.DecisionRepository
	journal   repository.JournalRepository
	phases    repository.PhaseRepository
	private   repository.PrivateProfileRepository
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(
	decisions repository.DecisionRepository,
	journal repository.JournalRepository,
	phases repository.PhaseRepository,
	private repository.PrivateProfileRepository,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		decisions: decisions,
		journal:   journal,
		phases:    phases,
		private:   private,
		metrics:   mc,
		now:       time.Now,
	}
}

// Export はユーザーの全データを取得する。
// 4つの読み取りは並行に実行し、いずれかが失敗した時点でエクスポート全体を失敗とする。
// プライベートプロフィールが未作成の場合はnilのまま返す。
func (s *Service) Export(ctx context.Context, userID string) (*model.ExportSnapshot, error) {
	start := s.now()
	defer func() { s.metrics.RecordExportLatency(s.now().Sub(start)) }()

	snap := &model.ExportSnapshot{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.decisions.ListByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to export decisions: %w", err)
		}
		snap.Decisions = v
		return nil
	})
	g.Go(func() error {
		v, err := s.journal.ListByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to export journal entries: %w", err)
		}
		snap.JournalEntries = v
		return nil
	})
	g.Go(func() error {
		v, err := s.phases.ListByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to export life phases: %w", err)
		}
		snap.LifePhases = v
		return nil
	})
	g.Go(func() error {
		v, err := s.private.FindByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to export private profile: %w", err)
		}
		snap.PrivateProfile = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if snap.Decisions == nil {
		snap.Decisions = []*model.Decision{}
	}
	if snap.JournalEntries == nil {
		snap.JournalEntries = []*model.JournalEntry{}
	}
	if snap.LifePhases == nil {
		snap.LifePhases = []*model.LifePhase{}
	}
	snap.ExportedAt = s.now().UTC()
	return snap, nil
}

// Filename はダウンロード時のファイル名を返す。例: life-export-2024-01-31.json
func Filename(exportedAt time.Time) string {
	return "life-export-" + exportedAt.UTC().Format("2006-01-02") + ".json"
}
