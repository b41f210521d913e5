// Package phase はライフフェーズと目標のドメインロジックを提供する。
//
// ユーザーごとにアクティブなフェーズは最大1つ。アクティブ化は
// 「他のフェーズを非アクティブ化して対象をアクティブにする」処理を
// リポジトリの単一トランザクションで行い、部分一意インデックスで担保する。
package phase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lifelog/internal/model"
	"github.com/hitoshi/lifelog/internal/repository"
	"github.com/hitoshi/lifelog/internal/security"
	"github.com/hitoshi/lifelog/internal/validation"
)

// Service はライフフェーズのサービス層。
type Service struct {
	repo      repository.PhaseRepository
	validator *validation.Validator
	sanitizer security.ContentSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.PhaseRepository, validator *validation.Validator, sanitizer security.ContentSanitizer) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は開始日の降順で目標付きのフェーズを返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.LifePhase, error) {
	phases, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list life phases: %w", err)
	}
	if phases == nil {
		phases = []*model.LifePhase{}
	}
	return phases, nil
}

// Get はフェーズを取得する。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.LifePhase, error) {
	if !isUUID(id) {
		return nil, model.NewPhaseNotFoundError(id)
	}
	p, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find life phase: %w", err)
	}
	if p == nil {
		return nil, model.NewPhaseNotFoundError(id)
	}
	return p, nil
}

// GetActive はアクティブなフェーズを返す。存在しない場合はnil。
func (s *Service) GetActive(ctx context.Context, userID string) (*model.LifePhase, error) {
	p, err := s.repo.FindActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find active life phase: %w", err)
	}
	return p, nil
}

// Create はフェーズを作成する。アクティブとして作成する場合、他のフェーズは非アクティブになる。
func (s *Service) Create(ctx context.Context, userID string, in model.PhaseInput) (*model.LifePhase, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError(map[string]string{"name": "必須項目です。"})
	}

	now := s.now()
	start := now
	if in.StartDate != nil {
		start = *in.StartDate
	}

	p := &model.LifePhase{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Description: s.sanitizeOptional(in.Description),
		StartDate:   start,
		IsActive:    in.IsActive,
		Values:      s.sanitizer.SanitizeList(in.Values),
		Goals:       []model.Goal{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create life phase: %w", err)
	}
	return p, nil
}

// Update は指定されたフィールドのみ更新する。
// isActive=trueの場合、同一トランザクションで他のフェーズを非アクティブにする。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.PhasePatch) (*model.LifePhase, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}

	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := s.sanitizer.Sanitize(*patch.Name)
		if name == "" {
			return nil, model.NewValidationError(map[string]string{"name": "必須項目です。"})
		}
		p.Name = name
	}
	if patch.Description != nil {
		p.Description = s.sanitizeOptional(patch.Description)
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.EndDate != nil {
		if patch.EndDate.Before(p.StartDate) {
			return nil, model.NewValidationError(map[string]string{"endDate": "開始日以降の日付を指定してください。"})
		}
		p.EndDate = patch.EndDate
	}
	if patch.Values != nil {
		p.Values = s.sanitizer.SanitizeList(*patch.Values)
	}
	p.UpdatedAt = s.now()

	found, err := s.repo.Update(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to update life phase: %w", err)
	}
	if !found {
		return nil, model.NewPhaseNotFoundError(id)
	}
	return p, nil
}

// Delete はフェーズと目標を削除する。紐付いた意思決定・ジャーナルの参照は解除される。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !isUUID(id) {
		return model.NewPhaseNotFoundError(id)
	}
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete life phase: %w", err)
	}
	if !found {
		return model.NewPhaseNotFoundError(id)
	}
	return nil
}

// AddGoal は所有するフェーズに目標を追加する。状態はactiveで作成される。
func (s *Service) AddGoal(ctx context.Context, userID, phaseID string, in model.GoalInput) (*model.Goal, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if !isUUID(phaseID) {
		return nil, model.NewPhaseNotFoundError(phaseID)
	}

	title := s.sanitizer.Sanitize(in.Title)
	if title == "" {
		return nil, model.NewValidationError(map[string]string{"title": "必須項目です。"})
	}

	now := s.now()
	g := &model.Goal{
		ID:          uuid.New().String(),
		LifePhaseID: phaseID,
		Title:       title,
		Description: s.sanitizeOptional(in.Description),
		Status:      model.GoalStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	found, err := s.repo.AddGoal(ctx, userID, g)
	if err != nil {
		return nil, fmt.Errorf("failed to add goal: %w", err)
	}
	if !found {
		return nil, model.NewPhaseNotFoundError(phaseID)
	}
	return g, nil
}

// UpdateGoal は目標を部分更新する。
func (s *Service) UpdateGoal(ctx context.Context, userID, goalID string, patch model.GoalPatch) (*model.Goal, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}
	if !isUUID(goalID) {
		return nil, model.NewGoalNotFoundError(goalID)
	}

	g, err := s.repo.FindGoalByID(ctx, userID, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to find goal: %w", err)
	}
	if g == nil {
		return nil, model.NewGoalNotFoundError(goalID)
	}

	if patch.Title != nil {
		title := s.sanitizer.Sanitize(*patch.Title)
		if title == "" {
			return nil, model.NewValidationError(map[string]string{"title": "必須項目です。"})
		}
		g.Title = title
	}
	if patch.Description != nil {
		g.Description = s.sanitizeOptional(patch.Description)
	}
	if patch.Status != nil {
		g.Status = *patch.Status
	}
	g.UpdatedAt = s.now()

	found, err := s.repo.UpdateGoal(ctx, userID, g)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	if !found {
		return nil, model.NewGoalNotFoundError(goalID)
	}
	return g, nil
}

func (s *Service) sanitizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	clean := s.sanitizer.Sanitize(*v)
	if clean == "" {
		return nil
	}
	return &clean
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
