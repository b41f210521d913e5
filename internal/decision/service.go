// Package decision は意思決定と振り返りのドメインロジックを提供する。
package decision

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

// PhaseFinder は紐付け先ライフフェーズの所有確認に使用する。
type PhaseFinder interface {
	FindByID(ctx context.Context, userID, id string) (*model.LifePhase, error)
}

// Service は意思決定のサービス層。すべての操作は呼び出しユーザーの所有データに限定される。
type Service struct {
	repo      repository.DecisionRepository
	phases    PhaseFinder
	validator *validation.Validator
	sanitizer security.ContentSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	repo repository.DecisionRepository,
	phases PhaseFinder,
	validator *validation.Validator,
	sanitizer security.ContentSanitizer,
) *Service {
	return &Service{
		repo:      repo,
		phases:    phases,
		validator: validator,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// List は作成日時の降順で意思決定を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Decision, error) {
	decisions, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	if decisions == nil {
		decisions = []*model.Decision{}
	}
	return decisions, nil
}

// Get は意思決定を取得する。他ユーザーの意思決定は見つからないものとして扱う。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Decision, error) {
	if !isUUID(id) {
		return nil, model.NewDecisionNotFoundError(id)
	}
	d, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find decision: %w", err)
	}
	if d == nil {
		return nil, model.NewDecisionNotFoundError(id)
	}
	return d, nil
}

// Create は意思決定を作成する。
func (s *Service) Create(ctx context.Context, userID string, in model.DecisionInput) (*model.Decision, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	title := s.sanitizer.Sanitize(in.Title)
	if title == "" {
		return nil, model.NewValidationError(map[string]string{"title": "必須項目です。"})
	}
	if err := s.checkPhase(ctx, userID, in.LifePhaseID); err != nil {
		return nil, err
	}

	now := s.now()
	d := &model.Decision{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           title,
		Description:     s.sanitizer.Sanitize(in.Description),
		ConfidenceLevel: in.ConfidenceLevel,
		Category:        s.sanitizeOptional(in.Category),
		Tags:            s.sanitizer.SanitizeList(in.Tags),
		LifePhaseID:     emptyToNil(in.LifePhaseID),
		Reflections:     []model.Reflection{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to create decision: %w", err)
	}
	return d, nil
}

// Update は指定されたフィールドのみ更新する。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.DecisionPatch) (*model.Decision, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}

	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := s.sanitizer.Sanitize(*patch.Title)
		if title == "" {
			return nil, model.NewValidationError(map[string]string{"title": "必須項目です。"})
		}
		d.Title = title
	}
	if patch.Description != nil {
		d.Description = s.sanitizer.Sanitize(*patch.Description)
	}
	if patch.ConfidenceLevel != nil {
		d.ConfidenceLevel = *patch.ConfidenceLevel
	}
	if patch.Category != nil {
		d.Category = s.sanitizeOptional(patch.Category)
	}
	if patch.Tags != nil {
		d.Tags = s.sanitizer.SanitizeList(*patch.Tags)
	}
	if patch.LifePhaseID != nil {
		if err := s.checkPhase(ctx, userID, patch.LifePhaseID); err != nil {
			return nil, err
		}
		d.LifePhaseID = emptyToNil(patch.LifePhaseID)
	}
	d.UpdatedAt = s.now()

	found, err := s.repo.Update(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to update decision: %w", err)
	}
	if !found {
		return nil, model.NewDecisionNotFoundError(id)
	}
	return d, nil
}

// Delete は意思決定と振り返りを削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if !isUUID(id) {
		return model.NewDecisionNotFoundError(id)
	}
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete decision: %w", err)
	}
	if !found {
		return model.NewDecisionNotFoundError(id)
	}
	return nil
}

// AddReflection は所有する意思決定に振り返りを追加する。
func (s *Service) AddReflection(ctx context.Context, userID, decisionID string, in model.ReflectionInput) (*model.Reflection, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	if !isUUID(decisionID) {
		return nil, model.NewDecisionNotFoundError(decisionID)
	}

	content := s.sanitizer.Sanitize(in.Content)
	if content == "" {
		return nil, model.NewValidationError(map[string]string{"content": "必須項目です。"})
	}

	ref := &model.Reflection{
		ID:         uuid.New().String(),
		DecisionID: decisionID,
		Content:    content,
		CreatedAt:  s.now(),
	}
	found, err := s.repo.AddReflection(ctx, userID, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to add reflection: %w", err)
	}
	if !found {
		return nil, model.NewDecisionNotFoundError(decisionID)
	}
	return ref, nil
}

// checkPhase は紐付け先のライフフェーズが呼び出しユーザーの所有であることを確認する。
func (s *Service) checkPhase(ctx context.Context, userID string, phaseID *string) error {
	if phaseID == nil || *phaseID == "" {
		return nil
	}
	p, err := s.phases.FindByID(ctx, userID, *phaseID)
	if err != nil {
		return fmt.Errorf("failed to find life phase: %w", err)
	}
	if p == nil {
		return model.NewValidationError(map[string]string{"lifePhaseId": "指定されたライフフェーズが見つかりません。"})
	}
	return nil
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

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
