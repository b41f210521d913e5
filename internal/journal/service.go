// Package journal はジャーナルエントリーのドメインロジックを提供する。
package journal

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

// Service はジャーナルのサービス層。
type Service struct {
	repo      repository.JournalRepository
	phases    PhaseFinder
	validator *validation.Validator
	sanitizer security.ContentSanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	repo repository.JournalRepository,
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

// List は作成日時の降順でエントリーを返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.JournalEntry, error) {
	entries, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	if entries == nil {
		entries = []*model.JournalEntry{}
	}
	return entries, nil
}

// Get はエントリーを取得する。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewJournalNotFoundError(id)
	}
	e, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entry: %w", err)
	}
	if e == nil {
		return nil, model.NewJournalNotFoundError(id)
	}
	return e, nil
}

// Create はエントリーを作成する。
func (s *Service) Create(ctx context.Context, userID string, in model.JournalInput) (*model.JournalEntry, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	content := s.sanitizer.Sanitize(in.Content)
	if content == "" {
		return nil, model.NewValidationError(map[string]string{"content": "必須項目です。"})
	}
	if err := s.checkPhase(ctx, userID, in.LifePhaseID); err != nil {
		return nil, err
	}

	now := s.now()
	e := &model.JournalEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       s.sanitizeOptional(in.Title),
		Content:     content,
		Mood:        moodOrNil(in.Mood),
		LifePhaseID: emptyToNil(in.LifePhaseID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}
	return e, nil
}

// Update は指定されたフィールドのみ更新する。空文字列のmoodは気分なしに戻す。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.JournalPatch) (*model.JournalEntry, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}

	e, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		e.Title = s.sanitizeOptional(patch.Title)
	}
	if patch.Content != nil {
		content := s.sanitizer.Sanitize(*patch.Content)
		if content == "" {
			return nil, model.NewValidationError(map[string]string{"content": "必須項目です。"})
		}
		e.Content = content
	}
	if patch.Mood != nil {
		e.Mood = moodOrNil(patch.Mood)
	}
	if patch.LifePhaseID != nil {
		if err := s.checkPhase(ctx, userID, patch.LifePhaseID); err != nil {
			return nil, err
		}
		e.LifePhaseID = emptyToNil(patch.LifePhaseID)
	}
	e.UpdatedAt = s.now()

	found, err := s.repo.Update(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("failed to update journal entry: %w", err)
	}
	if !found {
		return nil, model.NewJournalNotFoundError(id)
	}
	return e, nil
}

// Delete はエントリーを削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewJournalNotFoundError(id)
	}
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if !found {
		return model.NewJournalNotFoundError(id)
	}
	return nil
}

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

func moodOrNil(m *model.Mood) *model.Mood {
	if m == nil || *m == "" {
		return nil
	}
	return m
}

func emptyToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
