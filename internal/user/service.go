// Package user はプロフィール、ユーザー名、退会処理のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/lifelog/internal/model"
	"github.com/hitoshi/lifelog/internal/repository"
	"github.com/hitoshi/lifelog/internal/security"
	"github.com/hitoshi/lifelog/internal/validation"
)

// ユーザー名の更新失敗理由
const (
	ReasonUsernameTooShort   = "Username must be at least 3 characters"
	ReasonUsernameTooLong    = "Username must be 30 characters or less"
	ReasonUsernameCharset    = "Username can only contain letters, numbers, and underscores"
	ReasonUsernameTaken      = "Username is already taken"
	ReasonUsernameUpdateFail = "Failed to update username"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// UsernameResult はユーザー名更新の結果。失敗理由は値として返す。
type UsernameResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	profileRepo repository.ProfileRepository
	privateRepo repository.PrivateProfileRepository
	validator   *validation.Validator
	sanitizer   security.ContentSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	profileRepo repository.ProfileRepository,
	privateRepo repository.PrivateProfileRepository,
	validator *validation.Validator,
	sanitizer security.ContentSanitizer,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		profileRepo: profileRepo,
		privateRepo: privateRepo,
		validator:   validator,
		sanitizer:   sanitizer,
	}
}

// GetProfile はプロフィールを取得する。存在しない場合は初回アクセスとして作成する。
func (s *Service) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile != nil {
		return profile, nil
	}

	if err := s.profileRepo.CreateIfAbsent(ctx, userID); err != nil {
		return nil, fmt.Errorf("プロフィールの作成に失敗しました: %w", err)
	}
	slog.Info("プロフィールを作成しました", slog.String("user_id", userID))

	profile, err = s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewUserNotFoundError()
	}
	return profile, nil
}

// UpdatePreferences は指定された項目のみプリファレンスを更新する。
func (s *Service) UpdatePreferences(ctx context.Context, userID string, patch model.PreferencesPatch) (*model.Profile, error) {
	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs := patch.Apply(profile.Preferences)
	if err := s.profileRepo.UpdatePreferences(ctx, userID, prefs); err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, model.NewUserNotFoundError()
		}
		return nil, fmt.Errorf("プリファレンスの更新に失敗しました: %w", err)
	}
	profile.Preferences = prefs
	return profile, nil
}

// NormalizeUsername は前後の空白を除去し小文字に変換する。
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// usernameFormatReason は形式違反の理由を返す。問題がなければ空文字列。
func usernameFormatReason(name string) string {
	n := utf8.RuneCountInString(name)
	switch {
	case n < minUsernameLength:
		return ReasonUsernameTooShort
	case n > maxUsernameLength:
		return ReasonUsernameTooLong
	case !usernamePattern.MatchString(name):
		return ReasonUsernameCharset
	}
	return ""
}

// CheckUsernameAvailable はユーザー名が使用可能かを返す。
// 自分が現在使用しているユーザー名は使用可能として扱う。
// 形式違反、他ユーザーが使用中、ストレージエラーの場合はfalse。
func (s *Service) CheckUsernameAvailable(ctx context.Context, userID, name string) bool {
	name = NormalizeUsername(name)
	if usernameFormatReason(name) != "" {
		return false
	}

	taken, err := s.profileRepo.IsUsernameTaken(ctx, userID, name)
	if err != nil {
		slog.Warn("ユーザー名の確認に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return false
	}
	return !taken
}

// UpdateUsername はユーザー名を検証して保存する。
// 事前確認後に競合した場合も一意制約違反として使用中を返す。
func (s *Service) UpdateUsername(ctx context.Context, userID, name string) UsernameResult {
	name = NormalizeUsername(name)
	if reason := usernameFormatReason(name); reason != "" {
		return UsernameResult{Error: reason}
	}

	taken, err := s.profileRepo.IsUsernameTaken(ctx, userID, name)
	if err != nil {
		slog.Error("ユーザー名の確認に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return UsernameResult{Error: ReasonUsernameUpdateFail}
	}
	if taken {
		return UsernameResult{Error: ReasonUsernameTaken}
	}

	// プロフィール行がなければ先に作成する
	if err := s.profileRepo.CreateIfAbsent(ctx, userID); err != nil {
		slog.Error("プロフィールの作成に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return UsernameResult{Error: ReasonUsernameUpdateFail}
	}

	if err := s.profileRepo.UpdateUsername(ctx, userID, name); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return UsernameResult{Error: ReasonUsernameTaken}
		}
		slog.Error("ユーザー名の更新に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return UsernameResult{Error: ReasonUsernameUpdateFail}
	}
	return UsernameResult{Success: true}
}

// DeleteAccount はユーザーの退会処理を実行する。
// 削除順序: sessions → user（profiles, decisions, journal_entries, life_phases等はCASCADE削除）
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します", slog.String("user_id", userID))

	// 1. セッションを削除
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}

	// 2. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました", slog.String("user_id", userID))
	return nil
}

// GetPrivateProfile はプライベートプロフィールを取得する。
func (s *Service) GetPrivateProfile(ctx context.Context, userID string) (*model.PrivateProfile, error) {
	p, err := s.privateRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プライベートプロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewPrivateProfileNotFoundError()
	}
	return p, nil
}

// UpsertPrivateProfile はプライベートプロフィールを作成または置き換える。
func (s *Service) UpsertPrivateProfile(ctx context.Context, userID string, in model.PrivateProfileInput) (*model.PrivateProfile, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	p, err := s.privateRepo.Upsert(ctx, &model.PrivateProfile{
		ID:           uuid.New().String(),
		UserID:       userID,
		Values:       s.sanitizer.SanitizeList(in.Values),
		Joys:         s.sanitizer.SanitizeList(in.Joys),
		RememberedAs: s.sanitizer.Sanitize(in.RememberedAs),
		ShareCode:    in.ShareCode,
		ShareExpiry:  in.ShareExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("プライベートプロフィールの保存に失敗しました: %w", err)
	}
	return p, nil
}
