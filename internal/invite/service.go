// Package invite は招待コードの検証と消費を提供する。
//
// 検証は読み取りのみで、消費（使用回数の加算）はセッション確立後に
// 単一のSQL文で行う。サインイン後の消費はベストエフォートであり、
// 失敗してもサインインを妨げない。
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/lifelog/internal/metrics"
	"github.com/hitoshi/lifelog/internal/repository"
)

// 検証失敗時の理由。UIにそのまま表示される。
const (
	ReasonInvalid   = "Invalid invite code"
	ReasonExpired   = "Invite code has expired"
	ReasonExhausted = "Invite code has reached maximum uses"
)

// メトリクスのラベル値。
const (
	resultValid     = "valid"
	resultInvalid   = "invalid"
	resultExpired   = "expired"
	resultExhausted = "exhausted"
	resultError     = "lookup_error"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// ErrNotRedeemable は招待コードが存在しない、無効、期限切れ、
// または上限に達しているため加算できなかったことを表す。
var ErrNotRedeemable = errors.New("invite code is not redeemable")

// ErrEmptyCode は空の招待コードが渡されたことを表す。
var ErrEmptyCode = errors.New("invite code is empty")

// Validation は招待コード検証の結果。
type Validation struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Service は招待コードに関するビジネスロジックを提供する。
type Service struct {
	repo    repository.InviteCodeRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
	newID   func() string
}

// NewService はServiceを生成する。
func NewService(repo repository.InviteCodeRepository, mc metrics.MetricsCollector) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		repo:    repo,
		metrics: mc,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Canonicalize は入力された招待コードを保存形式（前後空白除去・大文字）に変換する。
func Canonicalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate は招待コードが現時点で使用可能かを判定する。ストアは変更しない。
// 参照エラー（タイムアウトを含む）は無効なコードとして扱う。
func (s *Service) Validate(ctx context.Context, raw string) Validation {
	code := Canonicalize(raw)
	if code == "" {
		s.metrics.RecordInviteValidation(resultInvalid)
		return Validation{Valid: false, Error: ReasonInvalid}
	}

	invite, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		slog.Warn("invite code lookup failed",
			slog.String("error", err.Error()),
		)
		s.metrics.RecordInviteValidation(resultError)
		return Validation{Valid: false, Error: ReasonInvalid}
	}

	// 1. 存在しない、または無効化されている
	if invite == nil || !invite.IsActive {
		s.metrics.RecordInviteValidation(resultInvalid)
		return Validation{Valid: false, Error: ReasonInvalid}
	}

	// 2. 有効期限切れ
	if invite.IsExpired(s.now()) {
		s.metrics.RecordInviteValidation(resultExpired)
		return Validation{Valid: false, Error: ReasonExpired}
	}

	// 3. 使用回数の上限に到達
	if invite.IsExhausted() {
		s.metrics.RecordInviteValidation(resultExhausted)
		return Validation{Valid: false, Error: ReasonExhausted}
	}

	s.metrics.RecordInviteValidation(resultValid)
	return Validation{Valid: true}
}

// Redeem は招待コードの使用回数を1つ加算し、利用履歴を記録する。
// 有効性の判定と加算は同一のSQL文で行われるため、同時に呼ばれても
// 上限を超えて加算されることはない。同じユーザーが複数回呼んだ場合も
// その都度加算される。
func (s *Service) Redeem(ctx context.Context, raw, userID string) error {
	code := Canonicalize(raw)
	if code == "" {
		return ErrEmptyCode
	}

	ok, err := s.repo.Redeem(ctx, code, s.newID(), userID)
	if err != nil {
		return fmt.Errorf("failed to redeem invite code: %w", err)
	}
	if !ok {
		return ErrNotRedeemable
	}
	return nil
}

// RedeemBestEffort はRedeemを呼び出し、失敗をログとメトリクスに記録する。
// エラーは返さない。セッション確立後にのみ呼び出すこと。
func (s *Service) RedeemBestEffort(ctx context.Context, raw, userID string) {
	if err := s.Redeem(ctx, raw, userID); err != nil {
		s.metrics.RecordInviteRedemption(outcomeFailure)
		slog.Warn("invite code redemption failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.metrics.RecordInviteRedemption(outcomeSuccess)
	slog.Info("invite code redeemed",
		slog.String("user_id", userID),
	)
}
