// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string            // エラーコード
	Message  string            // エラーメッセージ
	Category string            // カテゴリ: auth, validation, invite, journal, system
	Action   string            // ユーザー向け対処方法
	Details  map[string]string // フィールド単位のバリデーションエラー（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeInvalidInvite        = "INVALID_INVITE_CODE"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeDecisionNotFound     = "DECISION_NOT_FOUND"
	ErrCodeJournalNotFound      = "JOURNAL_ENTRY_NOT_FOUND"
	ErrCodePhaseNotFound        = "LIFE_PHASE_NOT_FOUND"
	ErrCodeGoalNotFound         = "GOAL_NOT_FOUND"
	ErrCodePrivateProfileAbsent = "PRIVATE_PROFILE_NOT_FOUND"
	ErrCodeCSRFInvalid          = "CSRF_TOKEN_INVALID"
	ErrCodeRateLimited          = "RATE_LIMIT_EXCEEDED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInvalidInviteError は招待コード検証に失敗した場合のエラーを生成する。
// reasonには招待コード検証の理由文字列をそのまま渡す。
func NewInvalidInviteError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInvite,
		Message:  reason,
		Category: "invite",
		Action:   "有効な招待コードを入力してください。",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワードが一致しない場合のエラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewEmailTakenError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "An account with this email already exists",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewValidationError はリクエスト内容のバリデーションエラーを生成する。
func NewValidationError(details map[string]string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "入力内容を確認してください。",
		Details:  details,
	}
}

// NewInvalidRequestError はリクエストボディを解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewDecisionNotFoundError は意思決定が見つからない場合のエラーを生成する。
func NewDecisionNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeDecisionNotFound,
		Message:  fmt.Sprintf("指定された意思決定が見つかりません: %s", id),
		Category: "journal",
		Action:   "IDを確認してください。",
	}
}

// NewJournalNotFoundError はジャーナルエントリーが見つからない場合のエラーを生成する。
func NewJournalNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeJournalNotFound,
		Message:  fmt.Sprintf("指定されたジャーナルが見つかりません: %s", id),
		Category: "journal",
		Action:   "IDを確認してください。",
	}
}

// NewPhaseNotFoundError はライフフェーズが見つからない場合のエラーを生成する。
func NewPhaseNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodePhaseNotFound,
		Message:  fmt.Sprintf("指定されたライフフェーズが見つかりません: %s", id),
		Category: "journal",
		Action:   "IDを確認してください。",
	}
}

// NewGoalNotFoundError は目標が見つからない場合のエラーを生成する。
func NewGoalNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeGoalNotFound,
		Message:  fmt.Sprintf("指定された目標が見つかりません: %s", id),
		Category: "journal",
		Action:   "IDを確認してください。",
	}
}

// NewPrivateProfileNotFoundError はプライベートプロフィール未作成の場合のエラーを生成する。
func NewPrivateProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePrivateProfileAbsent,
		Message:  "プライベートプロフィールはまだ作成されていません。",
		Category: "journal",
		Action:   "プロフィールを保存してから再度お試しください。",
	}
}

// NewCSRFError はCSRFトークン検証に失敗した場合のエラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限を超えた場合のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
