// Package repository はデータ永続化のインターフェースを定義する。
// 所有データを扱うクエリはすべてuser_idを条件に含め、
// 他ユーザーの行は「見つからない」として扱う。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/lifelog/internal/model"
)

// ErrUsernameTaken はusernameの一意制約違反を表す。
var ErrUsernameTaken = errors.New("username already taken")

// ErrProfileNotFound は更新対象のプロフィール行が存在しないことを表す。
var ErrProfileNotFound = errors.New("profile not found")

// ErrEmailTaken はメールアドレスの一意制約違反を表す。
var ErrEmailTaken = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByIdentity は外部IdPの紐付けからユーザーを取得する。見つからない場合はnilを返す。
	FindByIdentity(ctx context.Context, provider, providerUserID string) (*model.User, error)

	// Create はユーザーと空のプロフィールを同一トランザクションで作成する。
	// メールアドレスが登録済みの場合はErrEmailTakenを返す。
	Create(ctx context.Context, user *model.User) error

	// CreateWithIdentity はユーザー、identity、空のプロフィールを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 所有データはすべてCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}

// ProfileRepository はプロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByID はプロフィールをユーザー情報と結合して取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string) (*model.Profile, error)
	// CreateIfAbsent はプロフィールが存在しない場合のみ作成する。
	CreateIfAbsent(ctx context.Context, userID string) error
	// UpdatePreferences はプリファレンスを置き換える。行がない場合はErrProfileNotFoundを返す。
	UpdatePreferences(ctx context.Context, userID string, prefs model.Preferences) error
	// IsUsernameTaken は自分以外のプロフィールがusernameを使用しているかを返す。
	IsUsernameTaken(ctx context.Context, userID, username string) (bool, error)
	// UpdateUsername はusernameを更新する。一意制約違反の場合はErrUsernameTakenを、
	// 行がない場合はErrProfileNotFoundを返す。
	UpdateUsername(ctx context.Context, userID, username string) error
}

// PrivateProfileRepository はプライベートプロフィールの永続化インターフェース。
type PrivateProfileRepository interface {
	// FindByUserID は見つからない場合nilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.PrivateProfile, error)
	// Upsert はユーザーごとに1件のプライベートプロフィールを作成または更新する。
	Upsert(ctx context.Context, profile *model.PrivateProfile) (*model.PrivateProfile, error)
}

// InviteCodeRepository は招待コードの永続化インターフェース。
type InviteCodeRepository interface {
	// FindByCode は正規化済みのコードで招待コードを取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.InviteCode, error)

	// Redeem は単一のSQL文で使用回数の加算と利用履歴の記録を行う。
	// 有効・期限内・上限未満の条件を満たさず加算できなかった場合はfalseを返す。
	Redeem(ctx context.Context, code, redemptionID, userID string) (bool, error)
}

// DecisionRepository は意思決定の永続化インターフェース。
type DecisionRepository interface {
	// ListByUserID は作成日時の降順で振り返り付きの一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Decision, error)
	// FindByID は見つからない場合nilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Decision, error)
	Create(ctx context.Context, decision *model.Decision) error
	// Update は対象行が存在しない場合falseを返す。
	Update(ctx context.Context, decision *model.Decision) (bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	// AddReflection は所有する意思決定に振り返りを追加する。対象がない場合falseを返す。
	AddReflection(ctx context.Context, userID string, reflection *model.Reflection) (bool, error)
}

// JournalRepository はジャーナルエントリーの永続化インターフェース。
type JournalRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.JournalEntry, error)
	FindByID(ctx context.Context, userID, id string) (*model.JournalEntry, error)
	Create(ctx context.Context, entry *model.JournalEntry) error
	Update(ctx context.Context, entry *model.JournalEntry) (bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// PhaseRepository はライフフェーズと目標の永続化インターフェース。
type PhaseRepository interface {
	// ListByUserID は開始日の降順で目標付きの一覧を返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.LifePhase, error)
	FindByID(ctx context.Context, userID, id string) (*model.LifePhase, error)
	// FindActive はアクティブなフェーズを返す。存在しない場合nilを返す。
	FindActive(ctx context.Context, userID string) (*model.LifePhase, error)
	// Create はフェーズを作成する。アクティブとして作成する場合は
	// 同一トランザクションで他のフェーズを非アクティブにする。
	Create(ctx context.Context, phase *model.LifePhase) error
	// Update はフェーズを更新する。アクティブ化する場合は
	// 同一トランザクションで他のフェーズを非アクティブにする。
	Update(ctx context.Context, phase *model.LifePhase) (bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)

	// AddGoal は所有するフェーズに目標を追加する。対象がない場合falseを返す。
	AddGoal(ctx context.Context, userID string, goal *model.Goal) (bool, error)
	FindGoalByID(ctx context.Context, userID, id string) (*model.Goal, error)
	UpdateGoal(ctx context.Context, userID string, goal *model.Goal) (bool, error)
}
