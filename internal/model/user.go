package model

import "time"

// User は認証済みの主体（Identity）を表す。
// Googleログイン、メール/パスワード、匿名のいずれかで作成される。
type User struct {
	ID           string
	Email        string // 匿名ユーザーは空
	Name         string
	IsAnonymous  bool
	PasswordHash string // メール/パスワード登録の場合のみ
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Theme は表示テーマ。
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Preferences はユーザーの表示・通知設定。
type Preferences struct {
	Theme           Theme  `json:"theme"`
	ReminderEnabled bool   `json:"reminderEnabled"`
	ReminderTime    string `json:"reminderTime,omitempty"` // HH:MM
}

// DefaultPreferences はプロフィール作成時の初期設定を返す。
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeSystem}
}

// Profile はアプリケーションレベルのユーザー情報。IDはUser.IDと同一。
// usernameは大文字小文字を区別せず一意。未設定（nil）は予約扱いしない。
type Profile struct {
	ID          string
	Email       string
	Username    *string
	IsAnonymous bool
	Preferences Preferences
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PreferencesPatch はプリファレンスの部分更新を表す。nilのフィールドは変更しない。
type PreferencesPatch struct {
	Theme           *Theme  `json:"theme" validate:"omitempty,theme"`
	ReminderEnabled *bool   `json:"reminderEnabled"`
	ReminderTime    *string `json:"reminderTime" validate:"omitempty,hhmm"`
}

// Apply はパッチを適用した新しいPreferencesを返す。
func (p PreferencesPatch) Apply(base Preferences) Preferences {
	if p.Theme != nil {
		base.Theme = *p.Theme
	}
	if p.ReminderEnabled != nil {
		base.ReminderEnabled = *p.ReminderEnabled
	}
	if p.ReminderTime != nil {
		base.ReminderTime = *p.ReminderTime
	}
	return base
}

// PrivateProfile は本人だけが参照する内省用プロフィール。
type PrivateProfile struct {
	ID           string
	UserID       string
	Values       []string
	Joys         []string
	RememberedAs string
	ShareCode    *string
	ShareExpiry  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrivateProfileInput はプライベートプロフィールの保存パラメータ。
type PrivateProfileInput struct {
	Values       []string   `json:"values" validate:"max=20,dive,max=100"`
	Joys         []string   `json:"joys" validate:"max=20,dive,max=100"`
	RememberedAs string     `json:"rememberedAs" validate:"max=2000"`
	ShareCode    *string    `json:"shareCode" validate:"omitempty,alphanum,min=6,max=64"`
	ShareExpiry  *time.Time `json:"shareExpiry"`
}
