package model

import "time"

// InviteCode はアカウント作成を制限する招待コード。
// codeは大文字・前後空白除去済みの正規形で保存される。
// MaxUsesがnilの場合は使用回数無制限。
type InviteCode struct {
	ID          string
	Code        string
	IsActive    bool
	ExpiresAt   *time.Time
	MaxUses     *int
	CurrentUses int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsExpired は指定時刻時点で有効期限切れかどうかを返す。
func (c *InviteCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// IsExhausted は使用回数の上限に達しているかどうかを返す。
func (c *InviteCode) IsExhausted() bool {
	return c.MaxUses != nil && c.CurrentUses >= *c.MaxUses
}
