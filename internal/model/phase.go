package model

import "time"

// GoalStatus は目標の状態。
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// LifePhase は人生の一区切り。ユーザーごとにアクティブなフェーズは最大1つ。
type LifePhase struct {
	ID          string
	UserID      string
	Name        string
	Description *string
	StartDate   time.Time
	EndDate     *time.Time
	IsActive    bool
	Values      []string
	Goals       []Goal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Goal はライフフェーズに紐づく目標。
type Goal struct {
	ID          string
	LifePhaseID string
	Title       string
	Description *string
	Status      GoalStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PhaseInput はライフフェーズの作成パラメータ。StartDate省略時は作成日時。
type PhaseInput struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	StartDate   *time.Time `json:"startDate"`
	IsActive    bool       `json:"isActive"`
	Values      []string   `json:"values" validate:"max=20,dive,max=50"`
}

// PhasePatch はライフフェーズの部分更新。
type PhasePatch struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	IsActive    *bool      `json:"isActive"`
	EndDate     *time.Time `json:"endDate"`
	Values      *[]string  `json:"values" validate:"omitempty,max=20,dive,max=50"`
}

// GoalInput は目標の作成パラメータ。
type GoalInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// GoalPatch は目標の部分更新。
type GoalPatch struct {
	Title       *string     `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string     `json:"description" validate:"omitempty,max=2000"`
	Status      *GoalStatus `json:"status" validate:"omitempty,goalstatus"`
}
