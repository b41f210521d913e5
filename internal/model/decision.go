package model

import "time"

// Decision はユーザーが記録した意思決定。
type Decision struct {
	ID              string
	UserID          string
	Title           string
	Description     string
	ConfidenceLevel int // 1-5
	Category        *string
	Tags            []string
	LifePhaseID     *string
	Reflections     []Reflection
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reflection は意思決定に対する後日の振り返り。
type Reflection struct {
	ID         string
	DecisionID string
	Content    string
	CreatedAt  time.Time
}

// DecisionInput は意思決定の作成パラメータ。
type DecisionInput struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description" validate:"max=10000"`
	ConfidenceLevel int      `json:"confidenceLevel" validate:"required,min=1,max=5"`
	Category        *string  `json:"category" validate:"omitempty,max=50"`
	Tags            []string `json:"tags" validate:"max=20,dive,max=50"`
	LifePhaseID     *string  `json:"lifePhaseId" validate:"omitempty,uuid"`
}

// DecisionPatch は意思決定の部分更新。nilのフィールドは変更しない。
type DecisionPatch struct {
	Title           *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string   `json:"description" validate:"omitempty,max=10000"`
	ConfidenceLevel *int      `json:"confidenceLevel" validate:"omitempty,min=1,max=5"`
	Category        *string   `json:"category" validate:"omitempty,max=50"`
	Tags            *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	LifePhaseID     *string   `json:"lifePhaseId" validate:"omitempty,len=0|uuid"`
}

// ReflectionInput は振り返りの作成パラメータ。
type ReflectionInput struct {
	Content string `json:"content" validate:"required,max=10000"`
}
