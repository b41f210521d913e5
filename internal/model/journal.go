package model

import "time"

// Mood はジャーナルエントリーの気分タグ。
type Mood string

const (
	MoodCalm      Mood = "calm"
	MoodContent   Mood = "content"
	MoodUncertain Mood = "uncertain"
	MoodAnxious   Mood = "anxious"
	MoodHopeful   Mood = "hopeful"
	MoodGrateful  Mood = "grateful"
)

// JournalEntry は自由記述のジャーナル。
type JournalEntry struct {
	ID          string
	UserID      string
	Title       *string
	Content     string
	Mood        *Mood
	LifePhaseID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Valid は定義済みの気分か空文字列かを返す。空文字列は気分なしを表す。
func (m Mood) Valid() bool {
	switch m {
	case "", MoodCalm, MoodContent, MoodUncertain, MoodAnxious, MoodHopeful, MoodGrateful:
		return true
	}
	return false
}

// JournalInput はジャーナルの作成パラメータ。
type JournalInput struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Content     string  `json:"content" validate:"required,max=50000"`
	Mood        *Mood   `json:"mood" validate:"omitempty,mood"`
	LifePhaseID *string `json:"lifePhaseId" validate:"omitempty,uuid"`
}

// JournalPatch はジャーナルの部分更新。
type JournalPatch struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Content     *string `json:"content" validate:"omitempty,min=1,max=50000"`
	Mood        *Mood   `json:"mood" validate:"omitempty,mood"`
	LifePhaseID *string `json:"lifePhaseId" validate:"omitempty,len=0|uuid"`
}
