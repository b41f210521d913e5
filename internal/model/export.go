package model

import "time"

// ExportSnapshot はユーザーが持ち出すデータ一式。
type ExportSnapshot struct {
	Decisions      []*Decision
	JournalEntries []*JournalEntry
	LifePhases     []*LifePhase
	PrivateProfile *PrivateProfile
	ExportedAt     time.Time
}
