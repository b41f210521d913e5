package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lifelog/internal/model"
)

// PostgresJournalRepo はPostgreSQLを使用したジャーナルリポジトリ。
type PostgresJournalRepo struct {
	db *sql.DB
}

// NewPostgresJournalRepo はPostgresJournalRepoを生成する。
func NewPostgresJournalRepo(db *sql.DB) *PostgresJournalRepo {
	return &PostgresJournalRepo{db: db}
}

const journalColumns = `id, user_id, title, content, mood, life_phase_id, created_at, updated_at`

func scanJournalEntry(row rowScanner) (*model.JournalEntry, error) {
	e := &model.JournalEntry{}
	var title, mood, phaseID sql.NullString
	if err := row.Scan(&e.ID, &e.UserID, &title, &e.Content, &mood, &phaseID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Title = nullStringPtr(title)
	e.LifePhaseID = nullStringPtr(phaseID)
	if mood.Valid {
		m := model.Mood(mood.String)
		e.Mood = &m
	}
	return e, nil
}

// moodParam はmoodをSQLパラメータに変換する。
func moodParam(m *model.Mood) interface{} {
	if m == nil {
		return nil
	}
	return string(*m)
}

// ListByUserID は作成日時の降順でジャーナル一覧を返す。
func (r *PostgresJournalRepo) ListByUserID(ctx context.Context, userID string) ([]*model.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+journalColumns+`
		 FROM journal_entries
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	entries := []*model.JournalEntry{}
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}
	return entries, nil
}

// FindByID は見つからない場合nilを返す。
func (r *PostgresJournalRepo) FindByID(ctx context.Context, userID, id string) (*model.JournalEntry, error) {
	e, err := scanJournalEntry(r.db.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find journal entry: %w", err)
	}
	return e, nil
}

// Create はジャーナルエントリーを作成する。
func (r *PostgresJournalRepo) Create(ctx context.Context, e *model.JournalEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO journal_entries (`+journalColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.Title, e.Content, moodParam(e.Mood), e.LifePhaseID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create journal entry: %w", err)
	}
	return nil
}

// Update は対象行が存在しない場合falseを返す。
func (r *PostgresJournalRepo) Update(ctx context.Context, e *model.JournalEntry) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE journal_entries
		 SET title = $3, content = $4, mood = $5, life_phase_id = $6, updated_at = $7
		 WHERE id = $1 AND user_id = $2`,
		e.ID, e.UserID, e.Title, e.Content, moodParam(e.Mood), e.LifePhaseID, e.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update journal entry: %w", err)
	}
	return affected(result)
}

// Delete は対象行が存在しない場合falseを返す。
func (r *PostgresJournalRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete journal entry: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ JournalRepository = (*PostgresJournalRepo)(nil)
