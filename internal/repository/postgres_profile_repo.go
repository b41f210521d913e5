package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/lifelog/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID はプロフィールをユーザー情報と結合して取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, userID string) (*model.Profile, error) {
	p := &model.Profile{}
	var username sql.NullString
	var prefs []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT p.id, COALESCE(u.email, ''), p.username, u.is_anonymous, p.preferences, p.created_at, p.updated_at
		 FROM profiles p
		 JOIN users u ON u.id = p.id
		 WHERE p.id = $1`,
		userID,
	).Scan(&p.ID, &p.Email, &username, &p.IsAnonymous, &prefs, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	if username.Valid {
		p.Username = &username.String
	}
	p.Preferences = model.DefaultPreferences()
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
			return nil, fmt.Errorf("failed to decode preferences: %w", err)
		}
	}
	return p, nil
}

// CreateIfAbsent はプロフィールが存在しない場合のみ作成する。
func (r *PostgresProfileRepo) CreateIfAbsent(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// UpdatePreferences はプリファレンスを置き換える。行がない場合はErrProfileNotFoundを返す。
func (r *PostgresProfileRepo) UpdatePreferences(ctx context.Context, userID string, prefs model.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET preferences = $2, updated_at = now() WHERE id = $1`,
		userID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return requireProfileRow(result)
}

func requireProfileRow(result sql.Result) error {
	found, err := affected(result)
	if err != nil {
		return err
	}
	if !found {
		return ErrProfileNotFound
	}
	return nil
}

// IsUsernameTaken は自分以外のプロフィールがusernameを使用しているかを返す。
// 比較は大文字小文字を区別しない。
func (r *PostgresProfileRepo) IsUsernameTaken(ctx context.Context, userID, username string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM profiles WHERE lower(username) = lower($1) AND id <> $2
		)`,
		username, userID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return taken, nil
}

// UpdateUsername はusernameを更新する。一意制約違反の場合はErrUsernameTakenを、
// 行がない場合はErrProfileNotFoundを返す。
func (r *PostgresProfileRepo) UpdateUsername(ctx context.Context, userID, username string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET username = $2, updated_at = now() WHERE id = $1`,
		userID, username,
	)
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	return requireProfileRow(result)
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
