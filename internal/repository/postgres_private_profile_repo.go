package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lifelog/internal/model"
	"github.com/lib/pq"
)

// PostgresPrivateProfileRepo はPostgreSQLを使用したプライベートプロフィールリポジトリ。
type PostgresPrivateProfileRepo struct {
	db *sql.DB
}

// NewPostgresPrivateProfileRepo はPostgresPrivateProfileRepoを生成する。
func NewPostgresPrivateProfileRepo(db *sql.DB) *PostgresPrivateProfileRepo {
	return &PostgresPrivateProfileRepo{db: db}
}

const privateProfileColumns = `id, user_id, "values", joys, remembered_as, share_code, share_expiry, created_at, updated_at`

func scanPrivateProfile(row *sql.Row) (*model.PrivateProfile, error) {
	p := &model.PrivateProfile{}
	var shareCode sql.NullString
	var shareExpiry sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, pq.Array(&p.Values), pq.Array(&p.Joys), &p.RememberedAs,
		&shareCode, &shareExpiry, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if shareCode.Valid {
		p.ShareCode = &shareCode.String
	}
	if shareExpiry.Valid {
		p.ShareExpiry = &shareExpiry.Time
	}
	return p, nil
}

// FindByUserID はユーザーのプライベートプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresPrivateProfileRepo) FindByUserID(ctx context.Context, userID string) (*model.PrivateProfile, error) {
	p, err := scanPrivateProfile(r.db.QueryRowContext(ctx,
		`SELECT `+privateProfileColumns+` FROM private_profiles WHERE user_id = $1`,
		userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find private profile: %w", err)
	}
	return p, nil
}

// Upsert はユーザーごとに1件のプライベートプロフィールを作成または更新する。
func (r *PostgresPrivateProfileRepo) Upsert(ctx context.Context, profile *model.PrivateProfile) (*model.PrivateProfile, error) {
	p, err := scanPrivateProfile(r.db.QueryRowContext(ctx,
		`INSERT INTO private_profiles (id, user_id, "values", joys, remembered_as, share_code, share_expiry, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		 ON CONFLICT (user_id) DO UPDATE SET
			"values" = EXCLUDED."values",
			joys = EXCLUDED.joys,
			remembered_as = EXCLUDED.remembered_as,
			share_code = EXCLUDED.share_code,
			share_expiry = EXCLUDED.share_expiry,
			updated_at = now()
		 RETURNING `+privateProfileColumns,
		profile.ID, profile.UserID, pq.Array(nonNil(profile.Values)), pq.Array(nonNil(profile.Joys)),
		profile.RememberedAs, profile.ShareCode, profile.ShareExpiry,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert private profile: %w", err)
	}
	return p, nil
}

// nonNil はNOT NULL配列カラムに渡すため、nilスライスを空スライスに変換する。
func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// compile-time interface check
var _ PrivateProfileRepository = (*PostgresPrivateProfileRepo)(nil)
