package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lifelog/internal/model"
)

// PostgresInviteCodeRepo はPostgreSQLを使用した招待コードリポジトリ。
type PostgresInviteCodeRepo struct {
	db *sql.DB
}

// NewPostgresInviteCodeRepo はPostgresInviteCodeRepoを生成する。
func NewPostgresInviteCodeRepo(db *sql.DB) *PostgresInviteCodeRepo {
	return &PostgresInviteCodeRepo{db: db}
}

// FindByCode は正規化済みのコードで招待コードを取得する。見つからない場合はnilを返す。
// 無効化されたコードもそのまま返し、判定は呼び出し側で行う。
func (r *PostgresInviteCodeRepo) FindByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	c := &model.InviteCode{}
	var expiresAt sql.NullTime
	var maxUses sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, code, is_active, expires_at, max_uses, current_uses, created_at, updated_at
		 FROM invite_codes
		 WHERE code = $1`,
		code,
	).Scan(&c.ID, &c.Code, &c.IsActive, &expiresAt, &maxUses, &c.CurrentUses, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invite code: %w", err)
	}

	if expiresAt.Valid {
		c.ExpiresAt = &expiresAt.Time
	}
	if maxUses.Valid {
		n := int(maxUses.Int64)
		c.MaxUses = &n
	}
	return c, nil
}

// redeemSQL は条件付きの加算と利用履歴の追加を1文で行う。
// 同時実行時も行ロックによりcurrent_usesがmax_usesを超えることはない。
const redeemSQL = `WITH consumed AS (
	UPDATE invite_codes
	SET current_uses = current_uses + 1, updated_at = now()
	WHERE code = $1
	  AND is_active
	  AND (expires_at IS NULL OR expires_at > now())
	  AND (max_uses IS NULL OR current_uses < max_uses)
	RETURNING id
)
INSERT INTO invite_redemptions (id, invite_code_id, user_id, redeemed_at)
SELECT $2, id, $3, now() FROM consumed`

// Redeem は単一のSQL文で使用回数の加算と利用履歴の記録を行う。
// 条件を満たさず加算できなかった場合はfalseを返す。
func (r *PostgresInviteCodeRepo) Redeem(ctx context.Context, code, redemptionID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, redeemSQL, code, redemptionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to redeem invite code: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ InviteCodeRepository = (*PostgresInviteCodeRepo)(nil)
