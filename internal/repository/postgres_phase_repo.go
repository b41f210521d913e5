package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lifelog/internal/model"
	"github.com/lib/pq"
)

// PostgresPhaseRepo はPostgreSQLを使用したライフフェーズリポジトリ。
// アクティブなフェーズの切り替えはトランザクション内で行い、
// 部分ユニークインデックス(user_id) WHERE is_activeで一意性を保証する。
type PostgresPhaseRepo struct {
	db *sql.DB
}

// NewPostgresPhaseRepo はPostgresPhaseRepoを生成する。
func NewPostgresPhaseRepo(db *sql.DB) *PostgresPhaseRepo {
	return &PostgresPhaseRepo{db: db}
}

const phaseColumns = `id, user_id, name, description, start_date, end_date, is_active, "values", created_at, updated_at`

func scanPhase(row rowScanner) (*model.LifePhase, error) {
	p := &model.LifePhase{}
	var description sql.NullString
	var endDate sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.StartDate, &endDate,
		&p.IsActive, pq.Array(&p.Values), &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = nullStringPtr(description)
	if endDate.Valid {
		t := endDate.Time
		p.EndDate = &t
	}
	if p.Values == nil {
		p.Values = []string{}
	}
	p.Goals = []model.Goal{}
	return p, nil
}

func scanGoal(row rowScanner) (*model.Goal, error) {
	g := &model.Goal{}
	var description sql.NullString
	var status string
	if err := row.Scan(&g.ID, &g.LifePhaseID, &g.Title, &description, &status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Description = nullStringPtr(description)
	g.Status = model.GoalStatus(status)
	return g, nil
}

// ListByUserID は開始日の降順で目標付きの一覧を返す。
func (r *PostgresPhaseRepo) ListByUserID(ctx context.Context, userID string) ([]*model.LifePhase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+phaseColumns+`
		 FROM life_phases
		 WHERE user_id = $1
		 ORDER BY start_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list life phases: %w", err)
	}
	defer rows.Close()

	phases := []*model.LifePhase{}
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan life phase: %w", err)
		}
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate life phases: %w", err)
	}
	if len(phases) == 0 {
		return phases, nil
	}

	if err := r.attachGoals(ctx, userID, phases); err != nil {
		return nil, err
	}
	return phases, nil
}

// attachGoals はユーザーの目標を作成順に取得し、各フェーズに割り当てる。
func (r *PostgresPhaseRepo) attachGoals(ctx context.Context, userID string, phases []*model.LifePhase) error {
	ids := make([]string, 0, len(phases))
	byID := make(map[string]*model.LifePhase, len(phases))
	for _, p := range phases {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, life_phase_id, title, description, status, created_at, updated_at
		 FROM goals
		 WHERE user_id = $1 AND life_phase_id = ANY($2::uuid[])
		 ORDER BY created_at ASC`,
		userID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return fmt.Errorf("failed to scan goal: %w", err)
		}
		if p, ok := byID[g.LifePhaseID]; ok {
			p.Goals = append(p.Goals, *g)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate goals: %w", err)
	}
	return nil
}

func (r *PostgresPhaseRepo) findOne(ctx context.Context, userID, where string, args ...interface{}) (*model.LifePhase, error) {
	p, err := scanPhase(r.db.QueryRowContext(ctx,
		`SELECT `+phaseColumns+` FROM life_phases WHERE `+where,
		args...,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find life phase: %w", err)
	}
	if err := r.attachGoals(ctx, userID, []*model.LifePhase{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID は見つからない場合nilを返す。
func (r *PostgresPhaseRepo) FindByID(ctx context.Context, userID, id string) (*model.LifePhase, error) {
	return r.findOne(ctx, userID, `id = $1 AND user_id = $2`, id, userID)
}

// FindActive はアクティブなフェーズを返す。存在しない場合nilを返す。
func (r *PostgresPhaseRepo) FindActive(ctx context.Context, userID string) (*model.LifePhase, error) {
	return r.findOne(ctx, userID, `user_id = $1 AND is_active`, userID)
}

// lockPhaseOwner はユーザー行をロックし、同一ユーザーのアクティブ化を直列化する。
// フェーズが1件もない状態でも効くようにlife_phasesではなくusersをロックする。
// FOR NO KEY UPDATEは子テーブルのFK検査(KEY SHARE)とは競合しない。
func lockPhaseOwner(ctx context.Context, tx *sql.Tx, userID string) error {
	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM users WHERE id = $1 FOR NO KEY UPDATE`, userID,
	); err != nil {
		return fmt.Errorf("failed to lock phase owner: %w", err)
	}
	return nil
}

// activate はロック取得後に他のアクティブなフェーズを非アクティブにする。
func activate(ctx context.Context, tx *sql.Tx, userID, keepID string) error {
	if err := lockPhaseOwner(ctx, tx, userID); err != nil {
		return err
	}
	return deactivateOthers(ctx, tx, userID, keepID)
}

// deactivateOthers は指定フェーズ以外のアクティブなフェーズを非アクティブにする。
func deactivateOthers(ctx context.Context, tx *sql.Tx, userID, keepID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE life_phases SET is_active = FALSE, updated_at = now()
		 WHERE user_id = $1 AND is_active AND id <> $2`,
		userID, keepID,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate life phases: %w", err)
	}
	return nil
}

// Create はフェーズを作成する。アクティブとして作成する場合は
// 同一トランザクションで他のフェーズを非アクティブにする。
func (r *PostgresPhaseRepo) Create(ctx context.Context, p *model.LifePhase) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if p.IsActive {
		if err := activate(ctx, tx, p.UserID, p.ID); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO life_phases (`+phaseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, p.Name, p.Description, p.StartDate, p.EndDate,
		p.IsActive, pq.Array(nonNil(p.Values)), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create life phase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Update はフェーズを更新する。アクティブ化する場合は
// 同一トランザクションで他のフェーズを非アクティブにする。
func (r *PostgresPhaseRepo) Update(ctx context.Context, p *model.LifePhase) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if p.IsActive {
		if err := activate(ctx, tx, p.UserID, p.ID); err != nil {
			return false, err
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE life_phases
		 SET name = $3, description = $4, end_date = $5, is_active = $6, "values" = $7, updated_at = $8
		 WHERE id = $1 AND user_id = $2`,
		p.ID, p.UserID, p.Name, p.Description, p.EndDate, p.IsActive, pq.Array(nonNil(p.Values)), p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update life phase: %w", err)
	}
	found, err := affected(result)
	if err != nil || !found {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// Delete は対象行が存在しない場合falseを返す。目標はCASCADE削除される。
func (r *PostgresPhaseRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM life_phases WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete life phase: %w", err)
	}
	return affected(result)
}

// AddGoal は所有するフェーズに目標を追加する。対象がない場合falseを返す。
func (r *PostgresPhaseRepo) AddGoal(ctx context.Context, userID string, g *model.Goal) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, life_phase_id, title, description, status, created_at, updated_at)
		 SELECT $1, user_id, id, $4, $5, $6, $7, $8 FROM life_phases WHERE id = $2 AND user_id = $3`,
		g.ID, g.LifePhaseID, userID, g.Title, g.Description, string(g.Status), g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add goal: %w", err)
	}
	return affected(result)
}

// FindGoalByID は見つからない場合nilを返す。
func (r *PostgresPhaseRepo) FindGoalByID(ctx context.Context, userID, id string) (*model.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT id, life_phase_id, title, description, status, created_at, updated_at
		 FROM goals WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal: %w", err)
	}
	return g, nil
}

// UpdateGoal は対象行が存在しない場合falseを返す。
func (r *PostgresPhaseRepo) UpdateGoal(ctx context.Context, userID string, g *model.Goal) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE goals SET title = $3, description = $4, status = $5, updated_at = $6
		 WHERE id = $1 AND user_id = $2`,
		g.ID, userID, g.Title, g.Description, string(g.Status), g.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update goal: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ PhaseRepository = (*PostgresPhaseRepo)(nil)
