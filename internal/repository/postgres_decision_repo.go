package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/lifelog/internal/model"
	"github.com/lib/pq"
)

// PostgresDecisionRepo はPostgreSQLを使用した意思決定リポジトリ。
type PostgresDecisionRepo struct {
	db *sql.DB
}

// NewPostgresDecisionRepo はPostgresDecisionRepoを生成する。
func NewPostgresDecisionRepo(db *sql.DB) *PostgresDecisionRepo {
	return &PostgresDecisionRepo{db: db}
}

const decisionColumns = `id, user_id, title, description, confidence_level, category, tags, life_phase_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDecision(row rowScanner) (*model.Decision, error) {
	d := &model.Decision{}
	var category, phaseID sql.NullString
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Description, &d.ConfidenceLevel,
		&category, pq.Array(&d.Tags), &phaseID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Category = nullStringPtr(category)
	d.LifePhaseID = nullStringPtr(phaseID)
	if d.Tags == nil {
		d.Tags = []string{}
	}
	d.Reflections = []model.Reflection{}
	return d, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// ListByUserID は作成日時の降順で振り返り付きの一覧を返す。
func (r *PostgresDecisionRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Decision, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+decisionColumns+`
		 FROM decisions
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	decisions := []*model.Decision{}
	byID := make(map[string]*model.Decision)
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decisions: %w", err)
	}
	if len(decisions) == 0 {
		return decisions, nil
	}

	reflections, err := r.listReflections(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	for _, ref := range reflections {
		if d, ok := byID[ref.DecisionID]; ok {
			d.Reflections = append(d.Reflections, ref)
		}
	}
	return decisions, nil
}

// FindByID は指定IDの意思決定を振り返り付きで取得する。見つからない場合はnilを返す。
func (r *PostgresDecisionRepo) FindByID(ctx context.Context, userID, id string) (*model.Decision, error) {
	d, err := scanDecision(r.db.QueryRowContext(ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find decision: %w", err)
	}

	reflections, err := r.listReflections(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	d.Reflections = reflections
	return d, nil
}

// listReflections はユーザーの振り返りを古い順に返す。decisionIDが空の場合は全件を返す。
func (r *PostgresDecisionRepo) listReflections(ctx context.Context, userID, decisionID string) ([]model.Reflection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, decision_id, content, created_at
		 FROM reflections
		 WHERE user_id = $1 AND ($2 = '' OR decision_id::text = $2)
		 ORDER BY created_at ASC`,
		userID, decisionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reflections: %w", err)
	}
	defer rows.Close()

	reflections := []model.Reflection{}
	for rows.Next() {
		var ref model.Reflection
		if err := rows.Scan(&ref.ID, &ref.DecisionID, &ref.Content, &ref.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reflection: %w", err)
		}
		reflections = append(reflections, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reflections: %w", err)
	}
	return reflections, nil
}

// Create は意思決定を作成する。
func (r *PostgresDecisionRepo) Create(ctx context.Context, d *model.Decision) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO decisions (`+decisionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.UserID, d.Title, d.Description, d.ConfidenceLevel,
		d.Category, pq.Array(nonNil(d.Tags)), d.LifePhaseID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create decision: %w", err)
	}
	return nil
}

// Update は意思決定を更新する。対象行が存在しない場合falseを返す。
func (r *PostgresDecisionRepo) Update(ctx context.Context, d *model.Decision) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE decisions
		 SET title = $3, description = $4, confidence_level = $5, category = $6,
		     tags = $7, life_phase_id = $8, updated_at = $9
		 WHERE id = $1 AND user_id = $2`,
		d.ID, d.UserID, d.Title, d.Description, d.ConfidenceLevel,
		d.Category, pq.Array(nonNil(d.Tags)), d.LifePhaseID, d.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update decision: %w", err)
	}
	return affected(result)
}

// Delete は意思決定を削除する。振り返りはCASCADE削除される。
func (r *PostgresDecisionRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM decisions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete decision: %w", err)
	}
	return affected(result)
}

// AddReflection は所有する意思決定に振り返りを追加する。対象がない場合falseを返す。
func (r *PostgresDecisionRepo) AddReflection(ctx context.Context, userID string, ref *model.Reflection) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO reflections (id, user_id, decision_id, content, created_at)
		 SELECT $1, user_id, id, $4, $5 FROM decisions WHERE id = $2 AND user_id = $3`,
		ref.ID, ref.DecisionID, userID, ref.Content, ref.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add reflection: %w", err)
	}
	return affected(result)
}

// compile-time interface check
var _ DecisionRepository = (*PostgresDecisionRepo)(nil)
