package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/lifelog/internal/model"
	"github.com/hitoshi/lifelog/internal/repository"
)

// insertUsers はn人のユーザーを作成しIDを返す。
func insertUsers(t *testing.T, db *sql.DB, prefix string, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := range ids {
		err := db.QueryRow(
			`INSERT INTO users (email) VALUES ($1) RETURNING id`,
			fmt.Sprintf("%s-%d@example.com", prefix, i),
		).Scan(&ids[i])
		if err != nil {
			t.Fatalf("ユーザー作成に失敗: %v", err)
		}
	}
	return ids
}

// runTogether はn個のfnを一斉に開始し、すべての終了を待つ。
func runTogether(n int, fn func(i int)) {
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
}

func TestPostgresInviteCodeRepo_Redeem_ConcurrentStopsAtMaxUses(t *testing.T) {
	db := migratedDB(t)
	ctx := context.Background()

	const maxUses = 3
	const callers = 12

	if _, err := db.Exec(
		`INSERT INTO invite_codes (code, max_uses) VALUES ('RACE3', $1)`, maxUses,
	); err != nil {
		t.Fatalf("招待コード作成に失敗: %v", err)
	}
	users := insertUsers(t, db, "race", callers)

	repo := repository.NewPostgresInviteCodeRepo(db)
	redeemed := make([]bool, callers)
	errs := make([]error, callers)
	runTogether(callers, func(i int) {
		redeemed[i], errs[i] = repo.Redeem(ctx, "RACE3", uuid.NewString(), users[i])
	})

	wins := 0
	for i := range redeemed {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error: %v", i, errs[i])
		}
		if redeemed[i] {
			wins++
		}
	}
	if wins != maxUses {
		t.Errorf("successful redemptions = %d, want %d", wins, maxUses)
	}

	var currentUses int
	if err := db.QueryRow(`SELECT current_uses FROM invite_codes WHERE code = 'RACE3'`).Scan(&currentUses); err != nil {
		t.Fatalf("current_uses取得に失敗: %v", err)
	}
	if currentUses != maxUses {
		t.Errorf("current_uses = %d, want %d", currentUses, maxUses)
	}

	var rows int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM invite_redemptions r
		 JOIN invite_codes c ON c.id = r.invite_code_id
		 WHERE c.code = 'RACE3'`,
	).Scan(&rows)
	if err != nil {
		t.Fatalf("利用履歴の件数取得に失敗: %v", err)
	}
	if rows != maxUses {
		t.Errorf("invite_redemptions rows = %d, want %d", rows, maxUses)
	}

	// 上限到達後は以降の利用も拒否される
	ok, err := repo.Redeem(ctx, "RACE3", uuid.NewString(), users[0])
	if err != nil || ok {
		t.Errorf("Redeem after exhaustion = %v, %v; want false, nil", ok, err)
	}
}

func TestPostgresPhaseRepo_ConcurrentActivation_LeavesOneActive(t *testing.T) {
	db := migratedDB(t)
	ctx := context.Background()
	repo := repository.NewPostgresPhaseRepo(db)

	const writers = 8
	userID := insertUsers(t, db, "phase", 1)[0]
	now := time.Now()

	// 半分は既存フェーズのアクティブ化、残りはアクティブとして新規作成
	existing := make([]*model.LifePhase, writers/2)
	for i := range existing {
		existing[i] = &model.LifePhase{
			ID: uuid.NewString(), UserID: userID, Name: fmt.Sprintf("Existing %d", i),
			StartDate: now, CreatedAt: now, UpdatedAt: now,
		}
		if err := repo.Create(ctx, existing[i]); err != nil {
			t.Fatalf("フェーズ作成に失敗: %v", err)
		}
	}

	errs := make([]error, writers)
	runTogether(writers, func(i int) {
		if i < len(existing) {
			p := *existing[i]
			p.IsActive = true
			p.UpdatedAt = time.Now()
			found, err := repo.Update(ctx, &p)
			if err == nil && !found {
				err = fmt.Errorf("phase %s not found", p.ID)
			}
			errs[i] = err
			return
		}
		errs[i] = repo.Create(ctx, &model.LifePhase{
			ID: uuid.NewString(), UserID: userID, Name: fmt.Sprintf("New %d", i),
			StartDate: now, IsActive: true, CreatedAt: now, UpdatedAt: now,
		})
	})

	for i, err := range errs {
		if err != nil {
			t.Errorf("writer %d: unexpected error: %v", i, err)
		}
	}

	var active, total int
	err := db.QueryRow(
		`SELECT COUNT(*) FILTER (WHERE is_active), COUNT(*) FROM life_phases WHERE user_id = $1`, userID,
	).Scan(&active, &total)
	if err != nil {
		t.Fatalf("フェーズ件数の取得に失敗: %v", err)
	}
	if active != 1 {
		t.Errorf("active phases = %d, want 1", active)
	}
	if total != writers {
		t.Errorf("phases = %d, want %d", total, writers)
	}
}
