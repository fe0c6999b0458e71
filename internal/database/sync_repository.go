package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// writeBatchSize は1回のINSERTにまとめるレコード数です。
const writeBatchSize = 10

// WriteResult は1つの書き込みフェーズの結果サマリーです。
type WriteResult struct {
	Written  int
	Skipped  int
	Failures []string
}

// SyncRepository は同期実行の書き込みフェーズを定義するインターフェースです。
// すべての書き込みは自然キーによるupsertで、同じデータでの再実行は冪等です。
type SyncRepository interface {
	// UpsertStudents は学生をgithub_usernameキーでupsertします
	UpsertStudents(ctx context.Context, students []models.Student) (*WriteResult, error)

	// UpsertAssignments は課題をnameキーでupsertします
	UpsertAssignments(ctx context.Context, assignments []models.Assignment) (*WriteResult, error)

	// UpsertGrades は成績を(github_username, assignment_name)キーでupsertします
	UpsertGrades(ctx context.Context, grades []models.GradeRecord) (*WriteResult, error)

	// ReplaceLeaderboard はリーダーボードをクリアしてから全件を書き込みます
	ReplaceLeaderboard(ctx context.Context, entries []models.LeaderboardEntry) (*WriteResult, error)
}

// syncRepositoryImpl はSyncRepositoryインターフェースの実装です。
type syncRepositoryImpl struct {
	db         *sql.DB
	maxRetries int
}

// NewSyncRepository はSyncRepositoryの新しいインスタンスを作成します。
func NewSyncRepository(db *sql.DB, maxRetries int) SyncRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &syncRepositoryImpl{db: db, maxRetries: maxRetries}
}

// withRetry は操作を最大maxRetries回まで試します。バックオフは行いません。
func (r *syncRepositoryImpl) withRetry(op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Printf("SyncRepository Error: %s に失敗しました (試行 %d/%d): %v", op, attempt, r.maxRetries, err)
	}
	return err
}

// writeInBatches はレコードをバッチ単位で書き込み、失敗したバッチは1件ずつの書き込みに
// フォールバックします。個別レコードの失敗は記録してスキップし、フェーズ全体で1件も
// 書き込めなかった場合のみPersistenceErrorを返します。
func (r *syncRepositoryImpl) writeInBatches(label string, total int, execBatch func(lo, hi int) error, execOne func(i int) error, result *WriteResult) error {
	for lo := 0; lo < total; lo += writeBatchSize {
		hi := min(lo+writeBatchSize, total)

		err := r.withRetry(fmt.Sprintf("%s バッチ書き込み", label), func() error {
			return execBatch(lo, hi)
		})
		if err == nil {
			result.Written += hi - lo
			continue
		}

		// 不正なレコード1件がバッチ全体を道連れにしないよう、1件ずつ書き込む
		log.Printf("SyncRepository Warn: %s のバッチ書き込みに失敗したため、1件ずつ書き込みます", label)
		for i := lo; i < hi; i++ {
			err := r.withRetry(fmt.Sprintf("%s 個別書き込み", label), func() error {
				return execOne(i)
			})
			if err != nil {
				result.Skipped++
				result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", label, err))
				continue
			}
			result.Written++
		}
	}

	if total > 0 && result.Written == 0 {
		return &PersistenceError{Op: label, Err: errors.New("リトライ上限までにレコードを1件も書き込めませんでした")}
	}
	return nil
}

// UpsertStudents は学生をgithub_usernameキーでupsertします。
func (r *syncRepositoryImpl) UpsertStudents(ctx context.Context, students []models.Student) (*WriteResult, error) {
	result := &WriteResult{}
	valid := coerceStudents(students, result)
	if len(valid) == 0 {
		log.Println("SyncRepository Warn: 同期対象の有効な学生データがありません")
		return result, nil
	}
	log.Printf("SyncRepository Info: %d 人の学生を同期中...", len(valid))

	now := time.Now()
	exec := func(lo, hi int) error { return r.execStudentUpsert(ctx, valid[lo:hi], now) }
	err := r.writeInBatches("students", len(valid), exec, func(i int) error { return exec(i, i+1) }, result)
	return result, err
}

func (r *syncRepositoryImpl) execStudentUpsert(ctx context.Context, batch []models.Student, now time.Time) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO students (github_username, fork_created_at, last_updated_at, has_fork, updated_at) VALUES ")
	args := make([]interface{}, 0, len(batch)*5)
	for i, s := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholders(i*5, 5))
		args = append(args, s.GithubUsername, s.ForkCreatedAt, s.LastUpdatedAt, s.HasFork, now)
	}
	sb.WriteString(` ON CONFLICT (github_username) DO UPDATE SET
		fork_created_at = EXCLUDED.fork_created_at,
		last_updated_at = EXCLUDED.last_updated_at,
		has_fork = EXCLUDED.has_fork,
		updated_at = EXCLUDED.updated_at`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("学生レコードのupsertに失敗しました: %w", err)
	}
	return nil
}

// UpsertAssignments は課題をnameキーでupsertします。
func (r *syncRepositoryImpl) UpsertAssignments(ctx context.Context, assignments []models.Assignment) (*WriteResult, error) {
	result := &WriteResult{}
	valid := coerceAssignments(assignments, result)
	if len(valid) == 0 {
		log.Println("SyncRepository Warn: 同期対象の有効な課題データがありません")
		return result, nil
	}
	log.Printf("SyncRepository Info: %d 件の課題を同期中...", len(valid))

	now := time.Now()
	exec := func(lo, hi int) error { return r.execAssignmentUpsert(ctx, valid[lo:hi], now) }
	err := r.writeInBatches("assignments", len(valid), exec, func(i int) error { return exec(i, i+1) }, result)
	return result, err
}

func (r *syncRepositoryImpl) execAssignmentUpsert(ctx context.Context, batch []models.Assignment, now time.Time) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO assignments (name, points_available, updated_at) VALUES ")
	args := make([]interface{}, 0, len(batch)*3)
	for i, a := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholders(i*3, 3))
		args = append(args, a.Name, a.PointsAvailable, now)
	}
	sb.WriteString(` ON CONFLICT (name) DO UPDATE SET
		points_available = EXCLUDED.points_available,
		updated_at = EXCLUDED.updated_at`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("課題レコードのupsertに失敗しました: %w", err)
	}
	return nil
}

// UpsertGrades は成績を(github_username, assignment_name)キーでupsertします。
func (r *syncRepositoryImpl) UpsertGrades(ctx context.Context, grades []models.GradeRecord) (*WriteResult, error) {
	result := &WriteResult{}
	valid := coerceGrades(grades, result)
	if len(valid) == 0 {
		log.Println("SyncRepository Warn: 同期対象の有効な成績データがありません")
		return result, nil
	}
	log.Printf("SyncRepository Info: %d 件の成績レコードを同期中...", len(valid))

	now := time.Now()
	exec := func(lo, hi int) error { return r.execGradeUpsert(ctx, valid[lo:hi], now) }
	err := r.writeInBatches("grades", len(valid), exec, func(i int) error { return exec(i, i+1) }, result)
	return result, err
}

func (r *syncRepositoryImpl) execGradeUpsert(ctx context.Context, batch []models.GradeRecord, now time.Time) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO grades (github_username, assignment_name, points_awarded, updated_at) VALUES ")
	args := make([]interface{}, 0, len(batch)*4)
	for i, g := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholders(i*4, 4))
		args = append(args, g.GithubUsername, g.AssignmentName, g.PointsAwarded, now)
	}
	sb.WriteString(` ON CONFLICT (github_username, assignment_name) DO UPDATE SET
		points_awarded = EXCLUDED.points_awarded,
		updated_at = EXCLUDED.updated_at`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("成績レコードのupsertに失敗しました: %w", err)
	}
	return nil
}

// ReplaceLeaderboard はリーダーボードを全件置き換えます。
// 先にベストエフォートでクリアします。クリアに失敗しても実行は中断せず挿入へ進みますが、
// その場合は新しいセットに含まれない古い行が次回の成功まで残る可能性があります（既知の弱点）。
func (r *syncRepositoryImpl) ReplaceLeaderboard(ctx context.Context, entries []models.LeaderboardEntry) (*WriteResult, error) {
	result := &WriteResult{}
	if len(entries) == 0 {
		log.Println("SyncRepository Warn: リーダーボードに書き込む学生がいません")
		return result, nil
	}
	log.Printf("SyncRepository Info: リーダーボードを %d 件で置き換え中...", len(entries))

	if _, err := r.db.ExecContext(ctx, "DELETE FROM leaderboard"); err != nil {
		log.Printf("SyncRepository Warn: リーダーボードのクリアに失敗しました（挿入は続行します）: %v", err)
	}

	// 挿入はINSERT、フォールバックはupsert。クリアが失敗していた場合でも
	// 1件ずつの書き込みが既存行と衝突せずに収束するようにします。
	err := r.writeInBatches("leaderboard", len(entries),
		func(lo, hi int) error { return r.execLeaderboardInsert(ctx, entries[lo:hi]) },
		func(i int) error { return r.execLeaderboardUpsert(ctx, entries[i]) },
		result)
	return result, err
}

func leaderboardArgs(e models.LeaderboardEntry) []interface{} {
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	return []interface{}{
		id, e.GithubUsername, e.ForkCreatedAt, e.LastUpdatedAt, e.ResolutionTimeHours,
		e.HasFork, e.TotalScore, e.TotalPossible, e.Percentage, e.AssignmentsCompleted, e.RankingPosition,
	}
}

const leaderboardColumns = "(id, github_username, fork_created_at, last_updated_at, resolution_time_hours, has_fork, total_score, total_possible, percentage, assignments_completed, ranking_position)"

func (r *syncRepositoryImpl) execLeaderboardInsert(ctx context.Context, batch []models.LeaderboardEntry) error {
	var sb strings.Builder
	sb.WriteString("INSERT INTO leaderboard " + leaderboardColumns + " VALUES ")
	args := make([]interface{}, 0, len(batch)*11)
	for i, e := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholders(i*11, 11))
		args = append(args, leaderboardArgs(e)...)
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("リーダーボードの挿入に失敗しました: %w", err)
	}
	return nil
}

func (r *syncRepositoryImpl) execLeaderboardUpsert(ctx context.Context, e models.LeaderboardEntry) error {
	query := "INSERT INTO leaderboard " + leaderboardColumns + " VALUES " + placeholders(0, 11) + `
		ON CONFLICT (github_username) DO UPDATE SET
			fork_created_at = EXCLUDED.fork_created_at,
			last_updated_at = EXCLUDED.last_updated_at,
			resolution_time_hours = EXCLUDED.resolution_time_hours,
			has_fork = EXCLUDED.has_fork,
			total_score = EXCLUDED.total_score,
			total_possible = EXCLUDED.total_possible,
			percentage = EXCLUDED.percentage,
			assignments_completed = EXCLUDED.assignments_completed,
			ranking_position = EXCLUDED.ranking_position`

	if _, err := r.db.ExecContext(ctx, query, leaderboardArgs(e)...); err != nil {
		return fmt.Errorf("リーダーボード行 %s のupsertに失敗しました: %w", e.GithubUsername, err)
	}
	return nil
}

// placeholders は "($N, $N+1, ...)" 形式のプレースホルダー列を生成します。
func placeholders(offset, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = fmt.Sprintf("$%d", offset+i+1)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
