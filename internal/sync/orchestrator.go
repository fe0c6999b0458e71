package sync

import (
	"context"
	"fmt"
	"log"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/classroom"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/config"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/database"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// SourceService はGitHub Classroomソースとのやり取りを抽象化するインターフェースです。
type SourceService interface {
	GetClassroomID(ctx context.Context, classroomName string) (string, error)
	ListAssignments(ctx context.Context, classroomID string) ([]classroom.AssignmentRef, error)
	DownloadGrades(ctx context.Context, assignmentID string) (*classroom.GradeExtract, error)
}

// LifecycleResolver は学生リポジトリのライフサイクル情報の取得を抽象化するインターフェースです。
type LifecycleResolver interface {
	ResolveStudent(ctx context.Context, githubUsername, repoURL string) *models.RepositoryInfo
}

// Summary は1回の同期実行の結果サマリーです。部分的に失敗した場合も必ず返されます。
type Summary struct {
	ClassroomID          string
	AssignmentsProcessed int
	AssignmentsSkipped   int
	GradeRecords         int
	StudentsRanked       int
	Written              int
	Skipped              int
	Failures             []string
}

// Orchestrator は同期実行全体を順序立てて実行する構造体です。
// 依存はすべてコンストラクタで注入します（グローバル状態は持ちません）。
type Orchestrator struct {
	cfg      *config.SyncConfig
	source   SourceService
	resolver LifecycleResolver
	store    database.SyncRepository
}

// NewOrchestrator は新しいOrchestratorインスタンスを作成します。
func NewOrchestrator(cfg *config.SyncConfig, source SourceService, resolver LifecycleResolver, store database.SyncRepository) *Orchestrator {
	return &Orchestrator{cfg: cfg, source: source, resolver: resolver, store: store}
}

// Run は同期を実行します:
// ソース解決 → 課題一覧 → (フィルター) → 課題ごとの正規化とライフサイクル解決 →
// 統合 → ランキング → 書き込み4フェーズ。
// 課題単位・レコード単位の失敗は記録してスキップし、致命的エラー（クラスルーム未解決、
// リトライ上限まで失敗した書き込みフェーズ）のみエラーとして返します。
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	log.Println("Orchestrator Info: GitHub Classroom同期を開始します")
	summary := &Summary{}

	classroomID, err := o.source.GetClassroomID(ctx, o.cfg.ClassroomName)
	if err != nil {
		return summary, fmt.Errorf("クラスルームの解決に失敗しました: %w", err)
	}
	if classroomID == "" {
		return summary, fmt.Errorf("クラスルーム '%s' が見つかりません", o.cfg.ClassroomName)
	}
	summary.ClassroomID = classroomID

	assignments, err := o.source.ListAssignments(ctx, classroomID)
	if err != nil {
		return summary, fmt.Errorf("課題一覧の取得に失敗しました: %w", err)
	}
	if len(assignments) == 0 {
		// 課題が無いのは正常な空の結果として扱う
		log.Println("Orchestrator Warn: 課題が見つかりませんでした")
		return summary, nil
	}

	if o.cfg.AssignmentID != "" {
		assignments = filterAssignments(assignments, o.cfg.AssignmentID)
		log.Printf("Orchestrator Info: 課題ID %s のみに絞り込みました (%d 件)", o.cfg.AssignmentID, len(assignments))
		if len(assignments) == 0 {
			return summary, nil
		}
	}

	extracts, lifecycles := o.processAssignments(ctx, assignments, summary)
	if len(extracts) == 0 {
		log.Println("Orchestrator Warn: どの課題からも成績データを取得できませんでした")
		return summary, nil
	}

	ws := Consolidate(extracts, lifecycles)
	summary.GradeRecords = len(ws.Grades)

	entries := BuildLeaderboard(ws)
	summary.StudentsRanked = len(entries)

	if err := o.writePhases(ctx, ws, entries, summary); err != nil {
		return summary, err
	}

	log.Printf("Orchestrator Info: 同期が完了しました。成績 %d 件、学生 %d 人を処理しました", summary.GradeRecords, summary.StudentsRanked)
	return summary, nil
}

// processAssignments は課題をソース順に処理します。1つの課題の失敗はその課題の
// スキップとして記録し、残りの課題の処理を続行します。
func (o *Orchestrator) processAssignments(ctx context.Context, assignments []classroom.AssignmentRef, summary *Summary) ([]*NormalizedExtract, map[string]*models.RepositoryInfo) {
	var extracts []*NormalizedExtract
	lifecycles := make(map[string]*models.RepositoryInfo)

	for _, ref := range assignments {
		log.Printf("Orchestrator Info: 課題を処理中: %s (ID: %s)", ref.Name, ref.ID)

		extract, err := o.source.DownloadGrades(ctx, ref.ID)
		if err != nil {
			summary.AssignmentsSkipped++
			summary.Failures = append(summary.Failures, fmt.Sprintf("課題 %s: %v", ref.Name, err))
			continue
		}
		if extract == nil {
			log.Printf("Orchestrator Warn: 課題 %s に成績データがありません", ref.Name)
			summary.AssignmentsSkipped++
			continue
		}

		normalized, err := NormalizeExtract(extract, ref.Name)
		if err != nil {
			summary.AssignmentsSkipped++
			summary.Failures = append(summary.Failures, fmt.Sprintf("課題 %s: %v", ref.Name, err))
			continue
		}
		summary.Failures = append(summary.Failures, normalized.DroppedRows...)

		// ライフサイクル解決はリゾルバー側でユーザー名単位にメモ化されるため、
		// 複数の課題に同じ学生が現れても外部呼び出しは1回だけになる
		for username, repoURL := range normalized.RepoURLs {
			lifecycles[username] = o.resolver.ResolveStudent(ctx, username, repoURL)
		}

		extracts = append(extracts, normalized)
		summary.AssignmentsProcessed++
		log.Printf("Orchestrator Info: 課題 %s の成績 %d 件を処理しました", normalized.AssignmentName, len(normalized.Records))
	}

	return extracts, lifecycles
}

// writePhases は4つの書き込みフェーズを順に実行します。
// あるフェーズがリトライ上限まで失敗した場合、後続のフェーズは実行しません。
func (o *Orchestrator) writePhases(ctx context.Context, ws *WorkingSet, entries []models.LeaderboardEntry, summary *Summary) error {
	students := make([]models.Student, 0, len(ws.Students))
	for _, s := range ws.Students {
		students = append(students, *s)
	}

	phases := []struct {
		name string
		run  func() (*database.WriteResult, error)
	}{
		{"students", func() (*database.WriteResult, error) { return o.store.UpsertStudents(ctx, students) }},
		{"assignments", func() (*database.WriteResult, error) { return o.store.UpsertAssignments(ctx, ws.Assignments) }},
		{"grades", func() (*database.WriteResult, error) { return o.store.UpsertGrades(ctx, ws.Grades) }},
		{"leaderboard", func() (*database.WriteResult, error) { return o.store.ReplaceLeaderboard(ctx, entries) }},
	}

	for _, phase := range phases {
		result, err := phase.run()
		if result != nil {
			summary.Written += result.Written
			summary.Skipped += result.Skipped
			summary.Failures = append(summary.Failures, result.Failures...)
		}
		if err != nil {
			return fmt.Errorf("書き込みフェーズ %s が失敗したため、後続のフェーズを中止します: %w", phase.name, err)
		}
	}
	return nil
}

func filterAssignments(assignments []classroom.AssignmentRef, assignmentID string) []classroom.AssignmentRef {
	var filtered []classroom.AssignmentRef
	for _, a := range assignments {
		if a.ID == assignmentID {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
