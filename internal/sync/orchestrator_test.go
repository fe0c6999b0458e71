package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/classroom"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/config"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/database"
	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// fakeSource はテスト用のSourceService実装です。
type fakeSource struct {
	classroomID string
	assignments []classroom.AssignmentRef
	extracts    map[string]*classroom.GradeExtract
	extractErrs map[string]error
}

func (f *fakeSource) GetClassroomID(ctx context.Context, name string) (string, error) {
	return f.classroomID, nil
}

func (f *fakeSource) ListAssignments(ctx context.Context, classroomID string) ([]classroom.AssignmentRef, error) {
	return f.assignments, nil
}

func (f *fakeSource) DownloadGrades(ctx context.Context, assignmentID string) (*classroom.GradeExtract, error) {
	if err, ok := f.extractErrs[assignmentID]; ok {
		return nil, err
	}
	return f.extracts[assignmentID], nil
}

// fakeResolver はテスト用のLifecycleResolver実装です。呼ばれたユーザー名を記録します。
type fakeResolver struct {
	calls []string
}

func (f *fakeResolver) ResolveStudent(ctx context.Context, username, repoURL string) *models.RepositoryInfo {
	f.calls = append(f.calls, username)
	return &models.RepositoryInfo{HasFork: false}
}

// fakeStore はテスト用のSyncRepository実装です。書き込まれたデータを保持します。
type fakeStore struct {
	students       []models.Student
	assignments    []models.Assignment
	grades         []models.GradeRecord
	leaderboard    []models.LeaderboardEntry
	assignmentsErr error
	gradesCalled   bool
}

func (f *fakeStore) UpsertStudents(ctx context.Context, students []models.Student) (*database.WriteResult, error) {
	f.students = students
	return &database.WriteResult{Written: len(students)}, nil
}

func (f *fakeStore) UpsertAssignments(ctx context.Context, assignments []models.Assignment) (*database.WriteResult, error) {
	if f.assignmentsErr != nil {
		return &database.WriteResult{}, f.assignmentsErr
	}
	f.assignments = assignments
	return &database.WriteResult{Written: len(assignments)}, nil
}

func (f *fakeStore) UpsertGrades(ctx context.Context, grades []models.GradeRecord) (*database.WriteResult, error) {
	f.gradesCalled = true
	f.grades = grades
	return &database.WriteResult{Written: len(grades)}, nil
}

func (f *fakeStore) ReplaceLeaderboard(ctx context.Context, entries []models.LeaderboardEntry) (*database.WriteResult, error) {
	f.leaderboard = entries
	return &database.WriteResult{Written: len(entries)}, nil
}

func testConfig() *config.SyncConfig {
	return &config.SyncConfig{ClassroomName: "B4OS-Dev-2025", MaxRetries: 3, TimeoutSeconds: 30}
}

func validExtract(usernames ...string) *classroom.GradeExtract {
	extract := &classroom.GradeExtract{
		Columns: []string{"github_username", "points_awarded", "points_available", "student_repository_url"},
	}
	for _, u := range usernames {
		extract.Rows = append(extract.Rows, classroom.GradeRow{
			GithubUsername:       u,
			PointsAwarded:        "10",
			PointsAvailable:      "50",
			StudentRepositoryURL: "https://github.com/org/part-" + u,
		})
	}
	return extract
}

// TestOrchestratorRun_HappyPath は正常系で4フェーズすべてが書き込まれることをテストします。
func TestOrchestratorRun_HappyPath(t *testing.T) {
	source := &fakeSource{
		classroomID: "12345",
		assignments: []classroom.AssignmentRef{
			{ID: "a1", Name: "Part 1"},
			{ID: "a2", Name: "Part 2"},
		},
		extracts: map[string]*classroom.GradeExtract{
			"a1": validExtract("alice", "bob"),
			"a2": validExtract("alice"),
		},
	}
	store := &fakeStore{}
	o := NewOrchestrator(testConfig(), source, &fakeResolver{}, store)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.AssignmentsProcessed != 2 {
		t.Errorf("expected 2 assignments processed, got %d", summary.AssignmentsProcessed)
	}
	if summary.GradeRecords != 3 {
		t.Errorf("expected 3 consolidated grades, got %d", summary.GradeRecords)
	}
	if len(store.students) != 2 || len(store.assignments) != 2 || len(store.grades) != 3 || len(store.leaderboard) != 2 {
		t.Errorf("unexpected store state: students=%d assignments=%d grades=%d leaderboard=%d",
			len(store.students), len(store.assignments), len(store.grades), len(store.leaderboard))
	}
}

// TestOrchestratorRun_ClassroomNotFound はクラスルーム未解決が致命的エラーになることをテストします。
func TestOrchestratorRun_ClassroomNotFound(t *testing.T) {
	source := &fakeSource{classroomID: ""}
	o := NewOrchestrator(testConfig(), source, &fakeResolver{}, &fakeStore{})

	_, err := o.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for unresolvable classroom")
	}
}

// TestOrchestratorRun_NoAssignments は課題ゼロが正常な空の結果になることをテストします。
func TestOrchestratorRun_NoAssignments(t *testing.T) {
	source := &fakeSource{classroomID: "12345"}
	store := &fakeStore{}
	o := NewOrchestrator(testConfig(), source, &fakeResolver{}, store)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("expected valid empty outcome, got error: %v", err)
	}
	if summary.AssignmentsProcessed != 0 || store.gradesCalled {
		t.Errorf("expected nothing processed or written, got %+v", summary)
	}
}

// TestOrchestratorRun_SkipsFailedAssignment は1つの課題の失敗が記録されて
// 残りの課題の処理が続行されることをテストします。
func TestOrchestratorRun_SkipsFailedAssignment(t *testing.T) {
	source := &fakeSource{
		classroomID: "12345",
		assignments: []classroom.AssignmentRef{
			{ID: "bad", Name: "Broken"},
			{ID: "good", Name: "Part 1"},
		},
		extracts: map[string]*classroom.GradeExtract{
			"good": validExtract("alice"),
		},
		extractErrs: map[string]error{
			"bad": &classroom.CommandError{Command: "gh classroom assignment-grades", Err: errors.New("exit status 1")},
		},
	}
	store := &fakeStore{}
	o := NewOrchestrator(testConfig(), source, &fakeResolver{}, store)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AssignmentsProcessed != 1 || summary.AssignmentsSkipped != 1 {
		t.Errorf("expected 1 processed / 1 skipped, got %d / %d", summary.AssignmentsProcessed, summary.AssignmentsSkipped)
	}
	if len(summary.Failures) != 1 {
		t.Errorf("expected 1 recorded failure, got %v", summary.Failures)
	}
	if len(store.grades) != 1 {
		t.Errorf("expected good assignment still written, got %d grades", len(store.grades))
	}
}

// TestOrchestratorRun_FilterToOne はASSIGNMENT_IDで1課題に絞り込めることをテストします。
func TestOrchestratorRun_FilterToOne(t *testing.T) {
	source := &fakeSource{
		classroomID: "12345",
		assignments: []classroom.AssignmentRef{
			{ID: "a1", Name: "Part 1"},
			{ID: "a2", Name: "Part 2"},
		},
		extracts: map[string]*classroom.GradeExtract{
			"a1": validExtract("alice"),
			"a2": validExtract("bob"),
		},
	}
	cfg := testConfig()
	cfg.AssignmentID = "a2"
	store := &fakeStore{}
	o := NewOrchestrator(cfg, source, &fakeResolver{}, store)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.AssignmentsProcessed != 1 {
		t.Errorf("expected only filtered assignment processed, got %d", summary.AssignmentsProcessed)
	}
	if len(store.grades) != 1 || store.grades[0].GithubUsername != "bob" {
		t.Errorf("expected only bob's grade written, got %+v", store.grades)
	}
}

// TestOrchestratorRun_WritePhaseFailureStopsLaterPhases は先行フェーズの致命的失敗で
// 後続フェーズが実行されないことをテストします。
func TestOrchestratorRun_WritePhaseFailureStopsLaterPhases(t *testing.T) {
	source := &fakeSource{
		classroomID: "12345",
		assignments: []classroom.AssignmentRef{{ID: "a1", Name: "Part 1"}},
		extracts:    map[string]*classroom.GradeExtract{"a1": validExtract("alice")},
	}
	store := &fakeStore{
		assignmentsErr: &database.PersistenceError{Op: "assignments", Err: errors.New("retries exhausted")},
	}
	o := NewOrchestrator(testConfig(), source, &fakeResolver{}, store)

	summary, err := o.Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failed write phase")
	}
	var pErr *database.PersistenceError
	if !errors.As(err, &pErr) {
		t.Errorf("expected PersistenceError, got %v", err)
	}
	if store.gradesCalled {
		t.Error("expected grades phase to be skipped after assignments phase failed")
	}
	if summary == nil {
		t.Fatal("expected summary even on failure")
	}
	if len(store.students) == 0 {
		t.Error("expected students phase (before the failure) to have run")
	}
}
