package sync

import (
	"testing"
	"time"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// TestConsolidate_LastWriteWins は同じ(username, assignment)の重複で後のレコードが勝つことをテストします。
func TestConsolidate_LastWriteWins(t *testing.T) {
	first := &NormalizedExtract{
		AssignmentName:  "part-1",
		PointsAvailable: intPtr(50),
		Records: []models.GradeRecord{
			{GithubUsername: "alice", AssignmentName: "part-1", PointsAwarded: intPtr(10)},
		},
	}
	second := &NormalizedExtract{
		AssignmentName:  "part-1",
		PointsAvailable: intPtr(60),
		Records: []models.GradeRecord{
			{GithubUsername: "alice", AssignmentName: "part-1", PointsAwarded: intPtr(45)},
		},
	}

	ws := Consolidate([]*NormalizedExtract{first, second}, nil)

	if len(ws.Grades) != 1 {
		t.Fatalf("expected 1 deduplicated grade, got %d", len(ws.Grades))
	}
	if *ws.Grades[0].PointsAwarded != 45 {
		t.Errorf("expected last write to win (45), got %d", *ws.Grades[0].PointsAwarded)
	}
	if len(ws.Assignments) != 1 || *ws.Assignments[0].PointsAvailable != 60 {
		t.Errorf("expected assignment points from last extract (60), got %+v", ws.Assignments)
	}
}

// TestConsolidate_FullOuterJoin は成績のみの学生とライフサイクル情報のみの学生の両方が
// 学生集合に現れることをテストします。
func TestConsolidate_FullOuterJoin(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(12 * time.Hour)

	extracts := []*NormalizedExtract{{
		AssignmentName: "part-1",
		Records: []models.GradeRecord{
			{GithubUsername: "grades-only", AssignmentName: "part-1", PointsAwarded: intPtr(10)},
		},
	}}
	lifecycles := map[string]*models.RepositoryInfo{
		"lifecycle-only": {
			ForkCreatedAt: timePtr(created),
			LastUpdatedAt: timePtr(updated),
			HasFork:       true,
		},
	}

	ws := Consolidate(extracts, lifecycles)

	if len(ws.Students) != 2 {
		t.Fatalf("expected 2 students in the outer join, got %d", len(ws.Students))
	}
	if s := ws.Students["grades-only"]; s == nil || s.HasFork {
		t.Errorf("unexpected grades-only student: %+v", s)
	}
	if s := ws.Students["lifecycle-only"]; s == nil || !s.HasFork || s.ForkCreatedAt == nil {
		t.Errorf("unexpected lifecycle-only student: %+v", s)
	}
}

// TestConsolidate_DeterministicOrder は出力順が決定的であることをテストします。
func TestConsolidate_DeterministicOrder(t *testing.T) {
	extracts := []*NormalizedExtract{{
		AssignmentName: "part-2",
		Records: []models.GradeRecord{
			{GithubUsername: "zed", AssignmentName: "part-2"},
			{GithubUsername: "amy", AssignmentName: "part-2"},
		},
	}, {
		AssignmentName: "part-1",
		Records: []models.GradeRecord{
			{GithubUsername: "amy", AssignmentName: "part-1"},
		},
	}}

	ws := Consolidate(extracts, nil)

	want := []struct{ user, assignment string }{
		{"amy", "part-1"}, {"amy", "part-2"}, {"zed", "part-2"},
	}
	for i, w := range want {
		if ws.Grades[i].GithubUsername != w.user || ws.Grades[i].AssignmentName != w.assignment {
			t.Errorf("grade[%d] = %s/%s, want %s/%s",
				i, ws.Grades[i].GithubUsername, ws.Grades[i].AssignmentName, w.user, w.assignment)
		}
	}
	if ws.Assignments[0].Name != "part-1" || ws.Assignments[1].Name != "part-2" {
		t.Errorf("unexpected assignment order: %+v", ws.Assignments)
	}
}
