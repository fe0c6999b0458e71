package sync

import (
	"log"
	"sort"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// WorkingSet は1回の同期実行で構築されるインメモリの作業セットです。
// ランカーと書き込みフェーズはこの構造体だけを入力とします。
type WorkingSet struct {
	Grades      []models.GradeRecord // (username, assignment) で重複排除済み
	Assignments []models.Assignment
	Students    map[string]*models.Student // username → ライフサイクル情報を結合した学生
}

type gradeKey struct {
	username   string
	assignment string
}

// Consolidate は課題ごとの正規化済みエクストラクトを1つの作業セットに統合します。
// (username, assignment) の重複は後勝ちです。学生集合は成績の学生と
// ライフサイクル情報の学生の完全外部結合になります。
func Consolidate(extracts []*NormalizedExtract, lifecycles map[string]*models.RepositoryInfo) *WorkingSet {
	grades := make(map[gradeKey]models.GradeRecord)
	assignments := make(map[string]models.Assignment)

	for _, extract := range extracts {
		if extract == nil {
			continue
		}
		// 同じスラッグに正規化された課題は後のエクストラクトが勝つ
		assignments[extract.AssignmentName] = models.Assignment{
			Name:            extract.AssignmentName,
			PointsAvailable: extract.PointsAvailable,
		}
		for _, record := range extract.Records {
			grades[gradeKey{record.GithubUsername, record.AssignmentName}] = record
		}
	}

	students := make(map[string]*models.Student)
	ensureStudent := func(username string) *models.Student {
		if s, ok := students[username]; ok {
			return s
		}
		s := &models.Student{GithubUsername: username}
		students[username] = s
		return s
	}

	for key := range grades {
		ensureStudent(key.username)
	}
	for username, info := range lifecycles {
		s := ensureStudent(username)
		if info == nil {
			continue
		}
		s.ForkCreatedAt = info.ForkCreatedAt
		s.LastUpdatedAt = info.LastUpdatedAt
		s.HasFork = info.HasFork
	}

	ws := &WorkingSet{Students: students}

	// バッチ書き込みとテストのために出力順を決定的にする
	for _, record := range grades {
		ws.Grades = append(ws.Grades, record)
	}
	sort.Slice(ws.Grades, func(i, j int) bool {
		if ws.Grades[i].GithubUsername != ws.Grades[j].GithubUsername {
			return ws.Grades[i].GithubUsername < ws.Grades[j].GithubUsername
		}
		return ws.Grades[i].AssignmentName < ws.Grades[j].AssignmentName
	})

	for _, a := range assignments {
		ws.Assignments = append(ws.Assignments, a)
	}
	sort.Slice(ws.Assignments, func(i, j int) bool {
		return ws.Assignments[i].Name < ws.Assignments[j].Name
	})

	log.Printf("Consolidator Info: %d 件の成績、%d 件の課題、%d 人の学生に統合しました",
		len(ws.Grades), len(ws.Assignments), len(ws.Students))
	return ws
}
