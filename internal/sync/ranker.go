package sync

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// missingResolutionSentinel は解決時間が無い学生をソートで必ず末尾に送るための番兵値です。
const missingResolutionSentinel = 999999

// ResolutionHours はフォーク作成から最終更新までの時間を時間単位（切り捨て）で計算します。
// どちらかのタイムスタンプが無い・ゼロ値の場合や差が負になる場合はnilを返します。
func ResolutionHours(created, updated *time.Time) *int {
	if created == nil || updated == nil {
		return nil
	}
	// APIレスポンスにフィールドが無い場合、タイムスタンプはゼロ値になる
	if created.IsZero() || updated.IsZero() {
		return nil
	}
	seconds := updated.Sub(*created).Seconds()
	if seconds < 0 {
		log.Printf("Ranker Warn: last_updated_atがfork_created_atより前のため、解決時間を計算できません (created=%s, updated=%s)",
			created.Format(time.RFC3339), updated.Format(time.RFC3339))
		return nil
	}
	hours := int(seconds) / 3600
	return &hours
}

// BuildLeaderboard は作業セットからリーダーボードを計算します。
// 順位は 解決時間の昇順（無しは最下位）→ パーセンテージの降順 → ユーザー名の昇順 で決まり、
// ユーザー名が一意なので全順序になります。RankingPositionは1始まりの連番です。
func BuildLeaderboard(ws *WorkingSet) []models.LeaderboardEntry {
	if len(ws.Students) == 0 {
		log.Println("Ranker Warn: リーダーボード対象の学生がいません")
		return nil
	}

	assignmentPoints := make(map[string]int, len(ws.Assignments))
	for _, a := range ws.Assignments {
		if a.PointsAvailable != nil {
			assignmentPoints[a.Name] = *a.PointsAvailable
		}
	}

	gradesByStudent := make(map[string][]models.GradeRecord)
	for _, g := range ws.Grades {
		gradesByStudent[g.GithubUsername] = append(gradesByStudent[g.GithubUsername], g)
	}

	entries := make([]models.LeaderboardEntry, 0, len(ws.Students))
	for username, student := range ws.Students {
		grades := gradesByStudent[username]

		totalScore := 0
		totalPossible := 0
		completed := make(map[string]bool)
		for _, g := range grades {
			if g.PointsAwarded != nil {
				totalScore += *g.PointsAwarded
			}
			// 満点が未解決の課題はtotal_possibleに0として寄与する
			totalPossible += assignmentPoints[g.AssignmentName]
			completed[g.AssignmentName] = true
		}

		percentage := 0
		if totalPossible > 0 {
			// ちょうど.5のパーセンテージは偶数側に丸める
			percentage = int(math.RoundToEven(float64(totalScore) * 100 / float64(totalPossible)))
		}

		var resolution *int
		if student.HasFork {
			resolution = ResolutionHours(student.ForkCreatedAt, student.LastUpdatedAt)
		}

		entries = append(entries, models.LeaderboardEntry{
			GithubUsername:       username,
			ForkCreatedAt:        student.ForkCreatedAt,
			LastUpdatedAt:        student.LastUpdatedAt,
			ResolutionTimeHours:  resolution,
			HasFork:              student.HasFork,
			TotalScore:           totalScore,
			TotalPossible:        totalPossible,
			Percentage:           percentage,
			AssignmentsCompleted: len(completed),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri := missingResolutionSentinel
		if entries[i].ResolutionTimeHours != nil {
			ri = *entries[i].ResolutionTimeHours
		}
		rj := missingResolutionSentinel
		if entries[j].ResolutionTimeHours != nil {
			rj = *entries[j].ResolutionTimeHours
		}
		if ri != rj {
			return ri < rj
		}
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		return entries[i].GithubUsername < entries[j].GithubUsername
	})

	for i := range entries {
		entries[i].RankingPosition = i + 1
	}

	logTopEntries(entries)
	return entries
}

// logTopEntries は検証用に上位5件の順位をログに出します。
func logTopEntries(entries []models.LeaderboardEntry) {
	log.Println("Ranker Info: 解決時間順のランキング（上位5件）:")
	for i, e := range entries {
		if i >= 5 {
			break
		}
		if e.ResolutionTimeHours != nil {
			log.Printf("  %d. %s: %dh (%d%%)", e.RankingPosition, e.GithubUsername, *e.ResolutionTimeHours, e.Percentage)
		} else {
			log.Printf("  %d. %s: N/A (%d%%)", e.RankingPosition, e.GithubUsername, e.Percentage)
		}
	}
}
