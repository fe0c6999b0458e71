package classroom

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// classroomListHeaderLines はGitHub CLIのリスト出力に含まれるヘッダー行数です。
const classroomListHeaderLines = 3

// AssignmentRef は 'gh classroom assignments' の1行に対応する課題の参照です。
type AssignmentRef struct {
	ID   string
	Name string // 表示名（正規化前）
	Repo string // 課題テンプレートリポジトリ
}

// Service はGitHub Classroom CLIとのやり取りを提供する構造体です。
type Service struct {
	runner Runner
}

// NewService は新しいServiceインスタンスを作成します。
func NewService(runner Runner) *Service {
	return &Service{runner: runner}
}

// GetClassroomID はクラスルーム名からIDを検索します。
// 見つからない場合は空文字列を返します（エラーではありません）。
func (s *Service) GetClassroomID(ctx context.Context, classroomName string) (string, error) {
	log.Printf("ClassroomService Info: クラスルーム '%s' を検索中...", classroomName)

	output, err := s.runner.Run(ctx, "gh", "classroom", "list")
	if err != nil {
		return "", fmt.Errorf("クラスルーム一覧の取得に失敗しました: %w", err)
	}

	classrooms, err := parseClassroomList(output)
	if err != nil {
		return "", err
	}

	for _, c := range classrooms {
		if c.name == classroomName {
			log.Printf("ClassroomService Info: クラスルームIDが見つかりました: %s", c.id)
			return c.id, nil
		}
	}

	log.Printf("ClassroomService Warn: クラスルーム '%s' が見つかりませんでした", classroomName)
	return "", nil
}

// ListAssignments はクラスルームの課題一覧をソース順のまま取得します。
func (s *Service) ListAssignments(ctx context.Context, classroomID string) ([]AssignmentRef, error) {
	log.Printf("ClassroomService Info: クラスルーム %s の課題一覧を取得中...", classroomID)

	output, err := s.runner.Run(ctx, "gh", "classroom", "assignments", "-c", classroomID)
	if err != nil {
		return nil, fmt.Errorf("課題一覧の取得に失敗しました: %w", err)
	}

	assignments, err := parseAssignmentList(output)
	if err != nil {
		return nil, err
	}

	log.Printf("ClassroomService Info: %d 件の課題が見つかりました", len(assignments))
	return assignments, nil
}

type classroomRow struct {
	id   string
	name string
}

// parseClassroomList は 'gh classroom list' の出力をパースします。
// 出力は3行のヘッダーの後に、空白区切りの行が続くフォーマットです。
func parseClassroomList(output string) ([]classroomRow, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < classroomListHeaderLines+1 {
		return nil, &ParseError{Reason: "クラスルーム一覧のフォーマットが不正です"}
	}

	var classrooms []classroomRow
	for _, line := range lines[classroomListHeaderLines:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			classrooms = append(classrooms, classroomRow{id: parts[0], name: parts[1]})
		}
	}
	return classrooms, nil
}

// parseAssignmentList は 'gh classroom assignments' の出力をパースします。
// 課題行はタブ区切りで7フィールド以上あり、7番目が課題リポジトリです。
func parseAssignmentList(output string) ([]AssignmentRef, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < classroomListHeaderLines+1 {
		return nil, &ParseError{Reason: "課題一覧のフォーマットが不正です"}
	}

	var assignments []AssignmentRef
	for _, line := range lines[classroomListHeaderLines:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) >= 7 {
			assignments = append(assignments, AssignmentRef{ID: parts[0], Name: parts[1], Repo: parts[6]})
		}
	}
	return assignments, nil
}
