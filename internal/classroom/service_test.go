package classroom

import (
	"context"
	"errors"
	"testing"
)

// fakeRunner はテスト用のRunner実装です。固定の出力またはエラーを返します。
type fakeRunner struct {
	output string
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f.output, f.err
}

const classroomListOutput = `Found 2 classrooms
ID      NAME
--      ----
12345 B4OS-Dev-2025 org1
67890 Other-Classroom org2
`

// TestGetClassroomID はクラスルーム名からIDを検索できることをテストします。
func TestGetClassroomID(t *testing.T) {
	svc := NewService(&fakeRunner{output: classroomListOutput})

	id, err := svc.GetClassroomID(context.Background(), "B4OS-Dev-2025")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "12345" {
		t.Errorf("expected classroom ID 12345, got %q", id)
	}
}

// TestGetClassroomID_NotFound は存在しないクラスルーム名で空文字列が返ることをテストします。
func TestGetClassroomID_NotFound(t *testing.T) {
	svc := NewService(&fakeRunner{output: classroomListOutput})

	id, err := svc.GetClassroomID(context.Background(), "no-such-classroom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty ID for unknown classroom, got %q", id)
	}
}

// TestGetClassroomID_MalformedOutput は4行未満の出力がParseErrorになることをテストします。
func TestGetClassroomID_MalformedOutput(t *testing.T) {
	svc := NewService(&fakeRunner{output: "only\ntwo lines"})

	_, err := svc.GetClassroomID(context.Background(), "B4OS-Dev-2025")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

// TestGetClassroomID_CommandError はコマンド失敗がCommandErrorとして伝播することをテストします。
func TestGetClassroomID_CommandError(t *testing.T) {
	svc := NewService(&fakeRunner{err: &CommandError{Command: "gh classroom list", Err: errors.New("exit status 1")}})

	_, err := svc.GetClassroomID(context.Background(), "B4OS-Dev-2025")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
}

// TestListAssignments はタブ区切りの課題一覧をソース順にパースできることをテストします。
func TestListAssignments(t *testing.T) {
	output := "Found 2 assignments\n" +
		"ID\tTITLE\tLINK\tDEADLINE\tTYPE\tEDITOR\tREPO\n" +
		"--\t-----\t----\t--------\t----\t------\t----\n" +
		"a1\tThe Moria Mining Codex Part 1\tlink\tdeadline\ttype\teditor\torg/template-1\n" +
		"a2\tThe Moria Mining Codex Part 2\tlink\tdeadline\ttype\teditor\torg/template-2\n" +
		"short\trow\n"

	svc := NewService(&fakeRunner{output: output})
	assignments, err := svc.ListAssignments(context.Background(), "12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(assignments))
	}
	if assignments[0].ID != "a1" || assignments[0].Name != "The Moria Mining Codex Part 1" || assignments[0].Repo != "org/template-1" {
		t.Errorf("unexpected first assignment: %+v", assignments[0])
	}
	if assignments[1].ID != "a2" {
		t.Errorf("expected source order preserved, got %+v", assignments[1])
	}
}

// TestParseAssignmentList_TooFewLines は3行以下の出力がParseErrorになることをテストします。
func TestParseAssignmentList_TooFewLines(t *testing.T) {
	_, err := parseAssignmentList("header1\nheader2\nheader3")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
