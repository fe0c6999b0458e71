package classroom

import (
	"fmt"
)

// CommandError はGitHub CLIコマンドの実行失敗（タイムアウト・非0終了など）を表すエラーです。
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("コマンド '%s' の実行に失敗しました: %v (stderr: %s)", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("コマンド '%s' の実行に失敗しました: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ParseError はGitHub CLIの出力が想定フォーマットでない場合のエラーです。
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("GitHub CLI出力のパースに失敗しました: %s", e.Reason)
}
