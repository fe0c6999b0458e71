package classroom

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os/exec"
	"strings"
	"time"
)

// Runner はGitHub CLIコマンドの実行を抽象化するインターフェースです。
// テストでは偽の実装に差し替えます。
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// execRunner はos/execを使ったRunnerの実装です。
type execRunner struct {
	timeout time.Duration
}

// NewRunner は1コマンドあたりのタイムアウト付きRunnerを作成します。
func NewRunner(timeout time.Duration) Runner {
	return &execRunner{timeout: timeout}
}

// Run はコマンドを実行し、標準出力を返します。
// タイムアウト・非0終了・起動失敗はすべて *CommandError になります。
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	display := name + " " + strings.Join(args, " ")
	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Printf("ClassroomService Error: コマンドがタイムアウトしました: %s", display)
			return "", &CommandError{Command: display, Err: context.DeadlineExceeded}
		}
		log.Printf("ClassroomService Error: コマンドの実行に失敗しました: %s, エラー: %v", display, err)
		return "", &CommandError{Command: display, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.String(), nil
}
