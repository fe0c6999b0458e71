package services

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/B4OS-Dev/classroom-sync-backend/internal/models"
)

// githubAPIDelay は連続するGitHub APIリクエストの最小間隔です。
const githubAPIDelay = 100 * time.Millisecond

// RepositoryInfoService はGitHub APIから学生リポジトリのライフサイクル情報を取得する構造体です。
// 取得結果はユーザー名単位でメモ化され、1回の同期で学生ごとに最大1回しかAPIを呼びません。
type RepositoryInfoService struct {
	client *github.Client
	gate   *RateGate
	cache  map[string]*models.RepositoryInfo
}

// NewRepositoryInfoService は新しいRepositoryInfoServiceを作成します。
// tokenが空の場合は未認証クライアントを使います（レート制限が厳しくなります）。
func NewRepositoryInfoService(token string) *RepositoryInfoService {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	} else {
		log.Println("警告: GitHubトークンが未設定のため、未認証でAPIを呼び出します。")
	}
	return &RepositoryInfoService{
		client: github.NewClient(httpClient),
		gate:   NewRateGate(githubAPIDelay),
		cache:  make(map[string]*models.RepositoryInfo),
	}
}

// ResolveStudent は学生リポジトリのライフサイクル情報を取得します。
// 失敗はすべてソフト失敗として扱い、「データなし」（HasFork=false、タイムスタンプnil）を返します。
func (s *RepositoryInfoService) ResolveStudent(ctx context.Context, githubUsername, repoURL string) *models.RepositoryInfo {
	if cached, ok := s.cache[githubUsername]; ok {
		return cached
	}

	info := s.lookup(ctx, githubUsername, repoURL)
	s.cache[githubUsername] = info
	return info
}

func (s *RepositoryInfoService) lookup(ctx context.Context, githubUsername, repoURL string) *models.RepositoryInfo {
	noData := &models.RepositoryInfo{HasFork: false}

	owner, repo, ok := parseRepoURL(repoURL)
	if !ok {
		if repoURL != "" {
			log.Printf("RepositoryInfoService Warn: 不正なリポジトリURLです: %s", repoURL)
		}
		return noData
	}

	s.gate.Wait()

	repository, resp, err := s.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		switch {
		case resp != nil && resp.StatusCode == http.StatusNotFound:
			log.Printf("RepositoryInfoService Warn: リポジトリが見つかりません: %s/%s", owner, repo)
		case resp != nil && resp.StatusCode == http.StatusForbidden:
			log.Printf("RepositoryInfoService Warn: レート制限に達しました: %s/%s", owner, repo)
		default:
			log.Printf("RepositoryInfoService Error: リポジトリ情報の取得に失敗しました: %s/%s, エラー: %v", owner, repo, err)
		}
		return noData
	}

	if !repository.GetFork() {
		// テンプレートのフォークでないリポジトリは解決時間の対象外
		log.Printf("RepositoryInfoService Warn: %s のリポジトリは存在しますがフォークではありません", githubUsername)
		return &models.RepositoryInfo{FullName: repository.GetFullName(), HasFork: false}
	}

	info := &models.RepositoryInfo{
		FullName: repository.GetFullName(),
		HasFork:  true,
	}

	// レスポンスにフィールドが無い場合、go-githubはゼロ値のtime.Timeを返す。
	// ゼロ値は実在する時刻ではないのでタイムスタンプなしとして扱う。
	if created := repository.GetCreatedAt().Time; !created.IsZero() {
		info.ForkCreatedAt = &created
	}
	if updated := repository.GetUpdatedAt().Time; !updated.IsZero() {
		info.LastUpdatedAt = &updated
	}

	if info.ForkCreatedAt != nil && info.LastUpdatedAt != nil {
		log.Printf("RepositoryInfoService Info: %s のフォークを確認しました: created=%s, updated=%s",
			githubUsername, info.ForkCreatedAt.Format(time.RFC3339), info.LastUpdatedAt.Format(time.RFC3339))
	} else {
		log.Printf("RepositoryInfoService Warn: %s のフォークのタイムスタンプが不完全です", githubUsername)
	}

	return info
}

// parseRepoURL はGitHubリポジトリURLから owner/repo を取り出します。
// 例: https://github.com/B4OS-Dev/the-moria-mining-codex-part-1-kleysc
func parseRepoURL(repoURL string) (owner, repo string, ok bool) {
	if repoURL == "" {
		return "", "", false
	}
	trimmed := strings.TrimPrefix(repoURL, "https://github.com/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
