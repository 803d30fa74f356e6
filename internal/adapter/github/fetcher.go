package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github-topics-trending/internal/common"
	"github-topics-trending/internal/domain"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"
)

// 搜索接口单页上限
const perPageMax = 100

// README 摘要最大长度 (字符)，喂给 AI 够用了
const readmeSummaryLimit = 300

// Fetcher 实现了 port.Fetcher 接口
type Fetcher struct {
	client *github.Client
}

// NewFetcher 初始化 GitHub 客户端，token 为空时走匿名限额
func NewFetcher(token string) *Fetcher {
	var client *github.Client

	if token == "" {
		client = github.NewClient(nil)
	} else {
		ctx := context.Background()
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc := oauth2.NewClient(ctx, ts)
		client = github.NewClient(tc)
	}

	return &Fetcher{client: client}
}

// FetchRanking 抓取 topic 下按星标降序的榜单，最多 limit 条
func (f *Fetcher) FetchRanking(ctx context.Context, topic string, sortBy string, limit int) ([]*domain.RepoEntry, error) {
	if sortBy == "" {
		sortBy = "stars"
	}

	query := fmt.Sprintf("topic:%s", topic)
	var entries []*domain.RepoEntry

	page := 1
	for len(entries) < limit {
		perPage := limit - len(entries)
		if perPage > perPageMax {
			perPage = perPageMax
		}
		opts := &github.SearchOptions{
			Sort:  sortBy,
			Order: "desc",
			ListOptions: github.ListOptions{
				Page:    page,
				PerPage: perPage,
			},
		}

		var result *github.RepositoriesSearchResult
		err := common.Do(ctx, func() error {
			var apiErr error
			result, _, apiErr = f.client.Search.Repositories(ctx, query, opts)
			return apiErr
		},
			common.WithMaxRetries(3),
			common.WithInitialDelay(time.Second),
		)
		if err != nil {
			return nil, common.WrapError(common.ErrCodeGitHubAPI, "GitHub 搜索失败", err)
		}

		for _, item := range result.Repositories {
			entries = append(entries, &domain.RepoEntry{
				RepoName:    item.GetFullName(),
				Stars:       item.GetStargazersCount(),
				Language:    item.GetLanguage(),
				Topics:      item.Topics,
				Description: item.GetDescription(),
				URL:         item.GetHTMLURL(),
			})
		}

		if len(result.Repositories) < perPage {
			break // 没有更多结果了
		}
		page++
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// FetchReadmeSummary 抓取 README 开头部分作为摘要
// 拿不到 README (没有、私有、太大) 返回空串，调用方按降级处理
func (f *Fetcher) FetchReadmeSummary(ctx context.Context, repoName string) (string, error) {
	owner, name, ok := splitRepoName(repoName)
	if !ok {
		return "", common.NewError(common.ErrCodeInvalidInput, fmt.Sprintf("仓库名格式错误: %s", repoName))
	}

	var readme *github.RepositoryContent
	err := common.Do(ctx, func() error {
		var apiErr error
		readme, _, apiErr = f.client.Repositories.GetReadme(ctx, owner, name, nil)
		return apiErr
	},
		common.WithMaxRetries(2),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		// 404 之类都归到"没有摘要"，不让单个仓库拖垮整轮
		return "", nil
	}

	content, err := readme.GetContent()
	if err != nil {
		return "", nil
	}
	return summarizeReadme(content), nil
}

// splitRepoName 拆 "owner/name"
func splitRepoName(repoName string) (owner, name string, ok bool) {
	parts := strings.SplitN(repoName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// summarizeReadme 取正文开头若干字符，跳过徽章和空行
func summarizeReadme(content string) string {
	var sb strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[![") || strings.HasPrefix(line, "![") {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(line)
		if sb.Len() >= readmeSummaryLimit {
			break
		}
	}

	runes := []rune(sb.String())
	if len(runes) > readmeSummaryLimit {
		return string(runes[:readmeSummaryLimit])
	}
	return sb.String()
}
