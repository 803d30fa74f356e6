package web

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github-topics-trending/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore 只为分类页提供数据
type stubStore struct {
	byCategory map[string][]*domain.RepoDetail
	queried    []string
}

func (s *stubStore) SaveTodaySnapshot(ctx context.Context, date string, entries []*domain.SnapshotEntry) error {
	return nil
}

func (s *stubStore) SaveRepoDetails(ctx context.Context, details []*domain.RepoDetail) error {
	return nil
}

func (s *stubStore) GetPreviousSnapshot(ctx context.Context, beforeDate string) ([]*domain.SnapshotEntry, error) {
	return nil, nil
}

func (s *stubStore) GetNotifiedRepoNames(ctx context.Context, sinceDate string) (map[string]struct{}, error) {
	return nil, nil
}

func (s *stubStore) RecordNotification(ctx context.Context, repoNames []string, date string) error {
	return nil
}

func (s *stubStore) GetReposByCategory(ctx context.Context, category string, limit int) ([]*domain.RepoDetail, error) {
	s.queried = append(s.queried, category)
	return s.byCategory[category], nil
}

func (s *stubStore) CleanupOldData(ctx context.Context, today string, retentionDays int) (int64, error) {
	return 0, nil
}

func sampleTrends() *domain.TrendResult {
	return &domain.TrendResult{
		Topic: "claude",
		Date:  "2026-08-30",
		Top20: []*domain.TrendEntry{
			{RepoEntry: domain.RepoEntry{RepoName: "o/a", Stars: 100, URL: "https://github.com/o/a"},
				Summary: "一个很棒的工具", Category: "tool", CategoryZh: "工具"},
		},
		NewEntries: []*domain.TrendEntry{
			{RepoEntry: domain.RepoEntry{RepoName: "o/b", Stars: 10, URL: "https://github.com/o/b"}},
		},
	}
}

func TestGenerator_GenerateAll(t *testing.T) {
	dir := t.TempDir()
	store := &stubStore{
		byCategory: map[string][]*domain.RepoDetail{
			"tool": {
				{RepoName: "o/a", URL: "https://github.com/o/a",
					Summary: "一个很棒的工具", Category: "tool", CategoryZh: "工具"},
			},
		},
	}

	gen := NewGenerator(dir, "claude")
	files, err := gen.GenerateAll(context.Background(), sampleTrends(), store)
	require.NoError(t, err)

	// 首页 + 当日趋势页 + 每个分类一页
	assert.Len(t, files, 2+len(domain.Categories))
	assert.FileExists(t, filepath.Join(dir, "index.html"))
	assert.FileExists(t, filepath.Join(dir, "trending", "2026-08-30.html"))
	assert.FileExists(t, filepath.Join(dir, "category", "tool.html"))
	assert.FileExists(t, filepath.Join(dir, "category", "other.html"))

	// 每个分类都查过一次
	assert.Len(t, store.queried, len(domain.Categories))
}

func TestGenerator_IndexContent(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(dir, "claude")

	_, err := gen.GenerateAll(context.Background(), sampleTrends(), &stubStore{})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	page := string(content)

	assert.Contains(t, page, "#claude")
	assert.Contains(t, page, "2026-08-30")
	assert.Contains(t, page, "o/a")
	assert.Contains(t, page, "一个很棒的工具")
	// 分类导航齐全
	assert.Contains(t, page, "category/tool.html")
	assert.Contains(t, page, "category/other.html")
}

func TestGenerator_CategoryPageContent(t *testing.T) {
	dir := t.TempDir()
	store := &stubStore{
		byCategory: map[string][]*domain.RepoDetail{
			"tool": {
				{RepoName: "o/a", URL: "https://github.com/o/a",
					Summary: "一个很棒的工具", TechStack: []string{"Go"}, Solves: []string{"提效"}},
			},
		},
	}

	gen := NewGenerator(dir, "claude")
	_, err := gen.GenerateAll(context.Background(), sampleTrends(), store)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "category", "tool.html"))
	require.NoError(t, err)
	page := string(content)

	assert.Contains(t, page, "o/a")
	assert.Contains(t, page, "一个很棒的工具")

	// 空分类页也要正常生成
	emptyContent, err := os.ReadFile(filepath.Join(dir, "category", "other.html"))
	require.NoError(t, err)
	assert.NotEmpty(t, emptyContent)
}
