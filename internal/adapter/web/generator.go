package web

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github-topics-trending/internal/common"
	"github-topics-trending/internal/domain"
	"github-topics-trending/internal/port"
)

// 分类页上限
const categoryPageLimit = 50

// Generator 实现了 port.Publisher 接口，产出纯静态页面 (GitHub Pages 直接可用)
type Generator struct {
	outputDir string
	topic     string
}

// NewGenerator 创建站点生成器
func NewGenerator(outputDir, topic string) *Generator {
	return &Generator{outputDir: outputDir, topic: topic}
}

// GenerateAll 生成首页、当日趋势页和所有分类页，返回写出的文件列表
func (g *Generator) GenerateAll(ctx context.Context, trends *domain.TrendResult, store port.SnapshotStore) ([]string, error) {
	for _, dir := range []string{"", "trending", "category"} {
		if err := os.MkdirAll(filepath.Join(g.outputDir, dir), 0o755); err != nil {
			return nil, common.WrapError(common.ErrCodeRender, "创建输出目录失败", err)
		}
	}

	var files []string

	indexPath, err := g.generateIndex(trends)
	if err != nil {
		return nil, err
	}
	files = append(files, indexPath)

	trendingPath, err := g.generateTrendingPage(trends)
	if err != nil {
		return nil, err
	}
	files = append(files, trendingPath)

	categoryFiles, err := g.generateCategoryPages(ctx, store)
	if err != nil {
		return nil, err
	}
	files = append(files, categoryFiles...)

	return files, nil
}

type pageData struct {
	Title      string
	Topic      string
	Date       string
	Trends     *domain.TrendResult
	Categories []categoryLink
	Category   categoryLink
	Repos      []*domain.RepoDetail
}

type categoryLink struct {
	Key  string
	Name string
}

// categoryLinks 分类按 key 排序，页面布局保持稳定
func categoryLinks() []categoryLink {
	keys := make([]string, 0, len(domain.Categories))
	for key := range domain.Categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	links := make([]categoryLink, 0, len(keys))
	for _, key := range keys {
		links = append(links, categoryLink{Key: key, Name: domain.Categories[key]})
	}
	return links
}

func (g *Generator) generateIndex(trends *domain.TrendResult) (string, error) {
	path := filepath.Join(g.outputDir, "index.html")
	data := &pageData{
		Title:      fmt.Sprintf("GitHub Topics Trending · #%s", g.topic),
		Topic:      g.topic,
		Date:       trends.Date,
		Trends:     trends,
		Categories: categoryLinks(),
	}
	if err := renderToFile(path, indexTmpl, data); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Generator) generateTrendingPage(trends *domain.TrendResult) (string, error) {
	path := filepath.Join(g.outputDir, "trending", trends.Date+".html")
	data := &pageData{
		Title:  fmt.Sprintf("Trending %s · #%s", trends.Date, g.topic),
		Topic:  g.topic,
		Date:   trends.Date,
		Trends: trends,
	}
	if err := renderToFile(path, trendingTmpl, data); err != nil {
		return "", err
	}
	return path, nil
}

func (g *Generator) generateCategoryPages(ctx context.Context, store port.SnapshotStore) ([]string, error) {
	var files []string
	for _, link := range categoryLinks() {
		repos, err := store.GetReposByCategory(ctx, link.Key, categoryPageLimit)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(g.outputDir, "category", link.Key+".html")
		data := &pageData{
			Title:    fmt.Sprintf("%s · #%s", link.Name, g.topic),
			Topic:    g.topic,
			Category: link,
			Repos:    repos,
		}
		if err := renderToFile(path, categoryTmpl, data); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func renderToFile(path string, tmpl *template.Template, data *pageData) error {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return common.WrapError(common.ErrCodeRender, fmt.Sprintf("渲染 %s 失败", path), err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return common.WrapError(common.ErrCodeRender, fmt.Sprintf("写出 %s 失败", path), err)
	}
	return nil
}
