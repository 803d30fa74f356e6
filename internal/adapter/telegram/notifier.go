package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github-topics-trending/internal/common"
	"github-topics-trending/internal/domain"
)

// 报告里各板块的展示条数，推送只求精不求全
const (
	reportNewLimit  = 5
	reportTopLimit  = 10
	summaryMaxRunes = 60
)

// Notifier 实现了 port.Notifier 接口 (Telegram Bot API)
type Notifier struct {
	apiURL  string
	chatID  string
	siteURL string
	client  *http.Client
}

// NewNotifier 初始化，token 或 chatID 为空时推送会被跳过
func NewNotifier(token, chatID, siteURL string) *Notifier {
	if token == "" || chatID == "" {
		log.Println("⚠️ 警告: Telegram 配置缺失，推送功能将无法工作！")
	}
	return &Notifier{
		apiURL:  fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", token),
		chatID:  chatID,
		siteURL: siteURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// apiResponse Bot API 的响应外壳
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendReport 发送趋势日报，返回实际展示过的仓库名，供推送日志去重用
func (n *Notifier) SendReport(ctx context.Context, trends *domain.TrendResult) ([]string, error) {
	if n.chatID == "" {
		return nil, common.NewError(common.ErrCodeNotification, "Telegram 配置缺失")
	}

	message, shown := FormatReport(trends)
	if n.siteURL != "" {
		message += fmt.Sprintf("\n\n[查看完整报告及更多分类](%s)", n.siteURL)
	}
	if err := n.sendMessage(ctx, message); err != nil {
		return nil, err
	}
	return shown, nil
}

// sendMessage 调 sendMessage 接口 (带重试)
func (n *Notifier) sendMessage(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	body, _ := json.Marshal(payload)

	err := common.Do(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("Content-Type", "application/json")

		resp, postErr := n.client.Do(req)
		if postErr != nil {
			return postErr
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		var result apiResponse
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("响应解析失败: 状态码 %d", resp.StatusCode)
		}
		if !result.OK {
			return fmt.Errorf("Telegram API 报错: %s", result.Description)
		}
		return nil
	},
		common.WithMaxRetries(3),
		common.WithInitialDelay(500*time.Millisecond),
	)
	if err != nil {
		return common.WrapError(common.ErrCodeNotification, "发送请求失败", err)
	}
	return nil
}

// FormatReport 把趋势结果排成 Markdown 日报，返回消息文本和展示过的仓库名
func FormatReport(trends *domain.TrendResult) (string, []string) {
	var lines []string
	var shown []string

	lines = append(lines, fmt.Sprintf("🔥 *GitHub Topics Trending* `#%s`", trends.Topic))
	lines = append(lines, fmt.Sprintf("📅 *%s*", trends.Date))
	lines = append(lines, "")

	// 1. 今日飙升
	if len(trends.RisingTop5) > 0 {
		lines = append(lines, "🚀 *今日飙升*")
		for _, repo := range trends.RisingTop5 {
			lines = append(lines, formatRepoLine(repo))
		}
		lines = append(lines, "")
	}

	// 2. 新晋项目 (只取前几个避免刷屏)
	newEntries := trends.NewEntries
	if len(newEntries) > reportNewLimit {
		newEntries = newEntries[:reportNewLimit]
	}
	if len(newEntries) > 0 {
		lines = append(lines, "✨ *新晋项目*")
		for _, repo := range newEntries {
			lines = append(lines, formatRepoLine(repo))
		}
		lines = append(lines, "")
	}

	// 3. 热门精选：这部分才算"正式推送过"，记入去重日志
	topList := trends.Top20
	if len(topList) > reportTopLimit {
		topList = topList[:reportTopLimit]
	}
	if len(topList) > 0 {
		lines = append(lines, "🏆 *热门精选*")
		for i, repo := range topList {
			lines = append(lines, formatRepoItem(i+1, repo))
			shown = append(shown, repo.RepoName)
		}
	}

	return strings.Join(lines, "\n"), shown
}

// formatRepoLine 单行简单展示 (星标 + 增量)
func formatRepoLine(repo *domain.TrendEntry) string {
	deltaStr := fmt.Sprintf("%d", repo.StarsDelta)
	if repo.StarsDelta > 0 {
		deltaStr = "+" + deltaStr
	}
	return fmt.Sprintf("• [%s](%s) ⭐%d (%s)", repo.RepoName, repo.URL, repo.Stars, deltaStr)
}

// formatRepoItem 带摘要的详细展示，前三名给奖牌
func formatRepoItem(index int, repo *domain.TrendEntry) string {
	summary := repo.Summary
	if summary == "" {
		summary = repo.Description
	}
	summary = domain.TruncateSummary(summary, summaryMaxRunes)

	icon := "🔹"
	if index <= 3 {
		icon = []string{"🥇", "🥈", "🥉"}[index-1]
	}

	line := fmt.Sprintf("%s *[%s](%s)*", icon, repo.RepoName, repo.URL)
	if repo.CategoryZh != "" {
		line += fmt.Sprintf(" `[%s]`", repo.CategoryZh)
	}
	line += fmt.Sprintf("\n  _%s_", summary)
	return line
}
