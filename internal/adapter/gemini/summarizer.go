package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github-topics-trending/internal/common"
	"github-topics-trending/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// 一次批量分析的仓库上限，再多 Prompt 就太长了
const batchLimit = 20

// Summarizer 实现了 port.Summarizer 接口 (Gemini)
type Summarizer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// aiItem 接收 AI 返回的单条 JSON
type aiItem struct {
	RepoName    string   `json:"repo_name"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	UseCase     string   `json:"use_case"`
	Solves      []string `json:"solves"`
	Category    string   `json:"category"`
	CategoryZh  string   `json:"category_zh"`
	TechStack   []string `json:"tech_stack"`
}

// NewSummarizer 初始化 Gemini 客户端
func NewSummarizer(ctx context.Context, apiKey, modelName string) (*Summarizer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "AI 客户端初始化失败", err)
	}

	if modelName == "" {
		modelName = "gemini-2.5-flash-lite"
	}
	model := client.GenerativeModel(modelName)
	// 强制要求返回 JSON，降低解析错误的概率
	model.ResponseMIMEType = "application/json"

	return &Summarizer{
		client: client,
		model:  model,
	}, nil
}

// SummarizeAndClassify 批量总结和分类
// AI 调用或解析失败时走降级：截断描述当摘要，分类记 other，绝不让流水线因此中断
func (s *Summarizer) SummarizeAndClassify(ctx context.Context, repos []*domain.RepoEntry) ([]*domain.RepoDetail, error) {
	if len(repos) == 0 {
		return []*domain.RepoDetail{}, nil
	}

	var details []*domain.RepoDetail
	for start := 0; start < len(repos); start += batchLimit {
		end := start + batchLimit
		if end > len(repos) {
			end = len(repos)
		}
		batch := repos[start:end]

		batchDetails, err := s.summarizeBatch(ctx, batch)
		if err != nil {
			log.Printf("⚠️ AI 批量分析失败，该批走降级: %v", err)
			batchDetails = FallbackDetails(batch)
		}
		details = append(details, batchDetails...)
	}
	return details, nil
}

func (s *Summarizer) summarizeBatch(ctx context.Context, repos []*domain.RepoEntry) ([]*domain.RepoDetail, error) {
	prompt := buildBatchPrompt(repos)

	var resp *genai.GenerateContentResponse
	err := common.Do(ctx, func() error {
		var apiErr error
		resp, apiErr = s.model.GenerateContent(ctx, genai.Text(prompt))
		return apiErr
	},
		common.WithMaxRetries(2),
		common.WithInitialDelay(2*time.Second),
	)
	if err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "AI 调用失败", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, common.NewError(common.ErrCodeAIProcessing, "AI 返回内容为空")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, common.NewError(common.ErrCodeAIProcessing, "AI 返回格式错误")
	}

	return ParseBatchResponse(string(text), repos)
}

// buildBatchPrompt 构建批量分析 Prompt
func buildBatchPrompt(repos []*domain.RepoEntry) string {
	var sb strings.Builder

	for i, repo := range repos {
		fmt.Fprintf(&sb, "\n【仓库 %d】\n", i+1)
		fmt.Fprintf(&sb, "名称: %s\n", repo.RepoName)
		fmt.Fprintf(&sb, "描述: %s\n", repo.Description)
		fmt.Fprintf(&sb, "语言: %s\n", repo.Language)
		if len(repo.Topics) > 0 {
			topics := repo.Topics
			if len(topics) > 5 {
				topics = topics[:5]
			}
			fmt.Fprintf(&sb, "Topics: %s\n", strings.Join(topics, ", "))
		}
		if repo.ReadmeSummary != "" {
			fmt.Fprintf(&sb, "README 摘要: %s\n", repo.ReadmeSummary)
		}
	}

	// 分类说明按 key 排序，保证 Prompt 稳定
	keys := make([]string, 0, len(domain.Categories))
	for key := range domain.Categories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var cats strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&cats, "  - %s: %s\n", key, domain.Categories[key])
	}

	return fmt.Sprintf(`你是一个开源项目分析专家。请分析以下 %d 个 GitHub 仓库，为每个仓库生成摘要和分类。
%s
【任务要求】

对每个仓库提取以下信息：
1. summary: 一句话摘要（不超过30字）
2. description: 详细描述（50-100字）
3. use_case: 使用场景（谁在什么情况下会用到）
4. solves: 解决的问题列表（3-5个关键词或短语）
5. category: 从以下分类中选择一个
%s6. category_zh: 对应 category 的中文名称
7. tech_stack: 主要技术栈标签

【输出格式】

严格按照以下 JSON 数组格式输出，不要有任何其他文字说明：

[
  {
    "repo_name": "owner/repo",
    "summary": "一句话摘要",
    "description": "详细描述",
    "use_case": "使用场景",
    "solves": ["问题1", "问题2"],
    "category": "tool",
    "category_zh": "工具",
    "tech_stack": ["Go", "PostgreSQL"]
  }
]

【重要】
- 只输出纯 JSON 数组
- repo_name 必须与输入的仓库名称完全一致
`, len(repos), sb.String(), cats.String())
}

// ParseBatchResponse 解析 AI 的批量响应
// 即使 AI 包了 Markdown 代码块，也能精准抠出中间的 [ ... ]
func ParseBatchResponse(raw string, repos []*domain.RepoEntry) ([]*domain.RepoDetail, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, common.NewError(common.ErrCodeAIProcessing,
			fmt.Sprintf("无法提取 JSON 数组, AI 原文: %s", domain.TruncateSummary(raw, 200)))
	}

	var items []aiItem
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, common.WrapError(common.ErrCodeAIProcessing, "JSON 解析失败", err)
	}

	originals := make(map[string]*domain.RepoEntry, len(repos))
	for _, repo := range repos {
		originals[repo.RepoName] = repo
	}

	var details []*domain.RepoDetail
	for _, item := range items {
		if item.RepoName == "" {
			continue
		}

		detail := &domain.RepoDetail{
			RepoName:    item.RepoName,
			Summary:     item.Summary,
			Description: item.Description,
			UseCase:     item.UseCase,
			Solves:      item.Solves,
			Category:    domain.NormalizeCategory(item.Category),
			CategoryZh:  item.CategoryZh,
			TechStack:   item.TechStack,
		}
		if detail.CategoryZh == "" {
			detail.CategoryZh = domain.Categories[detail.Category]
		}

		// 从原始数据回填 AI 不负责的字段
		if original, ok := originals[item.RepoName]; ok {
			detail.Language = original.Language
			detail.Topics = original.Topics
			detail.URL = original.URL
			if detail.Description == "" {
				detail.Description = original.Description
			}
		}

		details = append(details, detail)
	}

	if len(details) == 0 {
		return nil, common.NewError(common.ErrCodeAIProcessing, "AI 响应解析后为空")
	}
	return details, nil
}

// FallbackDetails 降级方案：AI 不可用时用原始元数据拼详情
func FallbackDetails(repos []*domain.RepoEntry) []*domain.RepoDetail {
	details := make([]*domain.RepoDetail, 0, len(repos))
	for _, repo := range repos {
		details = append(details, &domain.RepoDetail{
			RepoName:    repo.RepoName,
			Summary:     domain.TruncateSummary(repo.Description, 50),
			Description: repo.Description,
			Category:    domain.CategoryOther,
			CategoryZh:  domain.Categories[domain.CategoryOther],
			Language:    repo.Language,
			Topics:      repo.Topics,
			URL:         repo.URL,
		})
	}
	return details
}

// Close 释放客户端
func (s *Summarizer) Close() error {
	return s.client.Close()
}
