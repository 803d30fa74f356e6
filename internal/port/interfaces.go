package port

import (
	"context"

	"github-topics-trending/internal/domain"
)

// Fetcher (采集器): 负责抓取某个 topic 下的仓库榜单和 README
type Fetcher interface {
	// 按 sortBy (目前只有 "stars") 抓取 topic 榜单，按星标降序，最多 limit 条
	FetchRanking(ctx context.Context, topic string, sortBy string, limit int) ([]*domain.RepoEntry, error)

	// 抓取单个仓库的 README 并截断成摘要，失败返回空串不报错
	FetchReadmeSummary(ctx context.Context, repoName string) (string, error)
}

// Summarizer (分析师): 负责调用 LLM 做摘要和分类
// 调用失败时返回降级结果，永远不让流水线因为 AI 挂掉而中断
type Summarizer interface {
	SummarizeAndClassify(ctx context.Context, repos []*domain.RepoEntry) ([]*domain.RepoDetail, error)
}

// Notifier (信使): 负责把趋势报告推送出去 (Telegram)
// 返回实际展示的 repo_name 列表，供去重日志记录
type Notifier interface {
	SendReport(ctx context.Context, trends *domain.TrendResult) ([]string, error)
}

// Publisher (站点生成器): 把趋势结果渲染成静态页面
type Publisher interface {
	GenerateAll(ctx context.Context, trends *domain.TrendResult, store SnapshotStore) ([]string, error)
}

// SnapshotStore (仓库管理员): 历史快照、AI 详情和推送日志的唯一出处
// 所有日期参数都是 "2006-01-02" 格式
type SnapshotStore interface {
	// 落当日快照，同一天重跑整体替换，不累积
	SaveTodaySnapshot(ctx context.Context, date string, entries []*domain.SnapshotEntry) error

	// 按 repo_name 覆盖写 AI 详情
	SaveRepoDetails(ctx context.Context, details []*domain.RepoDetail) error

	// 严格早于 before 的最近一次快照，没有历史时返回空切片而不是错误
	GetPreviousSnapshot(ctx context.Context, before string) ([]*domain.SnapshotEntry, error)

	// since 当天及之后推送过的仓库名集合
	GetNotifiedRepoNames(ctx context.Context, since string) (map[string]struct{}, error)

	// 追加推送日志；失败只影响未来去重，调用方记日志继续
	RecordNotification(ctx context.Context, repoNames []string, date string) error

	// 分类页查询，引擎本身不用
	GetReposByCategory(ctx context.Context, category string, limit int) ([]*domain.RepoDetail, error)

	// 清理 today - retentionDays 之前的数据，返回删除行数
	// retentionDays <= 0 表示不清理，绝不会当成"全删"
	CleanupOldData(ctx context.Context, today string, retentionDays int) (int64, error)
}
