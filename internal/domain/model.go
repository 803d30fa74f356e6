package domain

// RepoEntry 代表当日榜单里的一条仓库记录 (来自 GitHub 搜索)
type RepoEntry struct {
	RepoName      string   `json:"repo_name"` // 例如 "gohugoio/hugo"
	Stars         int      `json:"stars"`
	Language      string   `json:"language"`
	Topics        []string `json:"topics"`
	Description   string   `json:"description"`
	URL           string   `json:"url"`
	ReadmeSummary string   `json:"readme_summary,omitempty"`
}

// SnapshotEntry 是某个仓库在某一天的榜单快照，(repo_name, date) 唯一
// 日期统一用 "2006-01-02" 格式字符串，字典序即时间序
type SnapshotEntry struct {
	RepoName string `json:"repo_name" gorm:"primaryKey;size:255"`
	Date     string `json:"date" gorm:"primaryKey;size:10;index"`
	Stars    int    `json:"stars"`
	Rank     int    `json:"rank"` // 1 = 当日星标最高
}

// RepoDetail AI 分析产出的仓库详情，按 repo_name 覆盖写 (latest wins)
type RepoDetail struct {
	RepoName    string   `json:"repo_name" gorm:"primaryKey;size:255"`
	Summary     string   `json:"summary"`
	Description string   `json:"description" gorm:"type:text"`
	UseCase     string   `json:"use_case" gorm:"type:text"`
	Solves      []string `json:"solves" gorm:"serializer:json"`
	Category    string   `json:"category" gorm:"index;size:32"`
	CategoryZh  string   `json:"category_zh" gorm:"size:32"`
	TechStack   []string `json:"tech_stack" gorm:"serializer:json"`
	Language    string   `json:"language" gorm:"size:64"`
	Topics      []string `json:"topics" gorm:"serializer:json"`
	URL         string   `json:"url"`
	UpdatedAt   int64    `json:"updated_at" gorm:"autoUpdateTime"`
}

// NotificationRecord 推送日志，只追加不修改，同一仓库可以跨日期多条
type NotificationRecord struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	RepoName     string `json:"repo_name" gorm:"index;size:255"`
	NotifiedDate string `json:"notified_date" gorm:"size:10;index"`
}

// TrendEntry 趋势计算的工作单元：当日榜单条目 + AI 详情 + 星标增量
type TrendEntry struct {
	RepoEntry
	Summary    string   `json:"summary"`
	Category   string   `json:"category"`
	CategoryZh string   `json:"category_zh"`
	TechStack  []string `json:"tech_stack,omitempty"`
	Solves     []string `json:"solves,omitempty"`
	StarsDelta int      `json:"stars_delta"`
	PrevRank   int      `json:"prev_rank,omitempty"` // 仅 dropped 条目携带
}

// TrendResult 每次运行的分类结果，算完即用，不落库
type TrendResult struct {
	Topic          string        `json:"topic"`
	Date           string        `json:"date"`
	Top20          []*TrendEntry `json:"top_20"`
	RisingTop5     []*TrendEntry `json:"rising_top5"`
	NewEntries     []*TrendEntry `json:"new_entries"`
	DroppedEntries []*TrendEntry `json:"dropped_entries"`
	Surging        []*TrendEntry `json:"surging"`
	Active         []*TrendEntry `json:"active"`
}

// IsEmpty 当日榜单为空时所有桶都为空
func (t *TrendResult) IsEmpty() bool {
	return len(t.Top20) == 0 && len(t.RisingTop5) == 0 && len(t.NewEntries) == 0 &&
		len(t.DroppedEntries) == 0 && len(t.Surging) == 0 && len(t.Active) == 0
}

// CategoryOther 未知分类统一归入 "other"
const CategoryOther = "other"

// Categories 固定分类集合 (key -> 中文名)，AI 返回集合外的值一律收敛成 other
var Categories = map[string]string{
	"ai":       "AI 与大模型",
	"tool":     "工具",
	"library":  "开发库",
	"web":      "Web 开发",
	"data":     "数据处理",
	"devops":   "DevOps 与基础设施",
	"learning": "学习资源",
	"other":    "其他",
}

// NormalizeCategory 把分类收敛到固定集合内
func NormalizeCategory(category string) string {
	if _, ok := Categories[category]; ok {
		return category
	}
	return CategoryOther
}

// TruncateSummary 降级摘要：描述太长就截断
func TruncateSummary(description string, max int) string {
	runes := []rune(description)
	if len(runes) <= max {
		return description
	}
	return string(runes[:max]) + "..."
}
