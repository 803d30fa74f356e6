package service

import (
	"context"
	"sort"

	"github-topics-trending/internal/domain"
	"github-topics-trending/internal/port"
)

// 策略参数默认值，都是可调的业务规则，不要散落在比较逻辑里
const (
	DefaultTopN             = 20
	DefaultRisingN          = 5
	DefaultSurgeFloor       = 10
	DefaultSurgePercent     = 0.10
	DefaultContinuityWindow = 3
)

// TrendAnalyzer 趋势计算引擎：拿当日榜单对比历史快照和推送日志，分桶输出
// 除了最后落当日快照之外不写任何状态，分类本身是纯计算
type TrendAnalyzer struct {
	store port.SnapshotStore
	topic string

	// 精选榜长度与飙升榜长度
	TopN    int
	RisingN int

	// 暴涨判定：delta >= max(SurgeFloor, SurgePercent * 昨日星标)
	// 下限保证小项目不会因为个位数增长被标成暴涨，百分比保证大项目要涨得成比例
	SurgeFloor   int
	SurgePercent float64

	// 活跃判定：连续出现在最近 N 次快照里 (按记录到的快照数，不是自然日)
	ContinuityWindow int
}

// NewTrendAnalyzer 创建引擎，store 作为协作者显式传入，方便用内存桩测试
func NewTrendAnalyzer(store port.SnapshotStore, topic string) *TrendAnalyzer {
	return &TrendAnalyzer{
		store:            store,
		topic:            topic,
		TopN:             DefaultTopN,
		RisingN:          DefaultRisingN,
		SurgeFloor:       DefaultSurgeFloor,
		SurgePercent:     DefaultSurgePercent,
		ContinuityWindow: DefaultContinuityWindow,
	}
}

// CalculateTrends 核心入口
//   - todayEntries: 当日抓到的榜单，按星标降序，未去重未补全
//   - today: 当日日期 "2006-01-02"
//   - enrichment: repo_name -> AI 详情，缺失的条目走降级填充
//   - dedupDays: 去重窗口天数，0 表示关闭去重
//
// 存储层的失败原样向上抛，引擎只对缺失的 AI 详情做兜底，那是正常输入不是错误
func (a *TrendAnalyzer) CalculateTrends(
	ctx context.Context,
	todayEntries []*domain.RepoEntry,
	today string,
	enrichment map[string]*domain.RepoDetail,
	dedupDays int,
) (*domain.TrendResult, error) {
	result := &domain.TrendResult{
		Topic:          a.topic,
		Date:           today,
		Top20:          []*domain.TrendEntry{},
		RisingTop5:     []*domain.TrendEntry{},
		NewEntries:     []*domain.TrendEntry{},
		DroppedEntries: []*domain.TrendEntry{},
		Surging:        []*domain.TrendEntry{},
		Active:         []*domain.TrendEntry{},
	}

	// 1. 用 AI 详情补全当日条目，保持输入顺序
	enriched := make([]*domain.TrendEntry, 0, len(todayEntries))
	for _, entry := range todayEntries {
		enriched = append(enriched, enrich(entry, enrichment))
	}

	// 2. 上一次快照 (可能因为停跑隔了好几天)
	previous, err := a.store.GetPreviousSnapshot(ctx, today)
	if err != nil {
		return nil, err
	}
	prevStars := make(map[string]int, len(previous))
	prevRank := make(map[string]int, len(previous))
	for _, p := range previous {
		prevStars[p.RepoName] = p.Stars
		prevRank[p.RepoName] = p.Rank
	}

	todayNames := make(map[string]struct{}, len(enriched))

	// 3-4. 计算 delta，顺便分出新晋
	// 首次出现的仓库 delta 记 0：它没有增长信号，只算"新晋"，不混进"上升"
	for _, e := range enriched {
		todayNames[e.RepoName] = struct{}{}
		if stars, ok := prevStars[e.RepoName]; ok {
			e.StarsDelta = e.Stars - stars
		} else {
			e.StarsDelta = 0
			result.NewEntries = append(result.NewEntries, e)
		}
	}

	// 5. 跌出榜单的仓库，带上一次的星标，按上一次排名升序 (掉得最显眼的排前面)
	for _, p := range previous {
		if _, ok := todayNames[p.RepoName]; ok {
			continue
		}
		result.DroppedEntries = append(result.DroppedEntries, &domain.TrendEntry{
			RepoEntry: domain.RepoEntry{
				RepoName: p.RepoName,
				Stars:    p.Stars,
			},
			PrevRank: p.Rank,
		})
	}
	sort.SliceStable(result.DroppedEntries, func(i, j int) bool {
		return result.DroppedEntries[i].PrevRank < result.DroppedEntries[j].PrevRank
	})

	// 6. 上升榜：两天都在榜且 delta 严格为正，delta 降序 -> 星标降序 -> 名字升序
	var risers []*domain.TrendEntry
	for _, e := range enriched {
		if _, ok := prevStars[e.RepoName]; ok && e.StarsDelta > 0 {
			risers = append(risers, e)
		}
	}
	sort.SliceStable(risers, func(i, j int) bool {
		if risers[i].StarsDelta != risers[j].StarsDelta {
			return risers[i].StarsDelta > risers[j].StarsDelta
		}
		if risers[i].Stars != risers[j].Stars {
			return risers[i].Stars > risers[j].Stars
		}
		return risers[i].RepoName < risers[j].RepoName
	})
	if len(risers) > a.RisingN {
		risers = risers[:a.RisingN]
	}
	result.RisingTop5 = append(result.RisingTop5, risers...)

	// 7. 暴涨榜
	for _, e := range enriched {
		stars, ok := prevStars[e.RepoName]
		if !ok {
			continue
		}
		threshold := float64(a.SurgeFloor)
		if pct := a.SurgePercent * float64(stars); pct > threshold {
			threshold = pct
		}
		if float64(e.StarsDelta) >= threshold && e.StarsDelta > 0 {
			result.Surging = append(result.Surging, e)
		}
	}

	// 8. 活跃榜：今天在榜且最近 ContinuityWindow 次快照全都在榜
	activeNames, err := a.continuousNames(ctx, today)
	if err != nil {
		return nil, err
	}
	if activeNames != nil {
		for _, e := range enriched {
			if _, ok := activeNames[e.RepoName]; ok {
				result.Active = append(result.Active, e)
			}
		}
	}

	// 9. 精选榜去重：窗口内推送过的仓库直接剔除，剔完不足 20 个就短一点，不回填
	excluded := map[string]struct{}{}
	if dedupDays > 0 {
		since := domain.DaysBefore(today, dedupDays)
		excluded, err = a.store.GetNotifiedRepoNames(ctx, since)
		if err != nil {
			return nil, err
		}
	}

	byStars := make([]*domain.TrendEntry, len(enriched))
	copy(byStars, enriched)
	sort.SliceStable(byStars, func(i, j int) bool {
		return byStars[i].Stars > byStars[j].Stars
	})
	for _, e := range byStars {
		if _, skip := excluded[e.RepoName]; skip {
			continue
		}
		result.Top20 = append(result.Top20, e)
		if len(result.Top20) >= a.TopN {
			break
		}
	}

	// 10. 落当日快照，1-based 排名按输入顺序。放在引擎里做，
	// 分类完成但未持久化的失败就收敛成单一故障点
	snapshot := make([]*domain.SnapshotEntry, 0, len(todayEntries))
	for i, entry := range todayEntries {
		snapshot = append(snapshot, &domain.SnapshotEntry{
			RepoName: entry.RepoName,
			Date:     today,
			Stars:    entry.Stars,
			Rank:     i + 1,
		})
	}
	if err := a.store.SaveTodaySnapshot(ctx, today, snapshot); err != nil {
		return nil, err
	}

	return result, nil
}

// continuousNames 往回走 ContinuityWindow 次快照，返回每次都在榜的仓库名
// 历史不够 (凑不齐 N 次) 时返回 nil，表示谁也够不上"活跃"
func (a *TrendAnalyzer) continuousNames(ctx context.Context, today string) (map[string]struct{}, error) {
	var common map[string]struct{}
	cursor := today

	for i := 0; i < a.ContinuityWindow; i++ {
		snapshot, err := a.store.GetPreviousSnapshot(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if len(snapshot) == 0 {
			return nil, nil
		}

		names := make(map[string]struct{}, len(snapshot))
		for _, s := range snapshot {
			names[s.RepoName] = struct{}{}
		}

		if common == nil {
			common = names
		} else {
			for name := range common {
				if _, ok := names[name]; !ok {
					delete(common, name)
				}
			}
		}
		cursor = snapshot[0].Date
	}
	return common, nil
}

// enrich 把 AI 详情合并进当日条目，没有详情就走降级：
// 摘要用截断的描述，分类记 other
func enrich(entry *domain.RepoEntry, enrichment map[string]*domain.RepoDetail) *domain.TrendEntry {
	e := &domain.TrendEntry{RepoEntry: *entry}

	if detail, ok := enrichment[entry.RepoName]; ok && detail != nil {
		e.Summary = detail.Summary
		e.Category = domain.NormalizeCategory(detail.Category)
		e.CategoryZh = detail.CategoryZh
		if e.CategoryZh == "" {
			e.CategoryZh = domain.Categories[e.Category]
		}
		e.TechStack = detail.TechStack
		e.Solves = detail.Solves
		if e.Summary == "" {
			e.Summary = domain.TruncateSummary(entry.Description, 50)
		}
		return e
	}

	e.Summary = domain.TruncateSummary(entry.Description, 50)
	e.Category = domain.CategoryOther
	e.CategoryZh = domain.Categories[domain.CategoryOther]
	return e
}
