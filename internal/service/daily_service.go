package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github-topics-trending/internal/domain"
	"github-topics-trending/internal/port"
)

// DailyService 串联一整天的流水线：抓取 -> 补全 -> AI 分析 -> 趋势计算 -> 推送 -> 建站 -> 清理
type DailyService struct {
	fetcher    port.Fetcher
	summarizer port.Summarizer
	store      port.SnapshotStore
	analyzer   *TrendAnalyzer
	notifier   port.Notifier
	publisher  port.Publisher

	topic           string
	fetchLimit      int
	topNDetails     int
	deduplicateDays int
	retentionDays   int
}

// NewDailyService 创建流水线服务
func NewDailyService(
	fetcher port.Fetcher,
	summarizer port.Summarizer,
	store port.SnapshotStore,
	analyzer *TrendAnalyzer,
	notifier port.Notifier,
	publisher port.Publisher,
	topic string,
	fetchLimit, topNDetails, deduplicateDays, retentionDays int,
) *DailyService {
	return &DailyService{
		fetcher:         fetcher,
		summarizer:      summarizer,
		store:           store,
		analyzer:        analyzer,
		notifier:        notifier,
		publisher:       publisher,
		topic:           topic,
		fetchLimit:      fetchLimit,
		topNDetails:     topNDetails,
		deduplicateDays: deduplicateDays,
		retentionDays:   retentionDays,
	}
}

// Run 执行一轮完整的日更周期
// 存储失败是致命的，会在推送/建站之前中止，避免用残缺历史发报告；
// AI 和推送日志的失败只降级，不中断
func (d *DailyService) Run(ctx context.Context, today string) (*domain.TrendResult, error) {
	fmt.Printf("🚀 [日更模式] 话题 #%s，日期 %s\n", d.topic, today)
	if d.deduplicateDays > 0 {
		fmt.Printf("   (去重模式: 过滤 %d 天内已推送的项目)\n", d.deduplicateDays)
	}

	// 1. 抓当日榜单
	fmt.Println("📥 [1/7] 抓取仓库排行榜...")
	todayEntries, err := d.fetcher.FetchRanking(ctx, d.topic, "stars", d.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("抓取榜单失败: %w", err)
	}
	fmt.Printf("✅ 成功获取 %d 个仓库\n", len(todayEntries))

	// 2. 给 Top N 补 README 摘要，单个失败跳过
	topN := d.topNDetails
	if topN > len(todayEntries) {
		topN = len(todayEntries)
	}
	fmt.Printf("📖 [2/7] 抓取 Top %d README...\n", topN)
	fetched := 0
	for _, entry := range todayEntries[:topN] {
		summary, err := d.fetcher.FetchReadmeSummary(ctx, entry.RepoName)
		if err != nil {
			log.Printf("⚠️ 获取 %s README 失败: %v", entry.RepoName, err)
			continue
		}
		if summary != "" {
			entry.ReadmeSummary = summary
			fetched++
		}
		// 别把搜索接口打挂
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Printf("✅ 成功获取 %d 个 README 摘要\n", fetched)

	// 3. AI 总结和分类 (上游已经内置降级，这里只可能拿到可用结果)
	fmt.Println("🤖 [3/7] AI 分析和分类...")
	details, err := d.summarizer.SummarizeAndClassify(ctx, todayEntries[:topN])
	if err != nil {
		// 降级后仍报错说明连兜底都构造不出来，但趋势计算不依赖 AI，继续
		log.Printf("⚠️ AI 分析失败，使用原始元数据: %v", err)
		details = nil
	}
	fmt.Printf("✅ 成功分析 %d 个仓库\n", len(details))

	// 4. 详情落库
	fmt.Println("💾 [4/7] 保存仓库详情...")
	if err := d.store.SaveRepoDetails(ctx, details); err != nil {
		return nil, err
	}

	enrichment := make(map[string]*domain.RepoDetail, len(details))
	for _, detail := range details {
		enrichment[detail.RepoName] = detail
	}

	// 5. 趋势计算 (含去重和当日快照落库)
	fmt.Printf("📊 [5/7] 计算趋势 (去重天数: %d)...\n", d.deduplicateDays)
	trends, err := d.analyzer.CalculateTrends(ctx, todayEntries, today, enrichment, d.deduplicateDays)
	if err != nil {
		return nil, err
	}
	fmt.Printf("   Top 20: %d | 上升: %d | 新晋: %d | 跌出: %d | 暴涨: %d | 活跃: %d\n",
		len(trends.Top20), len(trends.RisingTop5), len(trends.NewEntries),
		len(trends.DroppedEntries), len(trends.Surging), len(trends.Active))

	// 6. 推送 + 记录推送日志
	fmt.Println("📲 [6/7] 发送 Telegram 通知...")
	if d.notifier != nil {
		notified, err := d.notifier.SendReport(ctx, trends)
		if err != nil {
			log.Printf("❌ Telegram 发送失败: %v", err)
		} else if len(notified) > 0 {
			// 推送日志写失败只影响未来去重，不中断本轮
			if err := d.store.RecordNotification(ctx, notified, today); err != nil {
				log.Printf("⚠️ 记录推送日志失败 (未来可能重复推送): %v", err)
			}
		}
	} else {
		log.Println("⚠️ 未配置通知通道，跳过推送")
	}

	// 7. 生成静态站点 + 清理过期数据
	fmt.Println("🌐 [7/7] 生成站点并清理过期数据...")
	if d.publisher != nil {
		files, err := d.publisher.GenerateAll(ctx, trends, d.store)
		if err != nil {
			log.Printf("❌ 站点生成失败: %v", err)
		} else {
			fmt.Printf("✅ 生成 %d 个文件\n", len(files))
		}
	}

	deleted, err := d.store.CleanupOldData(ctx, today, d.retentionDays)
	if err != nil {
		log.Printf("⚠️ 清理过期数据失败: %v", err)
	} else if deleted > 0 {
		fmt.Printf("🧹 清理 %d 行过期数据\n", deleted)
	}

	fmt.Printf("🎉 本轮完成，推送 %d 个项目\n", len(trends.Top20))
	return trends, nil
}

// RunFetchOnly 只抓取和落库，不推送不建站
func (d *DailyService) RunFetchOnly(ctx context.Context, today string) error {
	fmt.Printf("📥 [仅抓取] 话题 #%s，日期 %s\n", d.topic, today)

	todayEntries, err := d.fetcher.FetchRanking(ctx, d.topic, "stars", d.fetchLimit)
	if err != nil {
		return fmt.Errorf("抓取榜单失败: %w", err)
	}
	fmt.Printf("✅ 成功获取 %d 个仓库\n", len(todayEntries))

	topN := d.topNDetails
	if topN > len(todayEntries) {
		topN = len(todayEntries)
	}
	details, err := d.summarizer.SummarizeAndClassify(ctx, todayEntries[:topN])
	if err != nil {
		log.Printf("⚠️ AI 分析失败: %v", err)
	}
	if err := d.store.SaveRepoDetails(ctx, details); err != nil {
		return err
	}

	snapshot := make([]*domain.SnapshotEntry, 0, len(todayEntries))
	for i, entry := range todayEntries {
		snapshot = append(snapshot, &domain.SnapshotEntry{
			RepoName: entry.RepoName,
			Date:     today,
			Stars:    entry.Stars,
			Rank:     i + 1,
		})
	}
	if err := d.store.SaveTodaySnapshot(ctx, today, snapshot); err != nil {
		return err
	}

	fmt.Printf("✅ 完成! 获取 %d 个仓库，分析 %d 个\n", len(todayEntries), len(details))
	return nil
}
