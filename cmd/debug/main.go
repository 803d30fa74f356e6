package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github-topics-trending/internal/adapter/github"
	"github-topics-trending/internal/adapter/repository"
	"github-topics-trending/internal/domain"
	"github-topics-trending/internal/service"
)

// 调试入口：抓一次榜单直接算趋势打印出来，不推送不建站
func main() {
	topic := flag.String("topic", "claude", "要调试的 GitHub topic")
	limit := flag.Int("limit", 30, "抓取条数")
	flag.Parse()

	githubToken := os.Getenv("GITHUB_TOKEN")
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=topics_trending port=5432 sslmode=disable TimeZone=UTC"
	}

	ctx := context.Background()

	store, err := repository.NewPostgresStore(dsn)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}
	defer store.Close()

	fetcher := github.NewFetcher(githubToken)

	fmt.Printf("🔍 调试模式：抓取 #%s 并计算趋势\n", *topic)

	entries, err := fetcher.FetchRanking(ctx, *topic, "stars", *limit)
	if err != nil {
		log.Fatalf("❌ 抓取榜单失败: %v", err)
	}
	fmt.Printf("✅ 成功获取 %d 个仓库\n", len(entries))

	// 不走 AI，全部用降级详情，足够看分桶结果
	analyzer := service.NewTrendAnalyzer(store, *topic)
	trends, err := analyzer.CalculateTrends(ctx, entries, domain.Today(), nil, 0)
	if err != nil {
		log.Fatalf("❌ 趋势计算失败: %v", err)
	}

	printBucket("🏆 Top 20", trends.Top20)
	printBucket("🚀 今日飙升", trends.RisingTop5)
	printBucket("✨ 新晋项目", trends.NewEntries)
	printBucket("⚡ 星标暴涨", trends.Surging)
	printBucket("🔥 持续活跃", trends.Active)
	printBucket("📉 跌出榜单", trends.DroppedEntries)
}

func printBucket(title string, entries []*domain.TrendEntry) {
	fmt.Printf("\n%s (%d)\n", title, len(entries))
	for i, e := range entries {
		if i >= 10 {
			fmt.Println("  ...")
			break
		}
		delta := ""
		if e.StarsDelta != 0 {
			delta = fmt.Sprintf(" (%+d)", e.StarsDelta)
		}
		fmt.Printf("  %2d. %s ⭐%d%s\n", i+1, e.RepoName, e.Stars, delta)
	}
}
