package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github-topics-trending/internal/adapter/gemini"
	"github-topics-trending/internal/adapter/github"
	"github-topics-trending/internal/adapter/repository"
	"github-topics-trending/internal/adapter/telegram"
	"github-topics-trending/internal/adapter/web"
	"github-topics-trending/internal/config"
	"github-topics-trending/internal/domain"
	"github-topics-trending/internal/service"

	"github.com/robfig/cron/v3"
)

func main() {
	// 1. 命令行参数
	mode := flag.String("mode", "run", "运行模式: run (完整日更) 或 fetch-only (仅抓取落库)")
	date := flag.String("date", "", "指定日期 (YYYY-MM-DD)，默认今天 (UTC)，用于补跑")
	cronSpec := flag.String("cron", "", "cron 表达式，非空时进入定时模式，例如 '0 6 * * *'")
	flag.Parse()

	// 2. 读配置 (含 .env)，窗口参数在这里就校验掉
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ 配置错误: %v", err)
	}
	if missing := cfg.MissingEnv(); len(missing) > 0 {
		fmt.Println("❌ 环境变量配置错误:")
		for _, name := range missing {
			fmt.Printf("   - %s 未设置\n", name)
		}
		os.Exit(1)
	}

	// 3. 初始化存储，一轮一开一关
	store, err := repository.NewPostgresStore(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("❌ DB 初始化失败: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("⚠️ 关闭数据库失败: %v", err)
		}
	}()

	// 4. 初始化 AI
	ctx := context.Background()
	summarizer, err := gemini.NewSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatalf("❌ AI 初始化失败: %v", err)
	}
	defer summarizer.Close()

	// 5. 其余组件
	fetcher := github.NewFetcher(cfg.GitHubToken)
	notifier := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.SiteURL)
	publisher := web.NewGenerator(cfg.OutputDir, cfg.Topic)
	analyzer := service.NewTrendAnalyzer(store, cfg.Topic)

	daily := service.NewDailyService(
		fetcher, summarizer, store, analyzer, notifier, publisher,
		cfg.Topic, cfg.FetchLimit, cfg.TopNDetails, cfg.DeduplicateDays, cfg.RetentionDays,
	)

	// 6. 定时 or 单次
	if *cronSpec != "" {
		runScheduled(daily, *mode, *cronSpec)
		return
	}

	today := *date
	if today == "" {
		today = domain.Today()
	}
	if err := runOnce(daily, *mode, today); err != nil {
		log.Fatalf("❌ 执行失败: %v", err)
	}
}

// runOnce 执行一轮，整轮设置超时兜底
func runOnce(daily *service.DailyService, mode, today string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	switch mode {
	case "fetch-only":
		return daily.RunFetchOnly(ctx, today)
	case "run":
		_, err := daily.Run(ctx, today)
		return err
	default:
		return fmt.Errorf("未知模式 %q，请使用 -mode=run 或 -mode=fetch-only", mode)
	}
}

// runScheduled 定时模式，收到 SIGINT/SIGTERM 优雅退出
func runScheduled(daily *service.DailyService, mode, spec string) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := runOnce(daily, mode, domain.Today()); err != nil {
			log.Printf("❌ 定时任务执行失败: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("❌ cron 表达式非法 %q: %v", spec, err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	c.Start()
	fmt.Printf("⏰ 定时模式已启动 (%s)，按 Ctrl+C 停止\n", spec)

	<-sigChan
	fmt.Println("\n👋 收到停止信号，正在退出...")
	cronCtx := c.Stop()
	<-cronCtx.Done()
}
