package config

import (
	"fmt"

	"github-topics-trending/internal/common"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 进程级配置，全部来自环境变量 (本地开发可以放 .env)
type Config struct {
	// 抓取
	Topic        string `envconfig:"TOPIC" default:"claude"`
	GitHubToken  string `envconfig:"GITHUB_TOKEN"`
	FetchLimit   int    `envconfig:"FETCH_LIMIT" default:"100"`
	TopNDetails  int    `envconfig:"TOP_N_DETAILS" default:"50"`

	// AI
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-lite"`

	// 推送
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `envconfig:"TELEGRAM_CHAT_ID"`

	// 存储与策略窗口
	DatabaseDSN     string `envconfig:"DATABASE_DSN" default:"host=localhost user=postgres password=postgres dbname=topics_trending port=5432 sslmode=disable TimeZone=UTC"`
	DeduplicateDays int    `envconfig:"DEDUPLICATE_DAYS" default:"7"`
	RetentionDays   int    `envconfig:"DB_RETENTION_DAYS" default:"90"`

	// 站点输出
	OutputDir string `envconfig:"OUTPUT_DIR" default:"./docs"`
	SiteURL   string `envconfig:"SITE_URL" default:""`
}

// Load 读取 .env (如果有) 和环境变量并校验
// 窗口参数为负在这里就拒绝，引擎拿到的永远是非负整数
func Load() (*Config, error) {
	// .env 不存在不是错误，CI 里直接用环境变量
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, common.WrapError(common.ErrCodeConfig, "解析环境变量失败", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验窗口参数合法性
func (c *Config) Validate() error {
	if c.DeduplicateDays < 0 {
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("DEDUPLICATE_DAYS 不能为负数: %d", c.DeduplicateDays))
	}
	if c.RetentionDays < 0 {
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("DB_RETENTION_DAYS 不能为负数: %d", c.RetentionDays))
	}
	if c.FetchLimit <= 0 {
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("FETCH_LIMIT 必须为正数: %d", c.FetchLimit))
	}
	if c.TopNDetails < 0 {
		return common.NewError(common.ErrCodeConfig,
			fmt.Sprintf("TOP_N_DETAILS 不能为负数: %d", c.TopNDetails))
	}
	return nil
}

// MissingEnv 返回缺失的必填环境变量列表，交给 main 统一提示
func (c *Config) MissingEnv() []string {
	var missing []string
	if c.GitHubToken == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramChatID == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	return missing
}
