package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github-topics-trending/internal/common"
	"github-topics-trending/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore 实现了 port.SnapshotStore 接口
// 单写者模型：一天跑一次流水线，不需要额外加锁
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore 初始化数据库连接并自动迁移表结构
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "连接数据库失败", err)
	}

	// 自动迁移：snapshots / details / notifications 三张表
	err = db.AutoMigrate(&domain.SnapshotEntry{}, &domain.RepoDetail{}, &domain.NotificationRecord{})
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "数据库迁移失败", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewStoreWithDB 用已有连接构造，测试用
func NewStoreWithDB(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close 释放底层连接，每轮运行结束 (无论成败) 都要调用
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveTodaySnapshot 落当日快照
// 同一天重跑时整体替换该日期的行，所以放在一个事务里先删后插
func (s *PostgresStore) SaveTodaySnapshot(ctx context.Context, date string, entries []*domain.SnapshotEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("date = ?", date).Delete(&domain.SnapshotEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(entries, 200).Error
	})
	if err != nil {
		return common.WrapError(common.ErrCodeStorage, fmt.Sprintf("保存 %s 快照失败", date), err)
	}
	return nil
}

// SaveRepoDetails 按 repo_name 覆盖写 AI 详情 (latest wins)
// 分类在写入前收敛到固定集合，集合外的值一律落成 other
func (s *PostgresStore) SaveRepoDetails(ctx context.Context, details []*domain.RepoDetail) error {
	if len(details) == 0 {
		return nil
	}

	for _, d := range details {
		d.Category = domain.NormalizeCategory(d.Category)
		if d.CategoryZh == "" {
			d.CategoryZh = domain.Categories[d.Category]
		}
		// 可选字段缺失按空值处理，不报错
		if d.Solves == nil {
			d.Solves = []string{}
		}
		if d.TechStack == nil {
			d.TechStack = []string{}
		}
		if d.Topics == nil {
			d.Topics = []string{}
		}
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "repo_name"}},
			UpdateAll: true,
		}).
		CreateInBatches(details, 100).Error
	if err != nil {
		return common.WrapError(common.ErrCodeStorage, "保存仓库详情失败", err)
	}
	return nil
}

// GetPreviousSnapshot 严格早于 before 的最近一次快照
// 中途停跑过的话可能隔好几天；没有历史时返回空切片，这是首跑的正常情况
func (s *PostgresStore) GetPreviousSnapshot(ctx context.Context, before string) ([]*domain.SnapshotEntry, error) {
	var prevDate string
	err := s.db.WithContext(ctx).
		Model(&domain.SnapshotEntry{}).
		Select("COALESCE(MAX(date), '')").
		Where("date < ?", before).
		Scan(&prevDate).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "查询上一次快照日期失败", err)
	}
	if prevDate == "" {
		return []*domain.SnapshotEntry{}, nil
	}

	var entries []*domain.SnapshotEntry
	err = s.db.WithContext(ctx).
		Where("date = ?", prevDate).
		Order("rank ASC").
		Find(&entries).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, fmt.Sprintf("读取 %s 快照失败", prevDate), err)
	}
	return entries, nil
}

// GetNotifiedRepoNames since 当天及之后推送过的仓库名集合
func (s *PostgresStore) GetNotifiedRepoNames(ctx context.Context, since string) (map[string]struct{}, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&domain.NotificationRecord{}).
		Distinct("repo_name").
		Where("notified_date >= ?", since).
		Pluck("repo_name", &names).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, "查询推送记录失败", err)
	}

	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set, nil
}

// RecordNotification 追加推送日志
// 这里失败不应该让整轮运行失败，调用方记日志继续就行，代价只是未来可能重复推一次
func (s *PostgresStore) RecordNotification(ctx context.Context, repoNames []string, date string) error {
	if len(repoNames) == 0 {
		return nil
	}

	records := make([]*domain.NotificationRecord, 0, len(repoNames))
	for _, name := range repoNames {
		records = append(records, &domain.NotificationRecord{
			RepoName:     name,
			NotifiedDate: date,
		})
	}

	if err := s.db.WithContext(ctx).Create(records).Error; err != nil {
		return common.WrapError(common.ErrCodeStorage, "记录推送日志失败", err)
	}
	return nil
}

// GetReposByCategory 分类页查询，站点生成器用
func (s *PostgresStore) GetReposByCategory(ctx context.Context, category string, limit int) ([]*domain.RepoDetail, error) {
	var details []*domain.RepoDetail
	err := s.db.WithContext(ctx).
		Where("category = ?", category).
		Order("updated_at DESC").
		Limit(limit).
		Find(&details).Error
	if err != nil {
		return nil, common.WrapError(common.ErrCodeStorage, fmt.Sprintf("查询分类 %s 失败", category), err)
	}
	return details, nil
}

// CleanupOldData 清理 today - retentionDays 之前的快照、详情和推送日志
// retentionDays <= 0 视为"不清理"而不是"全删"，配置错了也不会删掉当天数据
func (s *PostgresStore) CleanupOldData(ctx context.Context, today string, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		log.Printf("⚠️ 保留天数 %d 无效，跳过清理", retentionDays)
		return 0, nil
	}

	cutoff := domain.DaysBefore(today, retentionDays)
	cutoffUnix := cutoffUnixSeconds(cutoff)

	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("date < ?", cutoff).Delete(&domain.SnapshotEntry{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Where("notified_date < ?", cutoff).Delete(&domain.NotificationRecord{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		// 详情没有业务日期，按最后一次 AI 更新时间清理
		res = tx.Where("updated_at < ?", cutoffUnix).Delete(&domain.RepoDetail{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, common.WrapError(common.ErrCodeStorage, "清理过期数据失败", err)
	}
	return total, nil
}

func cutoffUnixSeconds(date string) int64 {
	t, err := time.Parse(domain.DateFormat, date)
	if err != nil {
		return 0
	}
	return t.Unix()
}
