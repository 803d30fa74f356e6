package repository

import (
	"context"
	"regexp"
	"testing"

	"github-topics-trending/internal/common"
	"github-topics-trending/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupMockDB 创建一个模拟的数据库连接
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	// 禁用日志以减少输出
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm db: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestPostgresStore_SaveTodaySnapshot(t *testing.T) {
	tests := []struct {
		name        string
		entries     []*domain.SnapshotEntry
		setupMock   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "成功保存当日快照",
			entries: []*domain.SnapshotEntry{
				{RepoName: "o/a", Date: "2026-08-30", Stars: 100, Rank: 1},
				{RepoName: "o/b", Date: "2026-08-30", Stars: 50, Rank: 2},
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				// 先删后插，同一天重跑整体替换
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "snapshot_entries"`)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "snapshot_entries"`)).
					WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectCommit()
			},
			expectError: false,
		},
		{
			name:    "空榜单只做替换删除",
			entries: nil,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "snapshot_entries"`)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit()
			},
			expectError: false,
		},
		{
			name: "数据库错误按 StorageError 上抛",
			entries: []*domain.SnapshotEntry{
				{RepoName: "o/a", Date: "2026-08-30", Stars: 100, Rank: 1},
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "snapshot_entries"`)).
					WillReturnError(gorm.ErrInvalidDB)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			tt.setupMock(mock)

			store := NewStoreWithDB(gormDB)
			err := store.SaveTodaySnapshot(context.Background(), "2026-08-30", tt.entries)

			if tt.expectError {
				assert.Error(t, err)
				assert.True(t, common.IsCode(err, common.ErrCodeStorage))
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_SaveRepoDetails(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "repo_details"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	details := []*domain.RepoDetail{
		{RepoName: "o/a", Summary: "s", Category: "tool"},
		{RepoName: "o/b", Summary: "s", Category: "definitely-not-a-category"},
	}

	store := NewStoreWithDB(gormDB)
	err := store.SaveRepoDetails(context.Background(), details)
	require.NoError(t, err)

	// 集合外的分类在写入前收敛成 other，中文名自动补齐
	assert.Equal(t, "tool", details[0].Category)
	assert.Equal(t, domain.CategoryOther, details[1].Category)
	assert.Equal(t, domain.Categories[domain.CategoryOther], details[1].CategoryZh)

	// 可选字段缺失默认成空列表
	assert.NotNil(t, details[0].Solves)
	assert.NotNil(t, details[0].TechStack)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRepoDetails_Empty(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 空输入不应该碰数据库
	store := NewStoreWithDB(gormDB)
	err := store.SaveRepoDetails(context.Background(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPreviousSnapshot(t *testing.T) {
	t.Run("有历史快照", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(date), '') FROM "snapshot_entries"`)).
			WithArgs("2026-08-30").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("2026-08-28"))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "snapshot_entries"`)).
			WithArgs("2026-08-28").
			WillReturnRows(sqlmock.NewRows([]string{"repo_name", "date", "stars", "rank"}).
				AddRow("o/a", "2026-08-28", 100, 1).
				AddRow("o/b", "2026-08-28", 50, 2))

		store := NewStoreWithDB(gormDB)
		entries, err := store.GetPreviousSnapshot(context.Background(), "2026-08-30")
		require.NoError(t, err)

		// 停跑导致中间隔了一天也没关系，取的是严格更早的最近一次
		require.Len(t, entries, 2)
		assert.Equal(t, "o/a", entries[0].RepoName)
		assert.Equal(t, 1, entries[0].Rank)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("没有历史快照返回空切片", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(date), '') FROM "snapshot_entries"`)).
			WithArgs("2026-08-30").
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(""))

		store := NewStoreWithDB(gormDB)
		entries, err := store.GetPreviousSnapshot(context.Background(), "2026-08-30")

		// 首跑场景是正常情况，不是错误
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_GetNotifiedRepoNames(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "repo_name" FROM "notification_records"`)).
		WithArgs("2026-08-23").
		WillReturnRows(sqlmock.NewRows([]string{"repo_name"}).
			AddRow("o/x").
			AddRow("o/y"))

	store := NewStoreWithDB(gormDB)
	names, err := store.GetNotifiedRepoNames(context.Background(), "2026-08-23")
	require.NoError(t, err)

	assert.Contains(t, names, "o/x")
	assert.Contains(t, names, "o/y")
	assert.NotContains(t, names, "o/z")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordNotification(t *testing.T) {
	t.Run("追加推送日志", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "notification_records"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectCommit()

		store := NewStoreWithDB(gormDB)
		err := store.RecordNotification(context.Background(), []string{"o/a", "o/b"}, "2026-08-30")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("空列表不写库", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		store := NewStoreWithDB(gormDB)
		err := store.RecordNotification(context.Background(), nil, "2026-08-30")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_CleanupOldData(t *testing.T) {
	t.Run("正常清理三张表", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "snapshot_entries"`)).
			WillReturnResult(sqlmock.NewResult(0, 30))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notification_records"`)).
			WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "repo_details"`)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		store := NewStoreWithDB(gormDB)
		deleted, err := store.CleanupOldData(context.Background(), "2026-08-30", 90)
		require.NoError(t, err)
		assert.Equal(t, int64(37), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("保留天数为零不删任何东西", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		store := NewStoreWithDB(gormDB)
		deleted, err := store.CleanupOldData(context.Background(), "2026-08-30", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
		// 没有任何 SQL 预期，有查询就会失败
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("保留天数为负同样跳过", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		store := NewStoreWithDB(gormDB)
		deleted, err := store.CleanupOldData(context.Background(), "2026-08-30", -7)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_GetReposByCategory(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "repo_details"`)).
		WithArgs("tool", 2).
		WillReturnRows(sqlmock.NewRows([]string{"repo_name", "summary", "category"}).
			AddRow("o/a", "摘要A", "tool").
			AddRow("o/b", "摘要B", "tool"))

	store := NewStoreWithDB(gormDB)
	details, err := store.GetReposByCategory(context.Background(), "tool", 2)
	require.NoError(t, err)

	require.Len(t, details, 2)
	assert.Equal(t, "o/a", details[0].RepoName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
