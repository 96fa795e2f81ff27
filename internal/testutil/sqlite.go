// Package testutil 提供基于内存 sqlite 的测试数据库
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/S9ine/demo-app-s9-project/internal/model"
)

// NewDB 创建独立的内存 sqlite 并同步全部表结构
// 单连接：内存库随连接存在，事务与查询共用同一连接
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

// Date 构造 UTC 零点日期
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// SeedDirectory 写入一个站点、若干人员和 day / night 班次
func SeedDirectory(t *testing.T, db *gorm.DB, workerCount int) (*model.Site, []model.Worker) {
	t.Helper()

	for _, s := range []model.Shift{
		{Code: "day", Name: "Day", StartTime: "07:00", EndTime: "19:00", IsActive: true},
		{Code: "night", Name: "Night", StartTime: "19:00", EndTime: "07:00", IsActive: true},
	} {
		s := s
		require.NoError(t, db.Create(&s).Error)
	}

	site := &model.Site{SiteCode: "S-001", Name: "Central Plaza", IsActive: true}
	require.NoError(t, db.Create(site).Error)

	workers := make([]model.Worker, 0, workerCount)
	for i := 1; i <= workerCount; i++ {
		w := model.Worker{
			WorkerCode: fmt.Sprintf("PG-%04d", i),
			FirstName:  "Worker",
			LastName:   fmt.Sprintf("No.%d", i),
			IsActive:   true,
		}
		require.NoError(t, db.Create(&w).Error)
		workers = append(workers, w)
	}
	return site, workers
}

// NewSchedule 构造一条启用排班（未入库）
func NewSchedule(date time.Time, siteID uint, payload model.ShiftPayload) *model.Schedule {
	s := &model.Schedule{
		ScheduleDate: datatypes.Date(date),
		SiteID:       siteID,
		SiteName:     "Central Plaza",
		IsActive:     true,
	}
	s.Version = 1
	s.ApplyPayload(payload)
	return s
}
