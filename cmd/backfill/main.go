// Command backfill 按排班 payload 重建 schedule_workers 投影表
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/S9ine/demo-app-s9-project/config"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/database"
	applogger "github.com/S9ine/demo-app-s9-project/pkg/logger"
)

type options struct {
	configPath      string
	includeInactive bool
	batchSize       int
	statusOnly      bool
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "backfill",
		Short:        "重建排班人员投影表",
		Long:         "逐个排班按 payload 重建 schedule_workers，每个排班独立事务，可重复执行。",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "配置文件路径")
	flags.BoolVar(&opts.includeInactive, "include-inactive", false, "同时处理已停用的排班")
	flags.IntVar(&opts.batchSize, "batch-size", 0, "每批读取的排班数，0 表示使用配置值")
	flags.BoolVar(&opts.statusOnly, "status", false, "只检查同步状态，不写入")

	return cmd
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := database.Migrate(db, cfg.Database.Driver, logger, model.AllModels()...); err != nil {
		return err
	}

	svc := service.NewProjectionService(repository.NewRepository(db), cfg.Projection.BackfillBatchSize, nil, logger)

	var result interface{}
	if opts.statusOnly {
		result, err = svc.SyncStatus(ctx, opts.includeInactive)
	} else {
		result, err = svc.Backfill(ctx, service.BackfillOptions{
			IncludeInactive: opts.includeInactive,
			BatchSize:       opts.batchSize,
		})
	}
	if err != nil {
		logger.Error("投影回填失败", zap.Error(err))
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
