package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/S9ine/demo-app-s9-project/config"
	"github.com/S9ine/demo-app-s9-project/internal/api/handler"
	"github.com/S9ine/demo-app-s9-project/internal/api/middleware"
	"github.com/S9ine/demo-app-s9-project/internal/service"
	"github.com/S9ine/demo-app-s9-project/pkg/jwt"
	"github.com/S9ine/demo-app-s9-project/pkg/redis"
)

// Pinger 健康检查依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不启用 Token 黑名单与限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db Pinger,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免 nil *redis.Client 被包装成非 nil 接口
	var (
		blacklist middleware.BlacklistChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitMB << 20))
	r.Use(middleware.ClientIP())

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "db": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(limiter, cfg.RateLimit.LoginPerMinute, time.Minute))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		authorized.Use(middleware.RateLimit(limiter, cfg.RateLimit.APIPerMinute, time.Minute))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			admin := middleware.RoleAuth(service.RoleAdmin)

			// 排班模块
			schedules := authorized.Group("/schedules")
			{
				schedules.GET("", h.Schedule.ListSchedules)
				schedules.GET("/by-date/:date", h.Schedule.GetByDate)
				schedules.GET("/:id", h.Schedule.GetSchedule)
				schedules.POST("", h.Schedule.CreateSchedule)
				schedules.PUT("/:id", h.Schedule.UpdateSchedule)
				schedules.DELETE("/:id", h.Schedule.DeleteSchedule)
				schedules.DELETE("/:id/hard", admin, h.Schedule.HardDeleteSchedule)
			}

			// 人员模块
			workers := authorized.Group("/workers")
			{
				workers.GET("", h.Worker.ListWorkers)
				workers.GET("/:id", h.Worker.GetWorker)
				workers.GET("/:id/history", h.Worker.History)
				workers.GET("/:id/summary", h.Worker.Summary)
				workers.POST("", admin, h.Worker.CreateWorker)
				workers.PUT("/:id", admin, h.Worker.UpdateWorker)
				workers.DELETE("/:id", admin, h.Worker.DeleteWorker)
			}

			// 站点模块
			sites := authorized.Group("/sites")
			{
				sites.GET("", h.Site.ListSites)
				sites.GET("/:id", h.Site.GetSite)
				sites.POST("", admin, h.Site.CreateSite)
				sites.PUT("/:id", admin, h.Site.UpdateSite)
				sites.DELETE("/:id", admin, h.Site.DeleteSite)
			}

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("", h.Shift.ListShifts)
				shifts.POST("", admin, h.Shift.CreateShift)
				shifts.PUT("/:id", admin, h.Shift.UpdateShift)
				shifts.DELETE("/:id", admin, h.Shift.DeleteShift)
			}

			// 审计日志
			authorized.GET("/audit-logs", admin, h.Audit.ListAuditLogs)

			// 导出模块
			authorized.GET("/export/payroll", admin, h.Export.ExportPayroll)

			// 投影维护
			projection := authorized.Group("/admin/projection", admin)
			{
				projection.POST("/resync", h.Projection.Resync)
				projection.GET("/status", h.Projection.Status)
			}
		}
	}

	return r
}
