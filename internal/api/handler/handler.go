package handler

import "github.com/S9ine/demo-app-s9-project/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Schedule   *ScheduleHandler
	Worker     *WorkerHandler
	Site       *SiteHandler
	Shift      *ShiftHandler
	Projection *ProjectionHandler
	Audit      *AuditHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Schedule:   NewScheduleHandler(svc.Schedule),
		Worker:     NewWorkerHandler(svc.Worker, svc.WorkerHistory),
		Site:       NewSiteHandler(svc.Site),
		Shift:      NewShiftHandler(svc.Shift),
		Projection: NewProjectionHandler(svc.Projection),
		Audit:      NewAuditHandler(svc.Audit),
		Export:     NewExportHandler(svc.Export),
	}
}
