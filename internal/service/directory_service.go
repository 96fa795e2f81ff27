package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
)

// ── 站点 / 人员目录业务错误 ──

var (
	ErrSiteNotFound    = errors.New("站点不存在")
	ErrSiteCodeTaken   = errors.New("站点编码已存在")
	ErrWorkerNotFound  = errors.New("人员不存在")
	ErrWorkerCodeTaken = errors.New("人员编号已存在")
)

// SiteService 站点业务接口
type SiteService interface {
	Create(ctx context.Context, req *dto.CreateSiteRequest, callerID string) (*dto.SiteResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.SiteResponse, error)
	List(ctx context.Context, req *dto.DirectoryListRequest) ([]dto.SiteResponse, int64, error)
	Update(ctx context.Context, id uint, req *dto.UpdateSiteRequest, callerID string) (*dto.SiteResponse, error)
	Delete(ctx context.Context, id uint, callerID string) error
}

// WorkerService 人员业务接口
type WorkerService interface {
	Create(ctx context.Context, req *dto.CreateWorkerRequest, callerID string) (*dto.WorkerResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.WorkerResponse, error)
	List(ctx context.Context, req *dto.DirectoryListRequest) ([]dto.WorkerResponse, int64, error)
	Update(ctx context.Context, id uint, req *dto.UpdateWorkerRequest, callerID string) (*dto.WorkerResponse, error)
	Delete(ctx context.Context, id uint, callerID string) error
}

// ════════════════════════════════════════════════════════════
// 站点
// ════════════════════════════════════════════════════════════

type siteService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSiteService 创建 SiteService 实例
func NewSiteService(repo *repository.Repository, logger *zap.Logger) SiteService {
	return &siteService{repo: repo, logger: logger}
}

func (s *siteService) Create(ctx context.Context, req *dto.CreateSiteRequest, callerID string) (*dto.SiteResponse, error) {
	site := &model.Site{
		SiteCode:     req.SiteCode,
		Name:         req.Name,
		CustomerCode: req.CustomerCode,
		Address:      req.Address,
		IsActive:     true,
	}
	site.CreatedBy = &callerID
	site.UpdatedBy = &callerID

	if err := s.repo.Site.Create(ctx, site); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSiteCodeTaken
		}
		s.logger.Error("创建站点失败", zap.Error(err))
		return nil, err
	}
	return toSiteResponse(site), nil
}

func (s *siteService) GetByID(ctx context.Context, id uint) (*dto.SiteResponse, error) {
	site, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSiteResponse(site), nil
}

func (s *siteService) List(ctx context.Context, req *dto.DirectoryListRequest) ([]dto.SiteResponse, int64, error) {
	sites, total, err := s.repo.Site.List(ctx, req.Keyword, req.IncludeInactive, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出站点失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.SiteResponse, 0, len(sites))
	for i := range sites {
		result = append(result, *toSiteResponse(&sites[i]))
	}
	return result, total, nil
}

func (s *siteService) Update(ctx context.Context, id uint, req *dto.UpdateSiteRequest, callerID string) (*dto.SiteResponse, error) {
	site, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		site.Name = *req.Name
	}
	if req.CustomerCode != nil {
		site.CustomerCode = *req.CustomerCode
	}
	if req.Address != nil {
		site.Address = *req.Address
	}
	if req.IsActive != nil {
		site.IsActive = *req.IsActive
	}
	site.UpdatedBy = &callerID

	if err := s.repo.Site.Update(ctx, site); err != nil {
		s.logger.Error("更新站点失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return toSiteResponse(site), nil
}

func (s *siteService) Delete(ctx context.Context, id uint, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Site.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除站点失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *siteService) get(ctx context.Context, id uint) (*model.Site, error) {
	site, err := s.repo.Site.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrSiteNotFound, id)
		}
		s.logger.Error("查询站点失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return site, nil
}

func toSiteResponse(site *model.Site) *dto.SiteResponse {
	return &dto.SiteResponse{
		ID:           site.SiteID,
		SiteCode:     site.SiteCode,
		Name:         site.Name,
		CustomerCode: site.CustomerCode,
		Address:      site.Address,
		IsActive:     site.IsActive,
		CreatedAt:    site.CreatedAt.Format(dto.TimeFormat),
		UpdatedAt:    site.UpdatedAt.Format(dto.TimeFormat),
	}
}

// ════════════════════════════════════════════════════════════
// 人员
// ════════════════════════════════════════════════════════════

type workerService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewWorkerService 创建 WorkerService 实例
func NewWorkerService(repo *repository.Repository, logger *zap.Logger) WorkerService {
	return &workerService{repo: repo, logger: logger}
}

func (s *workerService) Create(ctx context.Context, req *dto.CreateWorkerRequest, callerID string) (*dto.WorkerResponse, error) {
	w := &model.Worker{
		WorkerCode:    req.WorkerCode,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		BankCode:      req.BankCode,
		BankAccountNo: req.BankAccountNo,
		IsActive:      true,
	}
	w.CreatedBy = &callerID
	w.UpdatedBy = &callerID

	if err := s.repo.Worker.Create(ctx, w); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrWorkerCodeTaken
		}
		s.logger.Error("创建人员失败", zap.Error(err))
		return nil, err
	}
	return toWorkerResponse(w), nil
}

func (s *workerService) GetByID(ctx context.Context, id uint) (*dto.WorkerResponse, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toWorkerResponse(w), nil
}

func (s *workerService) List(ctx context.Context, req *dto.DirectoryListRequest) ([]dto.WorkerResponse, int64, error) {
	workers, total, err := s.repo.Worker.List(ctx, req.Keyword, req.IncludeInactive, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出人员失败", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.WorkerResponse, 0, len(workers))
	for i := range workers {
		result = append(result, *toWorkerResponse(&workers[i]))
	}
	return result, total, nil
}

func (s *workerService) Update(ctx context.Context, id uint, req *dto.UpdateWorkerRequest, callerID string) (*dto.WorkerResponse, error) {
	w, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		w.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		w.LastName = *req.LastName
	}
	if req.Phone != nil {
		w.Phone = *req.Phone
	}
	if req.BankCode != nil {
		w.BankCode = *req.BankCode
	}
	if req.BankAccountNo != nil {
		w.BankAccountNo = *req.BankAccountNo
	}
	if req.IsActive != nil {
		w.IsActive = *req.IsActive
	}
	w.UpdatedBy = &callerID

	if err := s.repo.Worker.Update(ctx, w); err != nil {
		s.logger.Error("更新人员失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return toWorkerResponse(w), nil
}

func (s *workerService) Delete(ctx context.Context, id uint, callerID string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Worker.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除人员失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *workerService) get(ctx context.Context, id uint) (*model.Worker, error) {
	w, err := s.repo.Worker.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrWorkerNotFound, id)
		}
		s.logger.Error("查询人员失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return w, nil
}

func toWorkerResponse(w *model.Worker) *dto.WorkerResponse {
	return &dto.WorkerResponse{
		ID:            w.WorkerID,
		WorkerCode:    w.WorkerCode,
		FirstName:     w.FirstName,
		LastName:      w.LastName,
		FullName:      w.FullName(),
		Phone:         w.Phone,
		BankCode:      w.BankCode,
		BankAccountNo: w.BankAccountNo,
		IsActive:      w.IsActive,
		CreatedAt:     w.CreatedAt.Format(dto.TimeFormat),
		UpdatedAt:     w.UpdatedAt.Format(dto.TimeFormat),
	}
}
