package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
	"github.com/S9ine/demo-app-s9-project/internal/model"
	"github.com/S9ine/demo-app-s9-project/internal/repository"
)

// ── 班次模块业务错误 ──

var (
	ErrShiftNotFound  = errors.New("班次不存在")
	ErrShiftCodeTaken = errors.New("班次代码已存在")
)

const activeShiftCodesKey = "catalog:shifts:active"

// ByteCache 班次目录缓存后端，*redis.Client 与进程内缓存均实现此接口
type ByteCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ShiftCatalog 排班校验使用的只读班次目录
type ShiftCatalog interface {
	ActiveCodes(ctx context.Context) (map[string]struct{}, error)
}

// ShiftService 班次业务接口
type ShiftService interface {
	ShiftCatalog
	Create(ctx context.Context, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.ShiftResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateShiftRequest, callerID string) (*dto.ShiftResponse, error)
	Delete(ctx context.Context, id uint) error
}

type shiftService struct {
	repo   *repository.Repository
	cache  ByteCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewShiftService 创建 ShiftService 实例，cache 为 nil 时使用进程内缓存
func NewShiftService(repo *repository.Repository, cache ByteCache, ttl time.Duration, logger *zap.Logger) ShiftService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if cache == nil {
		cache = NewLocalCache(ttl)
	}
	return &shiftService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ────────────────────── ActiveCodes ──────────────────────

func (s *shiftService) ActiveCodes(ctx context.Context) (map[string]struct{}, error) {
	if b, err := s.cache.GetBytes(ctx, activeShiftCodesKey); err == nil {
		var codes []string
		if jsonErr := json.Unmarshal(b, &codes); jsonErr == nil {
			return toCodeSet(codes), nil
		}
	}

	shifts, err := s.repo.Shift.List(ctx, false)
	if err != nil {
		s.logger.Error("加载班次目录失败", zap.Error(err))
		return nil, err
	}

	codes := make([]string, 0, len(shifts))
	for _, sh := range shifts {
		codes = append(codes, sh.Code)
	}
	if b, err := json.Marshal(codes); err == nil {
		if err := s.cache.SetBytes(ctx, activeShiftCodesKey, b, s.ttl); err != nil {
			s.logger.Warn("写入班次缓存失败", zap.Error(err))
		}
	}
	return toCodeSet(codes), nil
}

func toCodeSet(codes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func (s *shiftService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, activeShiftCodesKey); err != nil {
		s.logger.Warn("清理班次缓存失败", zap.Error(err))
	}
}

// ────────────────────── CRUD ──────────────────────

func (s *shiftService) Create(ctx context.Context, req *dto.CreateShiftRequest, callerID string) (*dto.ShiftResponse, error) {
	shift := &model.Shift{
		Code:      req.Code,
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  true,
	}
	shift.CreatedBy = &callerID
	shift.UpdatedBy = &callerID

	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrShiftCodeTaken
		}
		s.logger.Error("创建班次失败", zap.String("code", req.Code), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx)
	return toShiftResponse(shift), nil
}

func (s *shiftService) List(ctx context.Context, includeInactive bool) ([]dto.ShiftResponse, error) {
	shifts, err := s.repo.Shift.List(ctx, includeInactive)
	if err != nil {
		s.logger.Error("列出班次失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, *toShiftResponse(&shifts[i]))
	}
	return result, nil
}

func (s *shiftService) Update(ctx context.Context, id uint, req *dto.UpdateShiftRequest, callerID string) (*dto.ShiftResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrShiftNotFound, id)
		}
		s.logger.Error("查询班次失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		shift.Name = *req.Name
	}
	if req.StartTime != nil {
		shift.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		shift.EndTime = *req.EndTime
	}
	if req.IsActive != nil {
		shift.IsActive = *req.IsActive
	}
	shift.UpdatedBy = &callerID

	if err := s.repo.Shift.Update(ctx, shift); err != nil {
		s.logger.Error("更新班次失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	s.invalidate(ctx)
	return toShiftResponse(shift), nil
}

func (s *shiftService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.Shift.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", ErrShiftNotFound, id)
		}
		return err
	}
	if err := s.repo.Shift.Delete(ctx, id); err != nil {
		s.logger.Error("删除班次失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
	s.invalidate(ctx)
	return nil
}

func toShiftResponse(sh *model.Shift) *dto.ShiftResponse {
	return &dto.ShiftResponse{
		ID:        sh.ShiftID,
		Code:      sh.Code,
		Name:      sh.Name,
		StartTime: sh.StartTime,
		EndTime:   sh.EndTime,
		IsActive:  sh.IsActive,
	}
}

// ════════════════════════════════════════════════════════════
// 进程内缓存（未配置 Redis 时使用）
// ════════════════════════════════════════════════════════════

var errLocalCacheMiss = errors.New("本地缓存未命中")

type localCache struct {
	c *gocache.Cache
}

// NewLocalCache 基于 go-cache 的 ByteCache 实现
func NewLocalCache(ttl time.Duration) ByteCache {
	return &localCache{c: gocache.New(ttl, 2*ttl)}
}

func (l *localCache) GetBytes(_ context.Context, key string) ([]byte, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, errLocalCacheMiss
	}
	return v.([]byte), nil
}

func (l *localCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	l.c.Set(key, value, ttl)
	return nil
}

func (l *localCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		l.c.Delete(k)
	}
	return nil
}
