package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/S9ine/demo-app-s9-project/internal/dto"
)

func TestSiteService_CRUD(t *testing.T) {
	repos := newMockRepos()
	svc := NewSiteService(repos.toRepository(), zap.NewNop())
	ctx := context.Background()

	site, err := svc.Create(ctx, &dto.CreateSiteRequest{SiteCode: "S1", Name: "Central Plaza"}, "admin-1")
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if !site.IsActive {
		t.Error("新建站点应为启用状态")
	}

	if _, err := svc.Create(ctx, &dto.CreateSiteRequest{SiteCode: "S1", Name: "Other"}, "admin-1"); !errors.Is(err, ErrSiteCodeTaken) {
		t.Errorf("期望 ErrSiteCodeTaken，实际: %v", err)
	}

	name := "Central Plaza North"
	updated, err := svc.Update(ctx, site.ID, &dto.UpdateSiteRequest{Name: &name}, "admin-2")
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if updated.Name != name || updated.SiteCode != "S1" {
		t.Errorf("只应修改 name，实际 %+v", updated)
	}
	if got := repos.site.sites[site.ID].UpdatedBy; got == nil || *got != "admin-2" {
		t.Error("updated_by 应记录操作人")
	}

	if err := svc.Delete(ctx, site.ID, "admin-1"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := svc.GetByID(ctx, site.ID); !errors.Is(err, ErrSiteNotFound) {
		t.Errorf("期望 ErrSiteNotFound，实际: %v", err)
	}
}

func TestWorkerService_CRUD(t *testing.T) {
	repos := newMockRepos()
	svc := NewWorkerService(repos.toRepository(), zap.NewNop())
	ctx := context.Background()

	w, err := svc.Create(ctx, &dto.CreateWorkerRequest{WorkerCode: "PG-0001", FirstName: "Somchai", LastName: "Dee"}, "admin-1")
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if w.FullName != "Somchai Dee" {
		t.Errorf("full_name 不正确: %q", w.FullName)
	}

	if _, err := svc.Create(ctx, &dto.CreateWorkerRequest{WorkerCode: "PG-0001", FirstName: "Dup"}, "admin-1"); !errors.Is(err, ErrWorkerCodeTaken) {
		t.Errorf("期望 ErrWorkerCodeTaken，实际: %v", err)
	}

	inactive := false
	updated, err := svc.Update(ctx, w.ID, &dto.UpdateWorkerRequest{IsActive: &inactive}, "admin-1")
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if updated.IsActive || updated.FirstName != "Somchai" {
		t.Errorf("只应修改 is_active，实际 %+v", updated)
	}

	if _, err := svc.Update(ctx, 42, &dto.UpdateWorkerRequest{}, "admin-1"); !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("期望 ErrWorkerNotFound，实际: %v", err)
	}
	if err := svc.Delete(ctx, 42, "admin-1"); !errors.Is(err, ErrWorkerNotFound) {
		t.Errorf("期望 ErrWorkerNotFound，实际: %v", err)
	}

	list, total, err := svc.List(ctx, &dto.DirectoryListRequest{})
	if err != nil || total != 1 || len(list) != 1 {
		t.Errorf("List 结果不正确: total=%d err=%v", total, err)
	}
}
