package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/repository"
)

func setupTestExceptionService(now time.Time) (ExceptionService, *repository.Repository) {
	repo := newMockRepository()
	svc := NewExceptionService(repo, cache.New(time.Minute, time.Minute), zap.NewNop())
	svc.(*exceptionService).now = func() time.Time { return now }
	return svc, repo
}

// ── Create 测试 ──

func TestExceptionService_Create_Success(t *testing.T) {
	svc, repo := setupTestExceptionService(date(2024, 1, 1))
	repo.Class.Create(context.Background(), mondayWednesdayClass())

	resp, err := svc.Create(context.Background(), &dto.CreateExceptionRequest{
		ClassID: "class-1", Date: "2024-01-08", Reason: "场馆维修",
	}, "mgr-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Date != "2024-01-08" || resp.Reason != "场馆维修" {
		t.Errorf("响应不符: %+v", resp)
	}
}

func TestExceptionService_Create_Conflict(t *testing.T) {
	svc, repo := setupTestExceptionService(date(2024, 1, 1))
	repo.Class.Create(context.Background(), mondayWednesdayClass())

	req := &dto.CreateExceptionRequest{ClassID: "class-1", Date: "2024-01-08"}
	if _, err := svc.Create(context.Background(), req, "mgr-1"); err != nil {
		t.Fatalf("第一次 Create 应成功: %v", err)
	}
	if _, err := svc.Create(context.Background(), req, "mgr-1"); !errors.Is(err, ErrExceptionConflict) {
		t.Errorf("同一天重复停课应冲突，期望 ErrExceptionConflict，实际: %v", err)
	}
}

func TestExceptionService_Create_NotOccurrenceDate(t *testing.T) {
	svc, repo := setupTestExceptionService(date(2024, 1, 1))
	repo.Class.Create(context.Background(), mondayWednesdayClass())

	// 2024-01-09 是周二
	_, err := svc.Create(context.Background(), &dto.CreateExceptionRequest{
		ClassID: "class-1", Date: "2024-01-09",
	}, "mgr-1")
	if !errors.Is(err, ErrNotOccurrenceDate) {
		t.Errorf("期望 ErrNotOccurrenceDate，实际: %v", err)
	}
}

func TestExceptionService_Create_PastDateRejected(t *testing.T) {
	svc, repo := setupTestExceptionService(date(2024, 1, 10))
	repo.Class.Create(context.Background(), mondayWednesdayClass())

	_, err := svc.Create(context.Background(), &dto.CreateExceptionRequest{
		ClassID: "class-1", Date: "2024-01-08",
	}, "mgr-1")
	if !errors.Is(err, ErrCancellationClosed) {
		t.Errorf("过去的课不应允许停课，期望 ErrCancellationClosed，实际: %v", err)
	}
}

func TestExceptionService_Create_TodayAfterStartRejected(t *testing.T) {
	// 周一 18:00 开课，18:30 再停已晚
	now := time.Date(2024, 1, 8, 18, 30, 0, 0, time.UTC)
	svc, repo := setupTestExceptionService(now)
	repo.Class.Create(context.Background(), mondayWednesdayClass())

	_, err := svc.Create(context.Background(), &dto.CreateExceptionRequest{
		ClassID: "class-1", Date: "2024-01-08",
	}, "mgr-1")
	if !errors.Is(err, ErrCancellationClosed) {
		t.Errorf("开课后不应允许停课，期望 ErrCancellationClosed，实际: %v", err)
	}
}

func TestExceptionService_Create_TodayBeforeStartAllowed(t *testing.T) {
	now := time.Date(2024, 1, 8, 17, 0, 0, 0, time.UTC)
	svc, repo := setupTestExceptionService(now)
	repo.Class.Create(context.Background(), mondayWednesdayClass())

	if _, err := svc.Create(context.Background(), &dto.CreateExceptionRequest{
		ClassID: "class-1", Date: "2024-01-08",
	}, "mgr-1"); err != nil {
		t.Errorf("开课前停当天的课应允许: %v", err)
	}
}

func TestExceptionService_Create_ClassNotFound(t *testing.T) {
	svc, _ := setupTestExceptionService(date(2024, 1, 1))

	_, err := svc.Create(context.Background(), &dto.CreateExceptionRequest{
		ClassID: "nonexistent", Date: "2024-01-08",
	}, "mgr-1")
	if !errors.Is(err, ErrClassNotFound) {
		t.Errorf("期望 ErrClassNotFound，实际: %v", err)
	}
}

// ── Delete / 往返恢复 测试 ──

func TestExceptionService_CreateDeleteRoundTrip(t *testing.T) {
	svc, repo := setupTestExceptionService(date(2024, 1, 1))
	ctx := context.Background()
	class := mondayWednesdayClass()
	repo.Class.Create(ctx, class)

	resp, err := svc.Create(ctx, &dto.CreateExceptionRequest{
		ClassID: "class-1", Date: "2024-01-08",
	}, "mgr-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}

	// 停课后展开不含 01-08
	cancelled := exceptionSet(t, repo, "class-1")
	occurrences := ExpandOccurrences(class, cancelled, date(2024, 1, 1), date(2024, 1, 15), 366)
	for _, occ := range occurrences {
		if DateKey(occ.Date) == "2024-01-08" {
			t.Fatal("停课日不应出现在展开结果中")
		}
	}

	// 删除停课记录后恢复
	if err := svc.Delete(ctx, resp.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	cancelled = exceptionSet(t, repo, "class-1")
	occurrences = ExpandOccurrences(class, cancelled, date(2024, 1, 1), date(2024, 1, 15), 366)
	found := false
	for _, occ := range occurrences {
		if DateKey(occ.Date) == "2024-01-08" {
			found = true
		}
	}
	if !found {
		t.Error("删除停课记录后该天应恢复上课")
	}
}

func TestExceptionService_Delete_NotFound(t *testing.T) {
	svc, _ := setupTestExceptionService(date(2024, 1, 1))

	if err := svc.Delete(context.Background(), "nonexistent"); !errors.Is(err, ErrExceptionNotFound) {
		t.Errorf("期望 ErrExceptionNotFound，实际: %v", err)
	}
}

// ── List 测试 ──

func TestExceptionService_List_ByRange(t *testing.T) {
	svc, repo := setupTestExceptionService(date(2024, 1, 1))
	ctx := context.Background()
	repo.Class.Create(ctx, mondayWednesdayClass())

	for _, d := range []string{"2024-01-08", "2024-01-10", "2024-02-05"} {
		if _, err := svc.Create(ctx, &dto.CreateExceptionRequest{ClassID: "class-1", Date: d}, "mgr-1"); err != nil {
			t.Fatalf("造停课记录失败: %v", err)
		}
	}

	result, err := svc.List(ctx, &dto.ExceptionListRequest{
		ClassID: "class-1", From: "2024-01-01", To: "2024-01-31",
	})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("1月内应有 2 条停课记录，实际 %d 条", len(result))
	}
}

// exceptionSet 从仓库取某课程的停课日集合
func exceptionSet(t *testing.T, repo *repository.Repository, classID string) map[string]struct{} {
	t.Helper()
	exceptions, err := repo.Exception.ListByClass(context.Background(), classID)
	if err != nil {
		t.Fatalf("查询停课记录失败: %v", err)
	}
	set := make(map[string]struct{}, len(exceptions))
	for i := range exceptions {
		set[DateKey(exceptions[i].Date)] = struct{}{}
	}
	return set
}
