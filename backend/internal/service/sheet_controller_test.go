package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/model"
)

// stubAttendance 可控的 AttendanceService 桩：BuildSheet 先上报再阻塞等待放行。
type stubAttendance struct {
	calls   chan string // 请求的日期
	release chan struct{}
}

func newStubAttendance() *stubAttendance {
	return &stubAttendance{
		calls:   make(chan string, 16),
		release: make(chan struct{}, 16),
	}
}

func (s *stubAttendance) BuildSheet(_ context.Context, classID string, date time.Time, _ bool, _, _ string) (*dto.AttendanceSheetResponse, error) {
	s.calls <- DateKey(date)
	<-s.release
	return &dto.AttendanceSheetResponse{ClassID: classID, Date: DateKey(date)}, nil
}

func (s *stubAttendance) Save(_ context.Context, _ string, _ *dto.SaveAttendanceRequest, _ string) (*dto.SaveAttendanceResponse, error) {
	return nil, errors.New("stub 不支持保存")
}

func (s *stubAttendance) ListByStudent(_ context.Context, _ string, _ *dto.StudentAttendanceRequest) ([]dto.AttendanceRecordResponse, error) {
	return nil, nil
}

type sheetResult struct {
	sheet   *dto.AttendanceSheetResponse
	applied bool
}

func watchSheet(ctrl *SheetController) chan sheetResult {
	results := make(chan sheetResult, 16)
	ctrl.SetUpdateFunc(func(sheet *dto.AttendanceSheetResponse, applied bool) {
		results <- sheetResult{sheet: sheet, applied: applied}
	})
	return results
}

func waitSheet(t *testing.T, results chan sheetResult) sheetResult {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("等待快照更新超时")
		return sheetResult{}
	}
}

func waitApplied(t *testing.T, results chan sheetResult) sheetResult {
	t.Helper()
	for {
		r := waitSheet(t, results)
		if r.applied {
			return r
		}
	}
}

// ── 日期切换过期丢弃 ──

func TestSheetController_DiscardsStaleSnapshot(t *testing.T) {
	stub := newStubAttendance()
	ctrl := NewSheetController(stub, "class-1", "mgr-1", model.RoleManager, zap.NewNop())
	results := watchSheet(ctrl)

	ctrl.SelectDate(date(2024, 1, 8))
	<-stub.calls // 第一次抓取在途

	ctrl.SelectDate(date(2024, 1, 10))
	<-stub.calls // 第二次抓取在途

	// 放行两次，完成顺序不限
	stub.release <- struct{}{}
	stub.release <- struct{}{}

	r1 := waitSheet(t, results)
	r2 := waitSheet(t, results)

	var appliedCount int
	for _, r := range []sheetResult{r1, r2} {
		if r.applied {
			appliedCount++
			if r.sheet.Date != "2024-01-10" {
				t.Errorf("生效快照应属于当前日期 2024-01-10，实际 %s", r.sheet.Date)
			}
		}
	}
	if appliedCount != 1 {
		t.Fatalf("两次抓取应恰好一次生效，实际 %d 次", appliedCount)
	}

	if snap := ctrl.Snapshot(); snap == nil || snap.Date != "2024-01-10" {
		t.Errorf("当前快照应为新日期的结果: %+v", snap)
	}
}

// ── 编辑 / 保存 / 放弃 全流程（真实服务 + mock 仓库）──

func setupSheetFlow(t *testing.T) (*SheetController, AttendanceService, chan sheetResult, *mockAttendanceRepo) {
	t.Helper()
	svc, repo := setupTestAttendanceService()
	seedAttendanceClass(t, repo)
	ctrl := NewSheetController(svc, "class-1", "mgr-1", model.RoleManager, zap.NewNop())
	return ctrl, svc, watchSheet(ctrl), repo.Attendance.(*mockAttendanceRepo)
}

func TestSheetController_EditAndSave(t *testing.T) {
	ctrl, _, results, attRepo := setupSheetFlow(t)

	ctrl.SelectDate(date(2024, 1, 8))
	waitApplied(t, results)

	if err := ctrl.EnterEditMode(); err != nil {
		t.Fatalf("EnterEditMode 应成功: %v", err)
	}
	snap := waitApplied(t, results)
	if len(snap.sheet.Entries) != 2 {
		t.Fatalf("编辑模式应含在班两人，实际 %d 行", len(snap.sheet.Entries))
	}

	if err := ctrl.SetStatus("stu-1", model.AttendancePresent); err != nil {
		t.Fatalf("SetStatus 应成功: %v", err)
	}

	resp, err := ctrl.Save(context.Background(), "mgr-1")
	if err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}
	if resp.Saved != 2 {
		t.Fatalf("应落库 2 条，实际 %d 条", resp.Saved)
	}
	waitApplied(t, results) // 保存后的回读快照

	if len(attRepo.records) != 2 {
		t.Fatalf("仓库应有 2 条记录，实际 %d 条", len(attRepo.records))
	}
	for _, r := range attRepo.records {
		switch r.StudentID {
		case "stu-1":
			if r.Status != model.AttendancePresent {
				t.Errorf("stu-1 应为 PRESENT，实际 %s", r.Status)
			}
		case "stu-2":
			if r.Status != model.AttendanceAbsent {
				t.Errorf("stu-2 应为默认 ABSENT，实际 %s", r.Status)
			}
		}
	}
}

func TestSheetController_ExitEditModeDiscardsEdits(t *testing.T) {
	ctrl, _, results, attRepo := setupSheetFlow(t)

	ctrl.SelectDate(date(2024, 1, 8))
	waitApplied(t, results)
	if err := ctrl.EnterEditMode(); err != nil {
		t.Fatalf("EnterEditMode 应成功: %v", err)
	}
	waitApplied(t, results)

	if err := ctrl.SetStatus("stu-1", model.AttendancePresent); err != nil {
		t.Fatalf("SetStatus 应成功: %v", err)
	}

	// 不保存直接退出：改动丢弃，快照回到落库事实
	ctrl.ExitEditMode()
	snap := waitApplied(t, results)
	if len(snap.sheet.Entries) != 0 {
		t.Errorf("未保存过任何记录，查看模式应为空表，实际 %+v", snap.sheet.Entries)
	}
	if len(attRepo.records) != 0 {
		t.Error("放弃编辑不应写库")
	}

	// 退出编辑模式后不能再改
	if err := ctrl.SetStatus("stu-2", model.AttendancePresent); !errors.Is(err, ErrStaleSnapshot) {
		t.Errorf("非编辑模式 SetStatus 应拒绝，期望 ErrStaleSnapshot，实际: %v", err)
	}
}

func TestSheetController_Guards(t *testing.T) {
	ctrl, _, _, _ := setupSheetFlow(t)

	if err := ctrl.EnterEditMode(); !errors.Is(err, ErrNoDateSelected) {
		t.Errorf("未选日期进编辑模式应拒绝，实际: %v", err)
	}
	if _, err := ctrl.Save(context.Background(), "mgr-1"); !errors.Is(err, ErrNoDateSelected) {
		t.Errorf("未选日期保存应拒绝，实际: %v", err)
	}
	if err := ctrl.SetStatus("stu-1", "LATE"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("非法状态应拒绝，实际: %v", err)
	}
}
