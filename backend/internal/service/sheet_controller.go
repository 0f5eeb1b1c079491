package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/model"
)

// ── 考勤编辑会话业务错误 ──

var (
	ErrNoDateSelected = errors.New("尚未选择考勤日期")
	ErrStaleSnapshot  = errors.New("考勤表已过期")
)

// SheetUpdateFunc 考勤表更新回调。
// applied=false 表示这次快照因日期已切换而被丢弃。
type SheetUpdateFunc func(sheet *dto.AttendanceSheetResponse, applied bool)

// SheetController 单个编辑者对一门课程的考勤编辑会话。
//
// 每次选择日期都会发起一次异步快照抓取，抓取结果带着发起时的代数标记
// 回来，与当前代数不一致就丢弃，绝不覆盖正在编辑的状态。退出编辑模式
// 丢弃全部改动，从最近一次落库事实重新取快照，而不是沿用被放弃的改动。
type SheetController struct {
	mu         sync.Mutex
	attendance AttendanceService
	logger     *zap.Logger

	classID    string
	viewerID   string
	viewerRole string

	date     time.Time // 当前选中日期
	hasDate  bool
	gen      uint64 // 选择代数，每次切日期递增
	editMode bool

	snapshot *dto.AttendanceSheetResponse // 最近一次成功应用的快照
	edits    map[string]string            // studentId -> status，仅编辑模式

	onUpdate SheetUpdateFunc
}

// NewSheetController 创建某编辑者对某课程的考勤会话。
func NewSheetController(attendance AttendanceService, classID, viewerID, viewerRole string, logger *zap.Logger) *SheetController {
	return &SheetController{
		attendance: attendance,
		logger:     logger,
		classID:    classID,
		viewerID:   viewerID,
		viewerRole: viewerRole,
		edits:      make(map[string]string),
	}
}

// SetUpdateFunc 注册快照更新回调。
func (c *SheetController) SetUpdateFunc(fn SheetUpdateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// SelectDate 切换选中日期并异步抓取该天的快照。
// 切换会清空未保存的改动。
func (c *SheetController) SelectDate(date time.Time) {
	c.mu.Lock()
	c.date = DateOnly(date)
	c.hasDate = true
	c.gen++
	gen := c.gen
	editMode := c.editMode
	c.edits = make(map[string]string)
	c.mu.Unlock()

	go c.fetch(gen, DateOnly(date), editMode)
}

// Snapshot 返回最近一次成功应用的快照；尚未有结果时为 nil。
func (c *SheetController) Snapshot() *dto.AttendanceSheetResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// EnterEditMode 进入编辑模式并重取快照（无记录者默认 ABSENT）。
func (c *SheetController) EnterEditMode() error {
	c.mu.Lock()
	if !c.hasDate {
		c.mu.Unlock()
		return ErrNoDateSelected
	}
	c.editMode = true
	c.gen++
	gen := c.gen
	date := c.date
	c.edits = make(map[string]string)
	c.mu.Unlock()

	go c.fetch(gen, date, true)
	return nil
}

// ExitEditMode 放弃未保存的改动并从落库事实重取快照。
func (c *SheetController) ExitEditMode() {
	c.mu.Lock()
	c.editMode = false
	c.gen++
	gen := c.gen
	date := c.date
	hasDate := c.hasDate
	c.edits = make(map[string]string)
	c.mu.Unlock()

	if hasDate {
		go c.fetch(gen, date, false)
	}
}

// SetStatus 在编辑模式下记录一名学员的状态改动。
func (c *SheetController) SetStatus(studentID, status string) error {
	if status != model.AttendancePresent && status != model.AttendanceAbsent {
		return ErrInvalidStatus
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editMode {
		return ErrStaleSnapshot
	}
	c.edits[studentID] = status
	return nil
}

// Save 把当前改动保存落库，成功后退出编辑模式并重取快照。
func (c *SheetController) Save(ctx context.Context, callerID string) (*dto.SaveAttendanceResponse, error) {
	c.mu.Lock()
	if !c.hasDate {
		c.mu.Unlock()
		return nil, ErrNoDateSelected
	}
	date := c.date
	edits := make(map[string]string, len(c.edits))
	for k, v := range c.edits {
		edits[k] = v
	}
	c.mu.Unlock()

	req := &dto.SaveAttendanceRequest{
		Date:  DateKey(date),
		Edits: edits,
	}
	resp, err := c.attendance.Save(ctx, c.classID, req, callerID)
	if err != nil {
		// 保存失败：已落库状态与本地改动都保持原样
		return nil, err
	}

	c.mu.Lock()
	c.editMode = false
	c.gen++
	gen := c.gen
	c.edits = make(map[string]string)
	c.mu.Unlock()

	go c.fetch(gen, date, false)
	return resp, nil
}

// ── 内部 ──

// fetch 按代数标记抓取快照并尝试应用。
func (c *SheetController) fetch(gen uint64, date time.Time, editMode bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sheet, err := c.attendance.BuildSheet(ctx, c.classID, date, editMode, c.viewerID, c.viewerRole)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// 结果回来时日期或模式已切换，丢弃
		c.notify(sheet, false)
		return
	}
	if err != nil {
		c.logger.Error("抓取考勤表失败", zap.String("class_id", c.classID),
			zap.String("date", DateKey(date)), zap.Error(err))
		c.notify(nil, false)
		return
	}
	c.snapshot = sheet
	c.notify(sheet, true)
}

// notify 调用方须持锁。
func (c *SheetController) notify(sheet *dto.AttendanceSheetResponse, applied bool) {
	if c.onUpdate != nil {
		go c.onUpdate(sheet, applied)
	}
}
