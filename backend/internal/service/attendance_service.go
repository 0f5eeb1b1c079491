package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/model"
	"classflow/backend/internal/repository"
)

// ── 考勤模块业务错误 ──

var (
	ErrEmptySheet       = errors.New("当天无在班学员，无法保存考勤")
	ErrInvalidStatus    = errors.New("考勤状态不合法")
	ErrAttendanceForbid = errors.New("学员只能查看本人考勤")
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	// BuildSheet 组装某课程某天的考勤表。
	// 查看模式：仅已落库的记录；编辑模式：当天在班全员，无记录者默认 ABSENT。
	BuildSheet(ctx context.Context, classID string, date time.Time, editMode bool, viewerID, viewerRole string) (*dto.AttendanceSheetResponse, error)
	// Save 保存考勤：当天在班全员逐一落库，edits 未覆盖者记 ABSENT，
	// 单条批量 upsert，要么全部生效要么全部失败。
	Save(ctx context.Context, classID string, req *dto.SaveAttendanceRequest, callerID string) (*dto.SaveAttendanceResponse, error)
	// ListByStudent 查询某学员的考勤记录（可按课程与日期区间收窄）。
	ListByStudent(ctx context.Context, studentID string, req *dto.StudentAttendanceRequest) ([]dto.AttendanceRecordResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, logger *zap.Logger) AttendanceService {
	return &attendanceService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── BuildSheet ──────────────────────

func (s *attendanceService) BuildSheet(ctx context.Context, classID string, date time.Time, editMode bool, viewerID, viewerRole string) (*dto.AttendanceSheetResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", classID), zap.Error(err))
		return nil, err
	}
	if !IsOccurrenceDate(class, date) {
		return nil, ErrNotOccurrenceDate
	}

	records, err := s.repo.Attendance.ListByClassAndDate(ctx, classID, date)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.String("class_id", classID),
			zap.String("date", DateKey(date)), zap.Error(err))
		return nil, err
	}

	resp := &dto.AttendanceSheetResponse{
		ClassID: classID,
		Date:    DateKey(date),
		Entries: []dto.AttendanceEntryResponse{},
	}

	if !editMode {
		// 查看模式：落库了什么就是什么，没记录的学员不出现
		for i := range records {
			r := &records[i]
			if viewerRole == model.RoleStudent && r.StudentID != viewerID {
				continue
			}
			entry := dto.AttendanceEntryResponse{
				StudentID: r.StudentID,
				Status:    r.Status,
				Persisted: true,
			}
			if r.Student != nil {
				entry.StudentName = r.Student.Name
			}
			resp.Entries = append(resp.Entries, entry)
		}
		return resp, nil
	}

	// 编辑模式：当天在班全员，按学员ID对齐已有记录，缺省 ABSENT
	enrollments, err := s.repo.Enrollment.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询报名名单失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}
	roster := FilterRoster(enrollments, date, viewerID, viewerRole)

	persisted := make(map[string]string, len(records))
	for i := range records {
		persisted[records[i].StudentID] = records[i].Status
	}

	for i := range roster {
		e := &roster[i]
		entry := dto.AttendanceEntryResponse{
			StudentID: e.StudentID,
			Status:    model.AttendanceAbsent,
		}
		if status, ok := persisted[e.StudentID]; ok {
			entry.Status = status
			entry.Persisted = true
		}
		if e.Student != nil {
			entry.StudentName = e.Student.Name
		}
		resp.Entries = append(resp.Entries, entry)
	}
	return resp, nil
}

// ────────────────────── Save ──────────────────────

func (s *attendanceService) Save(ctx context.Context, classID string, req *dto.SaveAttendanceRequest, callerID string) (*dto.SaveAttendanceResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", classID), zap.Error(err))
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil || !IsOccurrenceDate(class, date) {
		return nil, ErrNotOccurrenceDate
	}

	for _, status := range req.Edits {
		if status != model.AttendancePresent && status != model.AttendanceAbsent {
			return nil, ErrInvalidStatus
		}
	}

	enrollments, err := s.repo.Enrollment.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询报名名单失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}
	roster := FilterRoster(enrollments, date, "", model.RoleManager)
	if len(roster) == 0 {
		return nil, ErrEmptySheet
	}

	// 以当天在班名单为准组记录；edits 中不在名单内的学员直接丢弃，
	// 其历史记录不动
	now := s.now()
	records := make([]model.AttendanceRecord, 0, len(roster))
	for i := range roster {
		studentID := roster[i].StudentID
		status := model.AttendanceAbsent
		if v, ok := req.Edits[studentID]; ok {
			status = v
		}
		records = append(records, model.AttendanceRecord{
			ClassID:   classID,
			StudentID: studentID,
			Date:      DateOnly(date),
			Status:    status,
			UpdatedAt: now,
			UpdatedBy: &callerID,
		})
	}

	if err := s.repo.Attendance.BulkUpsert(ctx, records); err != nil {
		s.logger.Error("保存考勤失败", zap.String("class_id", classID),
			zap.String("date", req.Date), zap.Int("count", len(records)), zap.Error(err))
		return nil, err
	}

	return &dto.SaveAttendanceResponse{
		ClassID: classID,
		Date:    req.Date,
		Saved:   len(records),
	}, nil
}

// ────────────────────── ListByStudent ──────────────────────

func (s *attendanceService) ListByStudent(ctx context.Context, studentID string, req *dto.StudentAttendanceRequest) ([]dto.AttendanceRecordResponse, error) {
	var from, to *time.Time
	if req.From != "" {
		f, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return nil, ErrInvalidRange
		}
		from = &f
	}
	if req.To != "" {
		t, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return nil, ErrInvalidRange
		}
		to = &t
	}

	records, err := s.repo.Attendance.ListByStudent(ctx, req.ClassID, studentID, from, to)
	if err != nil {
		s.logger.Error("查询学员考勤失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AttendanceRecordResponse, 0, len(records))
	for i := range records {
		r := &records[i]
		result = append(result, dto.AttendanceRecordResponse{
			ClassID:   r.ClassID,
			StudentID: r.StudentID,
			Date:      r.Date.Format("2006-01-02"),
			Status:    r.Status,
		})
	}
	return result, nil
}
