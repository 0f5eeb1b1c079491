package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/model"
	"classflow/backend/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrClassNotFound      = errors.New("课程不存在")
	ErrInvalidSchedule    = errors.New("课程排期不合法")
	ErrStudentNotFound    = errors.New("学员不存在")
	ErrNotStudentRole     = errors.New("只能为学员角色报名")
	ErrAlreadyEnrolled    = errors.New("该学员已报名此课程")
	ErrEnrollmentNotFound = errors.New("报名记录不存在")
)

// ClassService 课程业务接口
type ClassService interface {
	Create(ctx context.Context, req *dto.CreateClassRequest, callerID string) (*dto.ClassResponse, error)
	GetByID(ctx context.Context, id string) (*dto.ClassResponse, error)
	List(ctx context.Context, onlyActive bool) ([]dto.ClassResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateClassRequest, callerID string) (*dto.ClassResponse, error)
	Delete(ctx context.Context, id string, callerID string) error

	Enroll(ctx context.Context, classID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, classID, enrollmentID string) error
	ListRoster(ctx context.Context, classID string, date time.Time, viewerID, viewerRole string) ([]dto.EnrollmentResponse, error)
}

type classService struct {
	repo      *repository.Repository
	feedCache *cache.Cache // 日历流缓存，课程变更后整体失效
	logger    *zap.Logger
}

// NewClassService 创建 ClassService 实例
func NewClassService(repo *repository.Repository, feedCache *cache.Cache, logger *zap.Logger) ClassService {
	return &classService{repo: repo, feedCache: feedCache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *classService) Create(ctx context.Context, req *dto.CreateClassRequest, callerID string) (*dto.ClassResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrInvalidSchedule
	}
	var endDate *time.Time
	if req.EndDate != nil {
		ed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, ErrInvalidSchedule
		}
		endDate = &ed
	}

	days := normalizeWeekdays(req.RecurringDays)
	times, err := scheduleTimesFromDTO(req.ScheduleTimes)
	if err != nil {
		return nil, ErrInvalidSchedule
	}
	if err := validateSchedule(days, times, startDate, endDate); err != nil {
		return nil, err
	}

	class := &model.Class{
		Name:          req.Name,
		RecurringDays: days,
		ScheduleTimes: times,
		StartDate:     startDate,
		EndDate:       endDate,
		Active:        true,
	}
	class.CreatedBy = &callerID
	class.UpdatedBy = &callerID

	if err := s.repo.Class.Create(ctx, class); err != nil {
		s.logger.Error("创建课程失败", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}

	s.feedCache.Flush()
	return s.toClassResponse(class), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *classService) GetByID(ctx context.Context, id string) (*dto.ClassResponse, error) {
	class, err := s.repo.Class.GetWithEnrollments(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.toClassResponse(class), nil
}

// ────────────────────── List ──────────────────────

func (s *classService) List(ctx context.Context, onlyActive bool) ([]dto.ClassResponse, error) {
	classes, err := s.repo.Class.List(ctx, onlyActive)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClassResponse, 0, len(classes))
	for i := range classes {
		result = append(result, *s.toClassResponse(&classes[i]))
	}

	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *classService) Update(ctx context.Context, id string, req *dto.UpdateClassRequest, callerID string) (*dto.ClassResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		class.Name = *req.Name
	}
	if req.RecurringDays != nil {
		class.RecurringDays = normalizeWeekdays(req.RecurringDays)
	}
	if req.ScheduleTimes != nil {
		times, err := scheduleTimesFromDTO(req.ScheduleTimes)
		if err != nil {
			return nil, ErrInvalidSchedule
		}
		class.ScheduleTimes = times
	}
	if req.StartDate != nil {
		sd, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, ErrInvalidSchedule
		}
		class.StartDate = sd
	}
	if req.EndDate != nil {
		ed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return nil, ErrInvalidSchedule
		}
		class.EndDate = &ed
	}
	if req.Active != nil {
		class.Active = *req.Active
	}

	if err := validateSchedule(class.RecurringDays, class.ScheduleTimes, class.StartDate, class.EndDate); err != nil {
		return nil, err
	}

	class.UpdatedBy = &callerID

	if err := s.repo.Class.Update(ctx, class); err != nil {
		s.logger.Error("更新课程失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	s.feedCache.Flush()
	return s.toClassResponse(class), nil
}

// ────────────────────── Delete ──────────────────────

func (s *classService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.repo.Class.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Class.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课程失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.feedCache.Flush()
	return nil
}

// ────────────────────── Enroll ──────────────────────

func (s *classService) Enroll(ctx context.Context, classID string, req *dto.EnrollRequest) (*dto.EnrollmentResponse, error) {
	if _, err := s.repo.Class.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", classID), zap.Error(err))
		return nil, err
	}

	student, err := s.repo.User.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学员失败", zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}
	if student.Role != model.RoleStudent {
		return nil, ErrNotStudentRole
	}

	if _, err := s.repo.Enrollment.GetByClassAndStudent(ctx, classID, req.StudentID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询报名记录失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	enrollment := &model.Enrollment{
		ClassID:    classID,
		StudentID:  req.StudentID,
		EnrolledAt: time.Now(),
	}
	if err := s.repo.Enrollment.Create(ctx, enrollment); err != nil {
		s.logger.Error("创建报名记录失败", zap.String("class_id", classID),
			zap.String("student_id", req.StudentID), zap.Error(err))
		return nil, err
	}

	enrollment.Student = student
	return s.toEnrollmentResponse(enrollment), nil
}

// ────────────────────── Unenroll ──────────────────────

// Unenroll 移除报名。历史考勤记录不受影响。
func (s *classService) Unenroll(ctx context.Context, classID, enrollmentID string) error {
	enrollments, err := s.repo.Enrollment.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询报名名单失败", zap.String("class_id", classID), zap.Error(err))
		return err
	}

	found := false
	for i := range enrollments {
		if enrollments[i].EnrollmentID == enrollmentID {
			found = true
			break
		}
	}
	if !found {
		return ErrEnrollmentNotFound
	}

	if err := s.repo.Enrollment.Delete(ctx, enrollmentID); err != nil {
		s.logger.Error("删除报名记录失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return err
	}

	return nil
}

// ────────────────────── ListRoster ──────────────────────

// ListRoster 返回 date 当天的在班名单（按报名可见性过滤，学员只见本人）。
func (s *classService) ListRoster(ctx context.Context, classID string, date time.Time, viewerID, viewerRole string) ([]dto.EnrollmentResponse, error) {
	if _, err := s.repo.Class.GetByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", classID), zap.Error(err))
		return nil, err
	}

	enrollments, err := s.repo.Enrollment.ListByClass(ctx, classID)
	if err != nil {
		s.logger.Error("查询报名名单失败", zap.String("class_id", classID), zap.Error(err))
		return nil, err
	}

	visible := FilterRoster(enrollments, date, viewerID, viewerRole)
	result := make([]dto.EnrollmentResponse, 0, len(visible))
	for i := range visible {
		result = append(result, *s.toEnrollmentResponse(&visible[i]))
	}

	return result, nil
}

// ── 内部辅助方法 ──

// normalizeWeekdays 去重并升序排列 weekday 集合。
func normalizeWeekdays(days []int) model.IntArray {
	seen := make(map[int]bool, len(days))
	out := make(model.IntArray, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// scheduleTimesFromDTO 将字符串 key 的时段表转为模型类型，key 必须是 0-6。
func scheduleTimesFromDTO(in map[string]dto.TimeRangeDTO) (model.ScheduleTimes, error) {
	if in == nil {
		return nil, nil
	}
	out := make(model.ScheduleTimes, len(in))
	for k, v := range in {
		weekday, err := strconv.Atoi(k)
		if err != nil || weekday < 0 || weekday > 6 {
			return nil, ErrInvalidSchedule
		}
		out[weekday] = model.TimeRange{StartTime: v.StartTime, EndTime: v.EndTime}
	}
	return out, nil
}

// validateSchedule 校验课程排期不变量：
// 时段表的 weekday 必须在重复日集合内；有时段的 weekday 开始必须早于结束；
// end_date 设置时不得早于 start_date。
func validateSchedule(days model.IntArray, times model.ScheduleTimes, startDate time.Time, endDate *time.Time) error {
	if len(days) == 0 {
		return ErrInvalidSchedule
	}
	for weekday, tr := range times {
		if !days.Contains(weekday) {
			return ErrInvalidSchedule
		}
		start, err1 := time.Parse("15:04", tr.StartTime)
		end, err2 := time.Parse("15:04", tr.EndTime)
		if err1 != nil || err2 != nil || !start.Before(end) {
			return ErrInvalidSchedule
		}
	}
	if endDate != nil && DateOnly(*endDate).Before(DateOnly(startDate)) {
		return ErrInvalidSchedule
	}
	return nil
}

func (s *classService) toClassResponse(class *model.Class) *dto.ClassResponse {
	resp := &dto.ClassResponse{
		ID:            class.ClassID,
		Name:          class.Name,
		RecurringDays: class.RecurringDays,
		StartDate:     class.StartDate.Format("2006-01-02"),
		Active:        class.Active,
		CreatedAt:     class.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:     class.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if class.EndDate != nil {
		ed := class.EndDate.Format("2006-01-02")
		resp.EndDate = &ed
	}
	if class.ScheduleTimes != nil {
		resp.ScheduleTimes = make(map[string]dto.TimeRangeDTO, len(class.ScheduleTimes))
		for weekday, tr := range class.ScheduleTimes {
			resp.ScheduleTimes[strconv.Itoa(weekday)] = dto.TimeRangeDTO{
				StartTime: tr.StartTime,
				EndTime:   tr.EndTime,
			}
		}
	}
	for i := range class.Enrollments {
		resp.Enrollments = append(resp.Enrollments, *s.toEnrollmentResponse(&class.Enrollments[i]))
	}
	return resp
}

func (s *classService) toEnrollmentResponse(e *model.Enrollment) *dto.EnrollmentResponse {
	resp := &dto.EnrollmentResponse{
		ID:         e.EnrollmentID,
		ClassID:    e.ClassID,
		StudentID:  e.StudentID,
		EnrolledAt: e.EnrolledAt.Format("2006-01-02T15:04:05Z"),
	}
	if e.Student != nil {
		resp.Student = &dto.UserResponse{
			ID:     e.Student.UserID,
			Name:   e.Student.Name,
			Email:  e.Student.Email,
			Role:   e.Student.Role,
			Active: e.Student.Active,
		}
	}
	return resp
}
