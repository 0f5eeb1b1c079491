package service

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/model"
	"classflow/backend/internal/repository"
)

// ── 停课模块业务错误 ──

var (
	ErrExceptionNotFound  = errors.New("停课记录不存在")
	ErrExceptionConflict  = errors.New("该日期已停课")
	ErrNotOccurrenceDate  = errors.New("该日期不是此课程的上课日")
	ErrCancellationClosed = errors.New("该节课已开始，无法停课")
)

// ExceptionService 停课业务接口
type ExceptionService interface {
	// Create 停掉某课程某天的一次课。
	// 非上课日、已停课、或已过停课时限均拒绝。
	Create(ctx context.Context, req *dto.CreateExceptionRequest, callerID string) (*dto.ExceptionResponse, error)
	// Delete 删除停课记录，该天在下次展开时恢复上课。
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, req *dto.ExceptionListRequest) ([]dto.ExceptionResponse, error)
}

type exceptionService struct {
	repo      *repository.Repository
	feedCache *cache.Cache
	logger    *zap.Logger
	now       func() time.Time // 可注入时钟，停课时限判断用
}

// NewExceptionService 创建 ExceptionService 实例
func NewExceptionService(repo *repository.Repository, feedCache *cache.Cache, logger *zap.Logger) ExceptionService {
	return &exceptionService{repo: repo, feedCache: feedCache, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *exceptionService) Create(ctx context.Context, req *dto.CreateExceptionRequest, callerID string) (*dto.ExceptionResponse, error) {
	class, err := s.repo.Class.GetByID(ctx, req.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		s.logger.Error("查询课程失败", zap.String("id", req.ClassID), zap.Error(err))
		return nil, err
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrNotOccurrenceDate
	}
	if !IsOccurrenceDate(class, date) {
		return nil, ErrNotOccurrenceDate
	}

	// 停课时限：开课后不允许再停
	var times *model.TimeRange
	if tr, ok := class.ScheduleTimes[int(date.Weekday())]; ok {
		times = &tr
	}
	if !CanCancel(date, times, s.now()) {
		return nil, ErrCancellationClosed
	}

	if _, err := s.repo.Exception.GetByClassAndDate(ctx, req.ClassID, date); err == nil {
		return nil, ErrExceptionConflict
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询停课记录失败", zap.String("class_id", req.ClassID),
			zap.String("date", req.Date), zap.Error(err))
		return nil, err
	}

	exception := &model.ClassException{
		ClassID:   req.ClassID,
		Date:      DateOnly(date),
		Reason:    req.Reason,
		CreatedBy: &callerID,
	}
	if err := s.repo.Exception.Create(ctx, exception); err != nil {
		s.logger.Error("创建停课记录失败", zap.String("class_id", req.ClassID),
			zap.String("date", req.Date), zap.Error(err))
		return nil, err
	}

	s.feedCache.Flush()
	return s.toExceptionResponse(exception), nil
}

// ────────────────────── Delete ──────────────────────

func (s *exceptionService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Exception.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExceptionNotFound
		}
		s.logger.Error("查询停课记录失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Exception.Delete(ctx, id); err != nil {
		s.logger.Error("删除停课记录失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.feedCache.Flush()
	return nil
}

// ────────────────────── List ──────────────────────

func (s *exceptionService) List(ctx context.Context, req *dto.ExceptionListRequest) ([]dto.ExceptionResponse, error) {
	var (
		exceptions []model.ClassException
		err        error
	)
	if req.From != "" && req.To != "" {
		from, err1 := time.Parse("2006-01-02", req.From)
		to, err2 := time.Parse("2006-01-02", req.To)
		if err1 != nil || err2 != nil {
			return nil, ErrInvalidRange
		}
		exceptions, err = s.repo.Exception.ListInRange(ctx, req.ClassID, from, to)
	} else {
		exceptions, err = s.repo.Exception.ListByClass(ctx, req.ClassID)
	}
	if err != nil {
		s.logger.Error("列出停课记录失败", zap.String("class_id", req.ClassID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ExceptionResponse, 0, len(exceptions))
	for i := range exceptions {
		result = append(result, *s.toExceptionResponse(&exceptions[i]))
	}

	return result, nil
}

// ── 内部辅助方法 ──

func (s *exceptionService) toExceptionResponse(e *model.ClassException) *dto.ExceptionResponse {
	return &dto.ExceptionResponse{
		ID:        e.ExceptionID,
		ClassID:   e.ClassID,
		Date:      e.Date.Format("2006-01-02"),
		Reason:    e.Reason,
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
