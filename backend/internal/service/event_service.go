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

// ── 活动模块业务错误 ──

var (
	ErrEventNotFound = errors.New("活动不存在")
	ErrInvalidEvent  = errors.New("活动数据不合法")
)

// EventService 单次活动业务接口
type EventService interface {
	Create(ctx context.Context, req *dto.CreateEventRequest, callerID string) (*dto.EventResponse, error)
	List(ctx context.Context, from, to time.Time) ([]dto.EventResponse, error)
	Delete(ctx context.Context, id string) error
}

type eventService struct {
	repo      *repository.Repository
	feedCache *cache.Cache
	logger    *zap.Logger
}

// NewEventService 创建 EventService 实例
func NewEventService(repo *repository.Repository, feedCache *cache.Cache, logger *zap.Logger) EventService {
	return &eventService{repo: repo, feedCache: feedCache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest, callerID string) (*dto.EventResponse, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, ErrInvalidEvent
	}
	if req.StartTime != "" && req.EndTime != "" {
		start, err1 := time.Parse("15:04", req.StartTime)
		end, err2 := time.Parse("15:04", req.EndTime)
		if err1 != nil || err2 != nil || !start.Before(end) {
			return nil, ErrInvalidEvent
		}
	}

	event := &model.Event{
		Title:       req.Title,
		Date:        DateOnly(date),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	}
	event.CreatedBy = &callerID
	event.UpdatedBy = &callerID

	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建活动失败", zap.String("title", req.Title), zap.Error(err))
		return nil, err
	}

	s.feedCache.Flush()
	return s.toEventResponse(event), nil
}

// ────────────────────── List ──────────────────────

func (s *eventService) List(ctx context.Context, from, to time.Time) ([]dto.EventResponse, error) {
	events, err := s.repo.Event.ListInRange(ctx, from, to)
	if err != nil {
		s.logger.Error("列出活动失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *s.toEventResponse(&events[i]))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *eventService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Event.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Event.Delete(ctx, id); err != nil {
		s.logger.Error("删除活动失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.feedCache.Flush()
	return nil
}

// ── 内部辅助方法 ──

func (s *eventService) toEventResponse(e *model.Event) *dto.EventResponse {
	return &dto.EventResponse{
		ID:          e.EventID,
		Title:       e.Title,
		Date:        e.Date.Format("2006-01-02"),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Description: e.Description,
	}
}
