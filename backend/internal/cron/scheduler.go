package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"classflow/backend/internal/dto"
	"classflow/backend/internal/service"
)

// Scheduler 定时任务调度器
// 目前只有一个任务：每日凌晨预热当周与下周的日历流缓存，
// 让早高峰的首次请求直接命中缓存。
type Scheduler struct {
	cron        *cron.Cron
	calendarSvc service.CalendarService
	logger      *zap.Logger
}

// NewScheduler 创建 Scheduler
func NewScheduler(calendarSvc service.CalendarService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		calendarSvc: calendarSvc,
		logger:      logger,
	}
}

// Start 注册并启动全部定时任务
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 4 * * *", s.warmFeedCache); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("定时任务调度器已启动")
	return nil
}

// Stop 停止调度器，等待运行中的任务结束
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("定时任务调度器已停止")
}

// warmFeedCache 预热日历流缓存：当周与下周各一个周日对齐的 7 天窗口
func (s *Scheduler) warmFeedCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := time.Now()
	todayKey := service.DateKey(today)
	weekStart := service.DateOnly(today).AddDate(0, 0, -int(today.Weekday()))

	for i := 0; i < 2; i++ {
		from := weekStart.AddDate(0, 0, 7*i)
		to := from.AddDate(0, 0, 7)
		req := &dto.CalendarFeedRequest{
			From: service.DateKey(from),
			To:   service.DateKey(to),
		}

		feed, err := s.calendarSvc.Feed(ctx, req)
		if err != nil {
			s.logger.Warn("预热日历流缓存失败",
				zap.String("from", req.From),
				zap.String("to", req.To),
				zap.Error(err),
			)
			continue
		}

		s.logger.Info("日历流缓存已预热",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Int("entries", len(feed.Entries)),
		)

		// 当周窗口顺带输出今日课程摘要
		if i == 0 {
			for _, entry := range feed.Entries {
				if entry.Date != todayKey {
					continue
				}
				s.logger.Info("今日日程",
					zap.String("kind", entry.Kind),
					zap.String("title", entry.Title),
					zap.String("start_time", entry.StartTime),
					zap.String("end_time", entry.EndTime),
				)
			}
		}
	}
}
