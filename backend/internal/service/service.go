package service

import (
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"classflow/backend/config"
	"classflow/backend/internal/repository"
	"classflow/backend/pkg/jwt"
	"classflow/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Class      ClassService
	Exception  ExceptionService
	Attendance AttendanceService
	Calendar   CalendarService
	Event      EventService
	Export     ExportService
}

// NewService 创建 Service 聚合
// rdb 可为 nil（Redis 不可用时降级运行，仅失去 Token 黑名单）。
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	// 日历流缓存由课程/停课/活动三类变更共同失效
	feedCache := cache.New(cfg.Calendar.FeedCacheTTL, 5*cfg.Calendar.FeedCacheTTL)

	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:       NewUserService(repo, logger),
		Class:      NewClassService(repo, feedCache, logger),
		Exception:  NewExceptionService(repo, feedCache, logger),
		Attendance: NewAttendanceService(repo, logger),
		Calendar:   NewCalendarService(repo, cfg.Calendar, feedCache, logger),
		Event:      NewEventService(repo, feedCache, logger),
		Export:     NewExportService(repo, cfg.Calendar.MaxOccurrences, logger),
	}
}
