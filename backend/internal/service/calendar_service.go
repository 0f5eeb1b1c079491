package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"classflow/backend/config"
	"classflow/backend/internal/dto"
	"classflow/backend/internal/repository"
)

// ── 日历模块业务错误 ──

var (
	ErrInvalidRange  = errors.New("日期区间不合法")
	ErrRangeTooLarge = errors.New("日期区间跨度过大")
)

// 日历流条目类型
const (
	FeedKindClass = "class"
	FeedKindEvent = "event"
)

// CalendarService 日历流业务接口
type CalendarService interface {
	// Feed 返回 [from, to) 窗口内的合并日历流：
	// 每门启用课程的展开结果（已扣除停课日）与单次活动，按时间升序。
	Feed(ctx context.Context, req *dto.CalendarFeedRequest) (*dto.CalendarFeedResponse, error)
	// ExportICS 将同一窗口导出为 iCalendar 文本。
	ExportICS(ctx context.Context, req *dto.CalendarFeedRequest) (string, error)
}

type calendarService struct {
	repo      *repository.Repository
	cfg       config.CalendarConfig
	feedCache *cache.Cache
	logger    *zap.Logger
	now       func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, cfg config.CalendarConfig, feedCache *cache.Cache, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, cfg: cfg, feedCache: feedCache, logger: logger, now: time.Now}
}

// ────────────────────── Feed ──────────────────────

func (s *calendarService) Feed(ctx context.Context, req *dto.CalendarFeedRequest) (*dto.CalendarFeedResponse, error) {
	from, to, err := s.parseRange(req)
	if err != nil {
		return nil, err
	}

	entries, err := s.feedEntries(ctx, from, to)
	if err != nil {
		return nil, err
	}

	// 徽标按响应时刻的"今天"现算，不进缓存
	today := DateOnly(s.now())
	annotated := make([]dto.FeedEntryResponse, len(entries))
	for i, e := range entries {
		date, _ := time.Parse("2006-01-02", e.Date)
		badge, days := ClassifyDate(date, today)
		e.Badge = badge
		e.BadgeDays = days
		annotated[i] = e
	}

	return &dto.CalendarFeedResponse{
		From:    req.From,
		To:      req.To,
		Entries: annotated,
	}, nil
}

// ────────────────────── ExportICS ──────────────────────

func (s *calendarService) ExportICS(ctx context.Context, req *dto.CalendarFeedRequest) (string, error) {
	from, to, err := s.parseRange(req)
	if err != nil {
		return "", err
	}

	entries, err := s.feedEntries(ctx, from, to)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//classflow//calendar//ZH")

	for _, e := range entries {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			continue
		}
		var uid string
		if e.Kind == FeedKindEvent {
			uid = fmt.Sprintf("event-%s@classflow", e.EventID)
		} else {
			uid = fmt.Sprintf("class-%s-%s@classflow", e.ClassID, e.Date)
		}
		event := cal.AddEvent(uid)
		event.SetSummary(e.Title)
		if e.StartTime != "" {
			start, err1 := atDayTime(date, e.StartTime)
			if err1 != nil {
				continue
			}
			event.SetStartAt(start)
			if e.EndTime != "" {
				if end, err2 := atDayTime(date, e.EndTime); err2 == nil {
					event.SetEndAt(end)
				}
			}
		} else {
			event.SetAllDayStartAt(date)
			event.SetAllDayEndAt(date.AddDate(0, 0, 1))
		}
	}

	return cal.Serialize(), nil
}

// ── 内部辅助方法 ──

// parseRange 解析并校验 [from, to) 窗口。
func (s *calendarService) parseRange(req *dto.CalendarFeedRequest) (from, to time.Time, err error) {
	from, err1 := time.Parse("2006-01-02", req.From)
	to, err2 := time.Parse("2006-01-02", req.To)
	if err1 != nil || err2 != nil || !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	if int(to.Sub(from).Hours()/24) > s.cfg.MaxRangeDays {
		return time.Time{}, time.Time{}, ErrRangeTooLarge
	}
	return from, to, nil
}

// feedEntries 组装窗口内的日历流条目（无徽标），短 TTL 缓存。
func (s *calendarService) feedEntries(ctx context.Context, from, to time.Time) ([]dto.FeedEntryResponse, error) {
	key := "feed:" + DateKey(from) + ":" + DateKey(to)
	if cached, ok := s.feedCache.Get(key); ok {
		return cached.([]dto.FeedEntryResponse), nil
	}

	// 窗口右开，区间查询按含端点处理
	hi := to.AddDate(0, 0, -1)

	classes, err := s.repo.Class.ListActiveOverlapping(ctx, DateKey(from), DateKey(hi))
	if err != nil {
		s.logger.Error("查询窗口内课程失败", zap.Error(err))
		return nil, err
	}

	exceptions, err := s.repo.Exception.ListInRange(ctx, "", from, hi)
	if err != nil {
		s.logger.Error("查询窗口内停课记录失败", zap.Error(err))
		return nil, err
	}
	cancelled := make(map[string]map[string]struct{})
	for i := range exceptions {
		e := &exceptions[i]
		if cancelled[e.ClassID] == nil {
			cancelled[e.ClassID] = make(map[string]struct{})
		}
		cancelled[e.ClassID][DateKey(e.Date)] = struct{}{}
	}

	events, err := s.repo.Event.ListInRange(ctx, from, hi)
	if err != nil {
		s.logger.Error("查询窗口内活动失败", zap.Error(err))
		return nil, err
	}

	var entries []dto.FeedEntryResponse
	for i := range classes {
		class := &classes[i]
		occurrences := ExpandOccurrences(class, cancelled[class.ClassID], from, hi, s.cfg.MaxOccurrences)
		for _, occ := range occurrences {
			entries = append(entries, dto.FeedEntryResponse{
				Kind:      FeedKindClass,
				Date:      DateKey(occ.Date),
				Weekday:   occ.Weekday,
				Title:     occ.ClassName,
				ClassID:   occ.ClassID,
				StartTime: occ.StartTime,
				EndTime:   occ.EndTime,
			})
		}
	}
	for i := range events {
		ev := &events[i]
		entries = append(entries, dto.FeedEntryResponse{
			Kind:      FeedKindEvent,
			Date:      ev.Date.Format("2006-01-02"),
			Weekday:   int(DateOnly(ev.Date).Weekday()),
			Title:     ev.Title,
			EventID:   ev.EventID,
			StartTime: ev.StartTime,
			EndTime:   ev.EndTime,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].Title < entries[j].Title
	})

	s.feedCache.Set(key, entries, s.cfg.FeedCacheTTL)
	return entries, nil
}
