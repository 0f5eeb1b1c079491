package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"classflow/backend/internal/dto"
)

// FeedUpdateFunc 日历流更新回调。
// applied=false 表示这次抓取因窗口已变化而被丢弃。
type FeedUpdateFunc func(feed *dto.CalendarFeedResponse, applied bool)

// FeedController 维护一个可见日历窗口 [start, end)。
//
// 每次导航（上一页/下一页/回今天/跳转）立即更新窗口并重置防抖计时器，
// 静默期内只有最后一次更新触发抓取。抓取结果带着发起时的代数标记回来，
// 与当前代数不一致就整体丢弃，当前已展示的流保持不动（不闪空白）。
// 不依赖完成顺序，只认代数比对。
type FeedController struct {
	mu       sync.Mutex
	calendar CalendarService
	logger   *zap.Logger

	windowDays int           // 每页窗口天数
	debounce   time.Duration // 防抖静默期

	start time.Time // 窗口起点（含）
	end   time.Time // 窗口终点（不含）
	gen   uint64    // 导航代数，每次窗口变化递增

	timer    *time.Timer
	current  *dto.CalendarFeedResponse // 最近一次成功应用的流
	onUpdate FeedUpdateFunc

	now func() time.Time
}

// NewFeedController 创建 FeedController，初始窗口从本周周日起 windowDays 天。
func NewFeedController(calendar CalendarService, windowDays int, debounce time.Duration, logger *zap.Logger) *FeedController {
	if windowDays <= 0 {
		windowDays = 7
	}
	c := &FeedController{
		calendar:   calendar,
		logger:     logger,
		windowDays: windowDays,
		debounce:   debounce,
		now:        time.Now,
	}
	today := DateOnly(c.now())
	c.start = today.AddDate(0, 0, -int(today.Weekday()))
	c.end = c.start.AddDate(0, 0, windowDays)
	return c
}

// SetUpdateFunc 注册流更新回调。
func (c *FeedController) SetUpdateFunc(fn FeedUpdateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Window 返回当前窗口 [start, end)。
func (c *FeedController) Window() (start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start, c.end
}

// Current 返回最近一次成功应用的流；尚未有结果时为 nil。
func (c *FeedController) Current() *dto.CalendarFeedResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Next 窗口后移一页。
func (c *FeedController) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shift(c.windowDays)
}

// Prev 窗口前移一页。
func (c *FeedController) Prev() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shift(-c.windowDays)
}

// Today 窗口回到包含今天的一页。
func (c *FeedController) Today() {
	c.mu.Lock()
	defer c.mu.Unlock()
	today := DateOnly(c.now())
	start := today.AddDate(0, 0, -int(today.Weekday()))
	c.setWindow(start, start.AddDate(0, 0, c.windowDays))
}

// JumpTo 窗口跳到包含 date 的一页（窗口起点对齐到该周周日）。
func (c *FeedController) JumpTo(date time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := DateOnly(date)
	start := d.AddDate(0, 0, -int(d.Weekday()))
	c.setWindow(start, start.AddDate(0, 0, c.windowDays))
}

// Stop 取消未触发的防抖计时器。
func (c *FeedController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// ── 内部 ──

// shift 调用方须持锁。
func (c *FeedController) shift(days int) {
	c.setWindow(c.start.AddDate(0, 0, days), c.end.AddDate(0, 0, days))
}

// setWindow 更新窗口、递增代数并重置防抖计时器。调用方须持锁。
func (c *FeedController) setWindow(start, end time.Time) {
	c.start = start
	c.end = end
	c.gen++
	gen := c.gen

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.fetch(gen)
	})
}

// fetch 按代数标记抓取窗口对应的流并尝试应用。
func (c *FeedController) fetch(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	req := &dto.CalendarFeedRequest{
		From: DateKey(c.start),
		To:   DateKey(c.end),
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	feed, err := c.calendar.Feed(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// 抓取期间窗口又变了，旧结果作废，现有流保持可见
		c.notify(feed, false)
		return
	}
	if err != nil {
		c.logger.Error("抓取日历流失败", zap.String("from", req.From),
			zap.String("to", req.To), zap.Error(err))
		c.notify(nil, false)
		return
	}
	c.current = feed
	c.notify(feed, true)
}

// notify 调用方须持锁。
func (c *FeedController) notify(feed *dto.CalendarFeedResponse, applied bool) {
	if c.onUpdate != nil {
		go c.onUpdate(feed, applied)
	}
}
