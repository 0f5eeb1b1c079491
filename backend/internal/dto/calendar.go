package dto

// ── 日历模块 DTO ──

// CalendarFeedRequest 日历流查询参数，区间为 [from, to)
type CalendarFeedRequest struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}

// FeedEntryResponse 日历流单条目
// kind: class（课程 occurrence）| event（单次活动）
type FeedEntryResponse struct {
	Kind      string `json:"kind"`
	Date      string `json:"date"`
	Weekday   int    `json:"weekday"`
	Title     string `json:"title"`
	ClassID   string `json:"class_id,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Badge     string `json:"badge"`          // today | tomorrow | days | next_week | none
	BadgeDays int    `json:"badge_days,omitempty"` // badge=days 时距今天数
}

// CalendarFeedResponse 日历流响应
type CalendarFeedResponse struct {
	From    string              `json:"from"`
	To      string              `json:"to"`
	Entries []FeedEntryResponse `json:"entries"`
}

// ── 活动 DTO ──

// CreateEventRequest 创建单次活动请求
type CreateEventRequest struct {
	Title       string `json:"title"       binding:"required,min=1,max=200"`
	Date        string `json:"date"        binding:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time"  binding:"omitempty,len=5"`
	EndTime     string `json:"end_time"    binding:"omitempty,len=5"`
	Description string `json:"description" binding:"omitempty,max=1000"`
}

// EventResponse 单次活动响应
type EventResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Description string `json:"description,omitempty"`
}
