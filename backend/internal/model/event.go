package model

import "time"

// Event 单次活动表 — 对应 events
// 非重复性日程（演出、工作坊等），与课程 occurrence 一起合并进日历流。
type Event struct {
	EventID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	Title       string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Date        time.Time `gorm:"type:date;not null;index"                       json:"date"`
	StartTime   string    `gorm:"type:varchar(5)"                                json:"start_time,omitempty"` // "HH:MM"
	EndTime     string    `gorm:"type:varchar(5)"                                json:"end_time,omitempty"`
	Description string    `gorm:"type:varchar(1000)"                             json:"description,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Event) TableName() string { return "events" }
