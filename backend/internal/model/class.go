package model

import "time"

// Class 课程表 — 对应 classes
// 每周固定重复：recurring_days 为 weekday 集合（0=周日），schedule_times
// 仅对集合内的 weekday 存放上下课时间。end_date 为空表示无限期开课。
type Class struct {
	ClassID       string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	Name          string        `gorm:"type:varchar(100);not null"                     json:"name"`
	RecurringDays IntArray      `gorm:"type:int[];not null"                            json:"recurring_days"`
	ScheduleTimes ScheduleTimes `gorm:"type:jsonb"                                     json:"schedule_times"`
	StartDate     time.Time     `gorm:"type:date;not null"                             json:"start_date"`
	EndDate       *time.Time    `gorm:"type:date"                                      json:"end_date,omitempty"`
	Active        bool          `gorm:"not null;default:true"                          json:"active"`
	VersionedModel

	// 关联
	Enrollments []Enrollment `gorm:"foreignKey:ClassID" json:"enrollments,omitempty"`
}

// TableName 指定表名
func (Class) TableName() string { return "classes" }
