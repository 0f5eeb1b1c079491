package model

import "time"

// ClassException 停课记录表 — 对应 class_exceptions
// 一条记录取消一次课（整天粒度）。(class_id, date) 唯一：
// 同一天不可重复停课；删除记录即恢复该天。
type ClassException struct {
	ExceptionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"exception_id"`
	ClassID     string    `gorm:"type:uuid;not null;uniqueIndex:uniq_class_date"   json:"class_id"`
	Date        time.Time `gorm:"type:date;not null;uniqueIndex:uniq_class_date"   json:"date"`
	Reason      string    `gorm:"type:varchar(500)"                                json:"reason,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"               json:"created_at"`
	CreatedBy   *string   `gorm:"type:uuid"                                        json:"created_by,omitempty"`
}

// TableName 指定表名
func (ClassException) TableName() string { return "class_exceptions" }
