package model

import "time"

// 考勤状态
const (
	AttendancePresent = "PRESENT"
	AttendanceAbsent  = "ABSENT"
)

// AttendanceRecord 考勤记录表 — 对应 attendance_records
// (class_id, student_id, date) 唯一；重复保存走 upsert 覆盖，不产生重复行。
type AttendanceRecord struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"attendance_id"`
	ClassID      string    `gorm:"type:uuid;not null;uniqueIndex:uniq_class_student_date"  json:"class_id"`
	StudentID    string    `gorm:"type:uuid;not null;uniqueIndex:uniq_class_student_date"  json:"student_id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uniq_class_student_date"  json:"date"`
	Status       string    `gorm:"type:varchar(10);not null"                               json:"status"` // PRESENT | ABSENT
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                      json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                      json:"updated_at"`
	UpdatedBy    *string   `gorm:"type:uuid"                                               json:"updated_by,omitempty"`

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }
