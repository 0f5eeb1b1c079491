package model

import "time"

// Enrollment 报名表 — 对应 enrollments
// enrolled_at 之后学员才算在班（按日判断）。模型中没有退班时间：
// 移除报名不抹除历史考勤。
type Enrollment struct {
	EnrollmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"      json:"enrollment_id"`
	ClassID      string    `gorm:"type:uuid;not null;uniqueIndex:uniq_class_student"   json:"class_id"`
	StudentID    string    `gorm:"type:uuid;not null;uniqueIndex:uniq_class_student"   json:"student_id"`
	EnrolledAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                  json:"enrolled_at"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                  json:"created_at"`

	// 关联
	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }
