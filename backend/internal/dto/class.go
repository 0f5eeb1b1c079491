package dto

// ── 课程模块 DTO ──

// TimeRangeDTO 单个上课时段
type TimeRangeDTO struct {
	StartTime string `json:"start_time" binding:"required,len=5"` // "HH:MM"
	EndTime   string `json:"end_time"   binding:"required,len=5"`
}

// CreateClassRequest 创建课程请求
// recurring_days: weekday 集合（0=周日 … 6=周六）；
// schedule_times 的 key 为 weekday 的十进制字符串，仅允许集合内的 weekday。
type CreateClassRequest struct {
	Name          string                  `json:"name"           binding:"required,min=1,max=100"`
	RecurringDays []int                   `json:"recurring_days" binding:"required,dive,min=0,max=6"`
	ScheduleTimes map[string]TimeRangeDTO `json:"schedule_times"`
	StartDate     string                  `json:"start_date"     binding:"required,datetime=2006-01-02"`
	EndDate       *string                 `json:"end_date"       binding:"omitempty,datetime=2006-01-02"`
}

// UpdateClassRequest 更新课程请求（nil 字段不变更）
type UpdateClassRequest struct {
	Name          *string                 `json:"name"           binding:"omitempty,min=1,max=100"`
	RecurringDays []int                   `json:"recurring_days" binding:"omitempty,dive,min=0,max=6"`
	ScheduleTimes map[string]TimeRangeDTO `json:"schedule_times"`
	StartDate     *string                 `json:"start_date"     binding:"omitempty,datetime=2006-01-02"`
	EndDate       *string                 `json:"end_date"       binding:"omitempty,datetime=2006-01-02"`
	Active        *bool                   `json:"active"`
}

// EnrollRequest 报名请求
type EnrollRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
}

// ClassResponse 课程响应
type ClassResponse struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	RecurringDays []int                   `json:"recurring_days"`
	ScheduleTimes map[string]TimeRangeDTO `json:"schedule_times,omitempty"`
	StartDate     string                  `json:"start_date"`
	EndDate       *string                 `json:"end_date,omitempty"`
	Active        bool                    `json:"active"`
	Enrollments   []EnrollmentResponse    `json:"enrollments,omitempty"`
	CreatedAt     string                  `json:"created_at"`
	UpdatedAt     string                  `json:"updated_at"`
}

// EnrollmentResponse 报名响应
type EnrollmentResponse struct {
	ID         string        `json:"id"`
	ClassID    string        `json:"class_id"`
	StudentID  string        `json:"student_id"`
	Student    *UserResponse `json:"student,omitempty"`
	EnrolledAt string        `json:"enrolled_at"`
}
