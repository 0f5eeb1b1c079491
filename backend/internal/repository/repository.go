package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User       UserRepository
	Class      ClassRepository
	Enrollment EnrollmentRepository
	Exception  ExceptionRepository
	Attendance AttendanceRepository
	Event      EventRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:       NewUserRepo(db),
		Class:      NewClassRepo(db),
		Enrollment: NewEnrollmentRepo(db),
		Exception:  NewExceptionRepo(db),
		Attendance: NewAttendanceRepo(db),
		Event:      NewEventRepo(db),
	}
}
