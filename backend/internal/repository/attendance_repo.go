package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"classflow/backend/internal/model"
)

// AttendanceRepository 考勤数据访问接口
type AttendanceRepository interface {
	// ListByClassAndDate 返回某课程某天的全部考勤记录
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]model.AttendanceRecord, error)
	// ListByStudent 返回某学员在某课程的考勤记录；classID 为空时跨课程
	ListByStudent(ctx context.Context, classID, studentID string, from, to *time.Time) ([]model.AttendanceRecord, error)
	// ListByClassInRange 返回某课程 [from, to] 内的全部考勤记录
	ListByClassInRange(ctx context.Context, classID string, from, to time.Time) ([]model.AttendanceRecord, error)
	// BulkUpsert 按 (class_id, student_id, date) 批量写入；冲突时覆盖 status。
	// 单条语句执行：要么整批生效，要么整批失败。
	BulkUpsert(ctx context.Context, records []model.AttendanceRecord) error
}

type attendanceRepo struct {
	db *gorm.DB
}

func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_id = ? AND date = ?", classID, date.Format("2006-01-02")).
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByStudent(ctx context.Context, classID, studentID string, from, to *time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	db := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if classID != "" {
		db = db.Where("class_id = ?", classID)
	}
	if from != nil {
		db = db.Where("date >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		db = db.Where("date <= ?", to.Format("2006-01-02"))
	}
	err := db.Order("date ASC").Find(&records).Error
	return records, err
}

func (r *attendanceRepo) ListByClassInRange(ctx context.Context, classID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_id = ?", classID).
		Where("date >= ? AND date <= ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("date ASC").
		Find(&records).Error
	return records, err
}

func (r *attendanceRepo) BulkUpsert(ctx context.Context, records []model.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "class_id"}, {Name: "student_id"}, {Name: "date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at", "updated_by"}),
		}).
		Create(&records).Error
}
