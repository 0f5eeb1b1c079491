package repository

import (
	"context"

	"gorm.io/gorm"

	"classflow/backend/internal/model"
)

// EnrollmentRepository 报名数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	GetByClassAndStudent(ctx context.Context, classID, studentID string) (*model.Enrollment, error)
	ListByClass(ctx context.Context, classID string) ([]model.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error)
	Delete(ctx context.Context, id string) error
}

type enrollmentRepo struct {
	db *gorm.DB
}

func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) GetByClassAndStudent(ctx context.Context, classID, studentID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND student_id = ?", classID, studentID).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) ListByClass(ctx context.Context, classID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_id = ?", classID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("enrolled_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("enrollment_id = ?", id).
		Delete(&model.Enrollment{}).Error
}
