package repository

import (
	"context"

	"gorm.io/gorm"

	"classflow/backend/internal/model"
	pkgerrors "classflow/backend/pkg/errors"
)

// ClassRepository 课程数据访问接口
type ClassRepository interface {
	Create(ctx context.Context, class *model.Class) error
	GetByID(ctx context.Context, id string) (*model.Class, error)
	// GetWithEnrollments 返回课程及完整报名名单（含学员信息）
	GetWithEnrollments(ctx context.Context, id string) (*model.Class, error)
	List(ctx context.Context, onlyActive bool) ([]model.Class, error)
	// ListActiveOverlapping 返回开课区间与 [from, to] 有交集的启用课程
	ListActiveOverlapping(ctx context.Context, from, to string) ([]model.Class, error)
	Update(ctx context.Context, class *model.Class) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type classRepo struct {
	db *gorm.DB
}

func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) Create(ctx context.Context, class *model.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepo) GetByID(ctx context.Context, id string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Where("class_id = ?", id).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) GetWithEnrollments(ctx context.Context, id string) (*model.Class, error) {
	var class model.Class
	err := r.db.WithContext(ctx).
		Preload("Enrollments").
		Preload("Enrollments.Student").
		Where("class_id = ?", id).
		First(&class).Error
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) List(ctx context.Context, onlyActive bool) ([]model.Class, error) {
	var classes []model.Class
	db := r.db.WithContext(ctx)
	if onlyActive {
		db = db.Where("active = ?", true)
	}
	err := db.Order("created_at ASC").Find(&classes).Error
	return classes, err
}

func (r *classRepo) ListActiveOverlapping(ctx context.Context, from, to string) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("start_date <= ?", to).
		Where("end_date IS NULL OR end_date >= ?", from).
		Order("start_date ASC").
		Find(&classes).Error
	return classes, err
}

func (r *classRepo) Update(ctx context.Context, class *model.Class) error {
	oldVersion := class.Version
	result := r.db.WithContext(ctx).
		Model(class).
		Where("class_id = ? AND version = ?", class.ClassID, oldVersion).
		Updates(map[string]interface{}{
			"name":           class.Name,
			"recurring_days": class.RecurringDays,
			"schedule_times": class.ScheduleTimes,
			"start_date":     class.StartDate,
			"end_date":       class.EndDate,
			"active":         class.Active,
			"updated_by":     class.UpdatedBy,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	class.Version = oldVersion + 1
	return nil
}

func (r *classRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Class{}).
		Where("class_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"deleted_by": deletedBy,
		}).Error
}
