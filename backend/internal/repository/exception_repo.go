package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"classflow/backend/internal/model"
)

// ExceptionRepository 停课记录数据访问接口
type ExceptionRepository interface {
	Create(ctx context.Context, exception *model.ClassException) error
	GetByID(ctx context.Context, id string) (*model.ClassException, error)
	GetByClassAndDate(ctx context.Context, classID string, date time.Time) (*model.ClassException, error)
	// ListByClass 返回某课程的全部停课记录；classID 为空时返回所有课程的记录
	ListByClass(ctx context.Context, classID string) ([]model.ClassException, error)
	// ListInRange 返回 [from, to] 内的停课记录
	ListInRange(ctx context.Context, classID string, from, to time.Time) ([]model.ClassException, error)
	Delete(ctx context.Context, id string) error
}

type exceptionRepo struct {
	db *gorm.DB
}

func NewExceptionRepo(db *gorm.DB) ExceptionRepository {
	return &exceptionRepo{db: db}
}

func (r *exceptionRepo) Create(ctx context.Context, exception *model.ClassException) error {
	return r.db.WithContext(ctx).Create(exception).Error
}

func (r *exceptionRepo) GetByID(ctx context.Context, id string) (*model.ClassException, error) {
	var exception model.ClassException
	err := r.db.WithContext(ctx).
		Where("exception_id = ?", id).
		First(&exception).Error
	if err != nil {
		return nil, err
	}
	return &exception, nil
}

func (r *exceptionRepo) GetByClassAndDate(ctx context.Context, classID string, date time.Time) (*model.ClassException, error) {
	var exception model.ClassException
	err := r.db.WithContext(ctx).
		Where("class_id = ? AND date = ?", classID, date.Format("2006-01-02")).
		First(&exception).Error
	if err != nil {
		return nil, err
	}
	return &exception, nil
}

func (r *exceptionRepo) ListByClass(ctx context.Context, classID string) ([]model.ClassException, error) {
	var exceptions []model.ClassException
	db := r.db.WithContext(ctx)
	if classID != "" {
		db = db.Where("class_id = ?", classID)
	}
	err := db.Order("date ASC").Find(&exceptions).Error
	return exceptions, err
}

func (r *exceptionRepo) ListInRange(ctx context.Context, classID string, from, to time.Time) ([]model.ClassException, error) {
	var exceptions []model.ClassException
	db := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if classID != "" {
		db = db.Where("class_id = ?", classID)
	}
	err := db.Order("date ASC").Find(&exceptions).Error
	return exceptions, err
}

func (r *exceptionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("exception_id = ?", id).
		Delete(&model.ClassException{}).Error
}
