package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type TaskRepository interface {
	Create(ctx context.Context, e *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.Task, error)
	GetByAttractionID(ctx context.Context, attractionID string) ([]entity.Task, error)
	CountByAttractionID(ctx context.Context, attractionID string) (int64, error)
}

type taskRepository struct{}

func NewTaskRepository() TaskRepository {
	return &taskRepository{}
}

func (r *taskRepository) Create(ctx context.Context, e *entity.Task) error {
	return xcontext.DB(ctx).Create(e).Error
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*entity.Task, error) {
	var result entity.Task
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *taskRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Task, error) {
	var result []entity.Task
	if err := xcontext.DB(ctx).Where("id IN (?)", ids).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *taskRepository) GetByAttractionID(ctx context.Context, attractionID string) ([]entity.Task, error) {
	var result []entity.Task
	err := xcontext.DB(ctx).
		Where("attraction_id=?", attractionID).
		Order("id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *taskRepository) CountByAttractionID(ctx context.Context, attractionID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).
		Model(&entity.Task{}).
		Where("attraction_id=?", attractionID).
		Count(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}
