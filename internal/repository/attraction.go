package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type AttractionRepository interface {
	Create(ctx context.Context, e *entity.Attraction) error
	GetByID(ctx context.Context, id string) (*entity.Attraction, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.Attraction, error)
	GetByCategoryID(ctx context.Context, categoryID string) ([]entity.Attraction, error)
}

type attractionRepository struct{}

func NewAttractionRepository() AttractionRepository {
	return &attractionRepository{}
}

func (r *attractionRepository) Create(ctx context.Context, e *entity.Attraction) error {
	return xcontext.DB(ctx).Create(e).Error
}

func (r *attractionRepository) GetByID(ctx context.Context, id string) (*entity.Attraction, error) {
	var result entity.Attraction
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *attractionRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.Attraction, error) {
	var result []entity.Attraction
	if err := xcontext.DB(ctx).Where("id IN (?)", ids).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *attractionRepository) GetByCategoryID(ctx context.Context, categoryID string) ([]entity.Attraction, error) {
	var result []entity.Attraction
	err := xcontext.DB(ctx).
		Where("category_id=?", categoryID).
		Order("id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
