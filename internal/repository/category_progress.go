package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type CategoryProgressRepository interface {
	CreateIfNotExists(ctx context.Context, e *entity.CategoryProgress) error
	Get(ctx context.Context, userID, categoryID string) (*entity.CategoryProgress, error)
	GetForUpdate(ctx context.Context, userID, categoryID string) (*entity.CategoryProgress, error)

	// UpdateFlags only raises flags, a flag which is already set is never
	// cleared.
	UpdateFlags(ctx context.Context, e *entity.CategoryProgress) error
}

type categoryProgressRepository struct{}

func NewCategoryProgressRepository() CategoryProgressRepository {
	return &categoryProgressRepository{}
}

func (r *categoryProgressRepository) CreateIfNotExists(
	ctx context.Context, e *entity.CategoryProgress,
) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e).Error
}

func (r *categoryProgressRepository) Get(
	ctx context.Context, userID, categoryID string,
) (*entity.CategoryProgress, error) {
	var result entity.CategoryProgress
	err := xcontext.DB(ctx).
		Where("user_id=? AND category_id=?", userID, categoryID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *categoryProgressRepository) GetForUpdate(
	ctx context.Context, userID, categoryID string,
) (*entity.CategoryProgress, error) {
	var result entity.CategoryProgress
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id=? AND category_id=?", userID, categoryID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *categoryProgressRepository) UpdateFlags(ctx context.Context, e *entity.CategoryProgress) error {
	updates := map[string]any{}
	if e.BronzeUnlocked {
		updates["bronze_unlocked"] = true
	}
	if e.SilverUnlocked {
		updates["silver_unlocked"] = true
	}
	if e.GoldUnlocked {
		updates["gold_unlocked"] = true
	}

	if len(updates) == 0 {
		return nil
	}

	return xcontext.DB(ctx).
		Model(&entity.CategoryProgress{}).
		Where("user_id=? AND category_id=?", e.UserID, e.CategoryID).
		Updates(updates).Error
}
