package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserCategory struct {
	UserID     string
	CategoryID string
}

type AttractionProgressRepository interface {
	CreateIfNotExists(ctx context.Context, e *entity.AttractionProgress) error
	Get(ctx context.Context, userID, attractionID string) (*entity.AttractionProgress, error)

	// GetForUpdate locks the row until the current transaction ends.
	GetForUpdate(ctx context.Context, userID, attractionID string) (*entity.AttractionProgress, error)
	Update(ctx context.Context, e *entity.AttractionProgress) error
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.AttractionProgress, error)
	GetByCategoryID(ctx context.Context, userID, categoryID string) ([]entity.AttractionProgress, error)

	// GetByCategoryIDForShare is the locking read version of GetByCategoryID.
	GetByCategoryIDForShare(ctx context.Context, userID, categoryID string) ([]entity.AttractionProgress, error)

	// GetUserCategories returns every distinct pair of user and category which
	// has at least one attraction progress.
	GetUserCategories(ctx context.Context) ([]UserCategory, error)
}

type attractionProgressRepository struct{}

func NewAttractionProgressRepository() AttractionProgressRepository {
	return &attractionProgressRepository{}
}

func (r *attractionProgressRepository) CreateIfNotExists(
	ctx context.Context, e *entity.AttractionProgress,
) error {
	return xcontext.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e).Error
}

func (r *attractionProgressRepository) Get(
	ctx context.Context, userID, attractionID string,
) (*entity.AttractionProgress, error) {
	var result entity.AttractionProgress
	err := xcontext.DB(ctx).
		Where("user_id=? AND attraction_id=?", userID, attractionID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *attractionProgressRepository) GetForUpdate(
	ctx context.Context, userID, attractionID string,
) (*entity.AttractionProgress, error) {
	var result entity.AttractionProgress
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id=? AND attraction_id=?", userID, attractionID).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *attractionProgressRepository) Update(ctx context.Context, e *entity.AttractionProgress) error {
	return xcontext.DB(ctx).
		Model(&entity.AttractionProgress{}).
		Where("user_id=? AND attraction_id=?", e.UserID, e.AttractionID).
		Updates(map[string]any{
			"completed_tasks": e.CompletedTasks,
			"total_tasks":     e.TotalTasks,
			"percentage":      e.Percentage,
			"unlocked":        e.Unlocked,
			"completed_at":    e.CompletedAt,
		}).Error
}

func (r *attractionProgressRepository) GetByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.AttractionProgress, error) {
	var result []entity.AttractionProgress
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("updated_at DESC, attraction_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *attractionProgressRepository) GetByCategoryID(
	ctx context.Context, userID, categoryID string,
) ([]entity.AttractionProgress, error) {
	return r.getByCategoryID(xcontext.DB(ctx), userID, categoryID)
}

func (r *attractionProgressRepository) GetByCategoryIDForShare(
	ctx context.Context, userID, categoryID string,
) ([]entity.AttractionProgress, error) {
	return r.getByCategoryID(
		xcontext.DB(ctx).Clauses(clause.Locking{Strength: "SHARE", Table: clause.Table{Name: "attraction_progresses"}}),
		userID, categoryID,
	)
}

func (r *attractionProgressRepository) getByCategoryID(
	db *gorm.DB, userID, categoryID string,
) ([]entity.AttractionProgress, error) {
	var result []entity.AttractionProgress
	err := db.
		Model(&entity.AttractionProgress{}).
		Joins("join attractions on attractions.id=attraction_progresses.attraction_id").
		Where("attraction_progresses.user_id=?", userID).
		Where("attractions.category_id=? AND attractions.deleted_at IS NULL", categoryID).
		Order("attraction_progresses.attraction_id ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *attractionProgressRepository) GetUserCategories(ctx context.Context) ([]UserCategory, error) {
	var result []UserCategory
	err := xcontext.DB(ctx).
		Model(&entity.AttractionProgress{}).
		Select("DISTINCT attraction_progresses.user_id AS user_id, attractions.category_id AS category_id").
		Joins("join attractions on attractions.id=attraction_progresses.attraction_id").
		Where("attractions.deleted_at IS NULL").
		Order("attraction_progresses.user_id ASC, attractions.category_id ASC").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
