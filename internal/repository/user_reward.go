package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type UserRewardRepository interface {
	// CreateIfNotExists returns false if the reward key had already been
	// granted to the user.
	CreateIfNotExists(ctx context.Context, e *entity.UserReward) (bool, error)
	Get(ctx context.Context, userID, rewardKey string) (*entity.UserReward, error)
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.UserReward, error)
}

type userRewardRepository struct{}

func NewUserRewardRepository() UserRewardRepository {
	return &userRewardRepository{}
}

func (r *userRewardRepository) CreateIfNotExists(ctx context.Context, e *entity.UserReward) (bool, error) {
	tx := xcontext.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if err := tx.Error; err != nil {
		return false, err
	}

	return tx.RowsAffected > 0, nil
}

func (r *userRewardRepository) Get(ctx context.Context, userID, rewardKey string) (*entity.UserReward, error) {
	var result entity.UserReward
	err := xcontext.DB(ctx).
		Where("user_id=? AND reward_key=?", userID, rewardKey).
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRewardRepository) GetByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.UserReward, error) {
	var result []entity.UserReward
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("granted_at DESC, reward_key ASC").
		Offset(offset).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
