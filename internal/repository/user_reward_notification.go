package repository

import (
	"context"
	"time"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type UserRewardNotificationRepository interface {
	// CreateIfNotExists ignores the reward keys which were notified before.
	CreateIfNotExists(ctx context.Context, userID string, rewardKeys []string) error
	GetByRewardKeys(ctx context.Context, userID string, rewardKeys []string) ([]entity.UserRewardNotification, error)
}

type userRewardNotificationRepository struct{}

func NewUserRewardNotificationRepository() UserRewardNotificationRepository {
	return &userRewardNotificationRepository{}
}

func (r *userRewardNotificationRepository) CreateIfNotExists(
	ctx context.Context, userID string, rewardKeys []string,
) error {
	if len(rewardKeys) == 0 {
		return nil
	}

	now := time.Now()
	notifications := make([]entity.UserRewardNotification, 0, len(rewardKeys))
	for _, key := range rewardKeys {
		notifications = append(notifications, entity.UserRewardNotification{
			UserID:     userID,
			RewardKey:  key,
			NotifiedAt: now,
		})
	}

	return xcontext.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&notifications).Error
}

func (r *userRewardNotificationRepository) GetByRewardKeys(
	ctx context.Context, userID string, rewardKeys []string,
) ([]entity.UserRewardNotification, error) {
	if len(rewardKeys) == 0 {
		return nil, nil
	}

	var result []entity.UserRewardNotification
	err := xcontext.DB(ctx).
		Where("user_id=? AND reward_key IN (?)", userID, rewardKeys).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
