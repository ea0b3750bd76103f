package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type RewardDefinitionFilter struct {
	TriggerTypes []entity.RewardTriggerType
	OnlyActive   bool
}

type RewardDefinitionRepository interface {
	Create(ctx context.Context, e *entity.RewardDefinition) error
	GetByID(ctx context.Context, id string) (*entity.RewardDefinition, error)
	GetByIDs(ctx context.Context, ids []string) ([]entity.RewardDefinition, error)
	GetList(ctx context.Context, filter RewardDefinitionFilter) ([]entity.RewardDefinition, error)
}

type rewardDefinitionRepository struct{}

func NewRewardDefinitionRepository() RewardDefinitionRepository {
	return &rewardDefinitionRepository{}
}

func (r *rewardDefinitionRepository) Create(ctx context.Context, e *entity.RewardDefinition) error {
	return xcontext.DB(ctx).Create(e).Error
}

func (r *rewardDefinitionRepository) GetByID(ctx context.Context, id string) (*entity.RewardDefinition, error) {
	var result entity.RewardDefinition
	if err := xcontext.DB(ctx).Where("id=?", id).Take(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rewardDefinitionRepository) GetByIDs(ctx context.Context, ids []string) ([]entity.RewardDefinition, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var result []entity.RewardDefinition
	if err := xcontext.DB(ctx).Where("id IN (?)", ids).Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardDefinitionRepository) GetList(
	ctx context.Context, filter RewardDefinitionFilter,
) ([]entity.RewardDefinition, error) {
	tx := xcontext.DB(ctx).Model(&entity.RewardDefinition{})
	if filter.OnlyActive {
		tx = tx.Where("is_active=?", true)
	}

	if len(filter.TriggerTypes) > 0 {
		tx = tx.Where("trigger_type IN (?)", filter.TriggerTypes)
	}

	var result []entity.RewardDefinition
	if err := tx.Order("created_at ASC, id ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}
