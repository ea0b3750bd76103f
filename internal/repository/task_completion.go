package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type TaskCompletionRepository interface {
	// CreateIfNotExists returns false if the user had already completed the
	// task.
	CreateIfNotExists(ctx context.Context, e *entity.TaskCompletion) (bool, error)

	// GetCompletedTaskIDs returns the tasks of the attraction completed by the
	// user. It is a locking read, so inside a transaction it also sees the
	// completions committed by concurrent transactions.
	GetCompletedTaskIDs(ctx context.Context, userID, attractionID string) ([]string, error)
	GetCompletedAmong(ctx context.Context, userID string, taskIDs []string) ([]string, error)
}

type taskCompletionRepository struct{}

func NewTaskCompletionRepository() TaskCompletionRepository {
	return &taskCompletionRepository{}
}

func (r *taskCompletionRepository) CreateIfNotExists(
	ctx context.Context, e *entity.TaskCompletion,
) (bool, error) {
	tx := xcontext.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if err := tx.Error; err != nil {
		return false, err
	}

	return tx.RowsAffected > 0, nil
}

func (r *taskCompletionRepository) GetCompletedTaskIDs(
	ctx context.Context, userID, attractionID string,
) ([]string, error) {
	var result []string
	err := xcontext.DB(ctx).
		Model(&entity.TaskCompletion{}).
		Clauses(clause.Locking{Strength: "SHARE", Table: clause.Table{Name: "task_completions"}}).
		Joins("join tasks on tasks.id=task_completions.task_id").
		Where("task_completions.user_id=?", userID).
		Where("tasks.attraction_id=? AND tasks.deleted_at IS NULL", attractionID).
		Pluck("task_completions.task_id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *taskCompletionRepository) GetCompletedAmong(
	ctx context.Context, userID string, taskIDs []string,
) ([]string, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}

	var result []string
	err := xcontext.DB(ctx).
		Model(&entity.TaskCompletion{}).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("user_id=? AND task_id IN (?)", userID, taskIDs).
		Pluck("task_id", &result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}
